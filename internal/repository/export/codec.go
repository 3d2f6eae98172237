package export

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// MarshalRecord encodes a record as relaxed Extended JSON.
func MarshalRecord(r alarm.Record) ([]byte, error) {
	data, err := bson.MarshalExtJSON(map[string]any(r), false, false)
	if err != nil {
		return nil, fmt.Errorf("encode extended json: %w", err)
	}

	return data, nil
}

// MarshalCanonicalRecord encodes a record as canonical Extended JSON, which
// keeps int32, int64 and double values apart.
func MarshalCanonicalRecord(r alarm.Record) ([]byte, error) {
	data, err := bson.MarshalExtJSON(map[string]any(r), true, false)
	if err != nil {
		return nil, fmt.Errorf("encode canonical extended json: %w", err)
	}

	return data, nil
}

// UnmarshalRecord decodes a relaxed or canonical Extended JSON document.
func UnmarshalRecord(data []byte) (alarm.Record, error) {
	var doc bson.M
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, fmt.Errorf("decode extended json: %w", err)
	}

	return alarm.Record(doc), nil
}
