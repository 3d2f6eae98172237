package masking

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
	"github.com/pablo-flores/wa-3fecta/internal/repository/export"
)

// AllowDiskUseField is the optional boolean request field.
const AllowDiskUseField = "allow_disk_use"

// errAllowDiskUseType is returned when the request field is not a boolean.
var errAllowDiskUseType = errors.New(AllowDiskUseField + " must be a boolean")

// errRecordType is returned when a response value is not an Extended JSON string.
var errRecordType = errors.New("record is not an extended json string")

// NewRequest builds a FindMaskedAlarms request. A nil toggle leaves the
// server default in place.
func NewRequest(allowDiskUse *bool) *structpb.Struct {
	request := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if allowDiskUse != nil {
		request.Fields[AllowDiskUseField] = structpb.NewBoolValue(*allowDiskUse)
	}

	return request
}

// ParseRequest extracts the disk toggle from a request.
func ParseRequest(request *structpb.Struct) (*bool, error) {
	value, ok := request.GetFields()[AllowDiskUseField]
	if !ok {
		return nil, nil //nolint:nilnil // Absent toggle is not an error.
	}

	flag, isBool := value.GetKind().(*structpb.Value_BoolValue)
	if !isBool {
		return nil, errAllowDiskUseType
	}

	return &flag.BoolValue, nil
}

// ToListValue converts records into their wire form: one canonical Extended
// JSON string per record.
func ToListValue(records []alarm.Record) (*structpb.ListValue, error) {
	values := make([]*structpb.Value, 0, len(records))

	for i, record := range records {
		data, err := export.MarshalCanonicalRecord(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		values = append(values, structpb.NewStringValue(string(data)))
	}

	return &structpb.ListValue{Values: values}, nil
}

// FromListValue converts the wire form back into records.
func FromListValue(list *structpb.ListValue) ([]alarm.Record, error) {
	records := make([]alarm.Record, 0, len(list.GetValues()))

	for i, value := range list.GetValues() {
		document, ok := value.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("record %d: %w", i, errRecordType)
		}

		record, err := export.UnmarshalRecord([]byte(document.StringValue))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		records = append(records, record)
	}

	return records, nil
}
