package alarm

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MissingToken is the group key component used for absent or null fields.
// All records missing the same key field therefore share one group component,
// which matches how the document store compares null values while grouping.
const MissingToken = "<missing>"

// GroupKey identifies a masking group: the network element and the raised time.
// Each component is a canonical token, so values that the document store
// considers equal (for example int32 100 and float64 100) produce equal keys.
type GroupKey struct {
	// NetworkElement is the canonical token of networkElementId.
	NetworkElement string
	// RaisedTime is the canonical token of alarmRaisedTime.
	RaisedTime string
}

// KeyOf builds the group key of a record.
func KeyOf(r Record) GroupKey {
	return GroupKey{
		NetworkElement: Token(r[FieldNetworkElementID]),
		RaisedTime:     Token(r[FieldRaisedTime]),
	}
}

// Hash returns a stable 64-bit hash of the key, used to shard groups.
func (k GroupKey) Hash() uint64 {
	digest := xxhash.New()

	_, _ = digest.WriteString(k.NetworkElement)
	_, _ = digest.Write([]byte{0})
	_, _ = digest.WriteString(k.RaisedTime)

	return digest.Sum64()
}

// String renders the key for logs.
func (k GroupKey) String() string {
	return k.NetworkElement + "@" + k.RaisedTime
}

// Token reduces a field value to a canonical comparable string.
//
//nolint:cyclop // One branch per supported BSON value type.
func Token(value any) string {
	switch v := value.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return MissingToken
	case string:
		return "s:" + v
	case bool:
		return "b:" + strconv.FormatBool(v)
	case int:
		return intToken(int64(v))
	case int8:
		return intToken(int64(v))
	case int16:
		return intToken(int64(v))
	case int32:
		return intToken(int64(v))
	case int64:
		return intToken(v)
	case uint8:
		return intToken(int64(v))
	case uint16:
		return intToken(int64(v))
	case uint32:
		return intToken(int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return "n:" + strconv.FormatUint(v, 10)
		}

		return intToken(int64(v))
	case float32:
		return floatToken(float64(v))
	case float64:
		return floatToken(v)
	case time.Time:
		return timeToken(v.UnixMilli())
	case primitive.DateTime:
		return timeToken(int64(v))
	case primitive.Timestamp:
		return fmt.Sprintf("ts:%d:%d", v.T, v.I)
	case primitive.ObjectID:
		return "o:" + v.Hex()
	case primitive.Decimal128:
		return "d:" + v.String()
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

func intToken(v int64) string {
	return "n:" + strconv.FormatInt(v, 10)
}

// floatToken formats integral floats as integers so they group with equal
// integer values.
func floatToken(v float64) string {
	if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
		return intToken(int64(v))
	}

	return "n:" + strconv.FormatFloat(v, 'g', -1, 64)
}

func timeToken(millis int64) string {
	return "t:" + strconv.FormatInt(millis, 10)
}

// isNull reports whether a value is the null marker of the document store.
func isNull(value any) bool {
	switch value.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return true
	default:
		return false
	}
}
