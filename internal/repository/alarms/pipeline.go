package alarms

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// Names of the intermediate fields produced by the $group stage.
const (
	groupStatesField  = "alarmStates"
	groupMembersField = "alarms"
)

// SelectFilter matches the documents in a relevant state.
func SelectFilter() bson.D {
	return bson.D{
		{Key: alarm.FieldState, Value: bson.D{
			{Key: "$in", Value: alarm.Names(alarm.RelevantStates())},
		}},
	}
}

// ScanProjection drops the identity field and keeps everything else.
func ScanProjection() bson.D {
	return bson.D{{Key: alarm.FieldID, Value: 0}}
}

// MaskedPipeline returns the aggregation that selects, groups and qualifies
// alarms on the server and unwinds the members of masked groups. Members keep
// every stored field except the identity.
func MaskedPipeline() bson.A {
	return bson.A{
		bson.D{{Key: "$match", Value: SelectFilter()}},
		bson.D{{Key: "$project", Value: ScanProjection()}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: alarm.FieldID, Value: bson.D{
				{Key: alarm.FieldNetworkElementID, Value: "$" + alarm.FieldNetworkElementID},
				{Key: alarm.FieldRaisedTime, Value: "$" + alarm.FieldRaisedTime},
			}},
			{Key: groupStatesField, Value: bson.D{{Key: "$addToSet", Value: "$" + alarm.FieldState}}},
			{Key: groupMembersField, Value: bson.D{{Key: "$push", Value: "$$ROOT"}}},
		}}},
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "$and", Value: bson.A{
				bson.D{{Key: groupStatesField, Value: bson.D{
					{Key: "$in", Value: bson.A{string(alarm.StateCleared)}},
				}}},
				bson.D{{Key: groupStatesField, Value: bson.D{
					{Key: "$in", Value: alarm.Names(alarm.ActiveStates())},
				}}},
			}},
		}}},
		bson.D{{Key: "$unwind", Value: "$" + groupMembersField}},
		bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$" + groupMembersField}}}},
	}
}
