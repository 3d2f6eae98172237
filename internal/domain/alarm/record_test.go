package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestRecord_Accessors verifies typed access to the interpreted fields.
func TestRecord_Accessors(t *testing.T) {
	t.Parallel()

	r := Record{
		FieldState:    "RAISED",
		FieldAlarmID:  "A-1",
		FieldOrigenID: int32(42),
	}

	require.Equal(t, StateRaised, r.State())

	id, ok := r.AlarmID()
	require.True(t, ok)
	require.Equal(t, "A-1", id)

	origen, ok := r.OrigenID()
	require.True(t, ok)
	require.Equal(t, "42", origen)

	r[FieldOrigenID] = nil

	_, ok = r.OrigenID()
	require.False(t, ok)

	require.Equal(t, State(""), Record{FieldState: 7}.State())
}

// TestRecord_Public drops the identity field without touching the original.
func TestRecord_Public(t *testing.T) {
	t.Parallel()

	r := Record{
		FieldID:         primitive.NewObjectID(),
		FieldAlarmID:    "A-1",
		"probableCause": "linkDown",
	}

	public := r.Public()

	require.NotContains(t, public, FieldID)
	require.Contains(t, r, FieldID)
	require.Equal(t, "linkDown", public["probableCause"])
	require.Empty(t, Record(nil).Public())
}

// TestToken_Equality checks which values land in the same group component.
func TestToken_Equality(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.Equal(t, Token(100), Token(int32(100)))
	require.Equal(t, Token(int64(100)), Token(100.0))
	require.NotEqual(t, Token(100), Token(100.5))
	require.NotEqual(t, Token("100"), Token(100))
	require.Equal(t, Token(ts), Token(primitive.NewDateTimeFromTime(ts)))
	require.Equal(t, MissingToken, Token(nil))
	require.Equal(t, MissingToken, Token(primitive.Null{}))
}

// TestKeyOf_MissingFields groups records lacking key fields under the sentinel.
func TestKeyOf_MissingFields(t *testing.T) {
	t.Parallel()

	a := KeyOf(Record{FieldState: "RAISED"})
	b := KeyOf(Record{FieldState: "CLEARED", FieldNetworkElementID: nil})

	require.Equal(t, a, b)
	require.Equal(t, MissingToken, a.NetworkElement)
	require.Equal(t, MissingToken, a.RaisedTime)
	require.Equal(t, a.Hash(), b.Hash())

	c := KeyOf(Record{FieldNetworkElementID: "NE1", FieldRaisedTime: 100})
	require.NotEqual(t, a, c)
	require.Equal(t, "s:NE1@n:100", c.String())
}
