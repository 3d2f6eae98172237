package masking

import (
	"cmp"
	"slices"

	"github.com/pablo-flores/wa-3fecta/internal/domain/alarm"
)

// member is a selected record tagged with its arrival position.
type member struct {
	seq    uint64
	key    alarm.GroupKey
	record alarm.Record
}

// group accumulates the states and members sharing one key.
type group struct {
	states  alarm.StateSet
	members []member
}

// grouping builds groups from selected records.
type grouping struct {
	groups map[alarm.GroupKey]*group
}

func newGrouping(sizeHint int) *grouping {
	return &grouping{
		groups: make(map[alarm.GroupKey]*group, sizeHint),
	}
}

// add places a selected record in its group.
func (g *grouping) add(m member) {
	grp, ok := g.groups[m.key]
	if !ok {
		grp = &group{states: alarm.NewStateSet()}
		g.groups[m.key] = grp
	}

	grp.states.Add(m.record.State())
	grp.members = append(grp.members, m)
}

// masked returns the members of masked groups and the number of such groups.
func (g *grouping) masked() ([]member, int) {
	var (
		result []member
		count  int
	)

	for _, grp := range g.groups {
		if !grp.states.Masked() {
			continue
		}

		count++

		result = append(result, grp.members...)
	}

	return result, count
}

// Filter returns the records that belong to masked groups, in input order.
// Records in states other than RAISED, UPDATED, RETRY and CLEARED never take
// part. Returned records are copies without the _id identity field.
func Filter(records []alarm.Record) []alarm.Record {
	g := newGrouping(len(records))

	for i, r := range records {
		if !r.State().IsRelevant() {
			continue
		}

		g.add(member{seq: uint64(i), key: r.Key(), record: r})
	}

	members, _ := g.masked()

	return flatten(members)
}

// flatten orders members by arrival and strips the identity field.
func flatten(members []member) []alarm.Record {
	slices.SortFunc(members, func(a, b member) int {
		return cmp.Compare(a.seq, b.seq)
	})

	result := make([]alarm.Record, 0, len(members))
	for _, m := range members {
		result = append(result, m.record.Public())
	}

	return result
}
