package spill

const createTableSQL = `
CREATE TABLE spilled_alarms (
	seq        BIGINT NOT NULL,
	ne_key     VARCHAR NOT NULL,
	raised_key VARCHAR NOT NULL,
	state      VARCHAR NOT NULL,
	doc        BLOB NOT NULL
)`

const insertSQL = `INSERT INTO spilled_alarms (seq, ne_key, raised_key, state, doc) VALUES (?, ?, ?, ?, ?)`

// groupedSQL computes, per group, whether it holds a clear and an active state.
// Placeholders: cleared state, then the three active states.
const groupedSQL = `
WITH grouped AS (
	SELECT ne_key,
	       raised_key,
	       bool_or(state = ?) AS has_clear,
	       bool_or(state IN (?, ?, ?)) AS has_active
	FROM spilled_alarms
	GROUP BY ne_key, raised_key
)`

const countGroupsSQL = groupedSQL + `
SELECT count(*), count(*) FILTER (WHERE has_clear AND has_active)
FROM grouped`

const maskedMembersSQL = groupedSQL + `
SELECT a.seq, a.doc
FROM spilled_alarms a
JOIN grouped g ON a.ne_key = g.ne_key AND a.raised_key = g.raised_key
WHERE g.has_clear AND g.has_active
ORDER BY a.seq`
