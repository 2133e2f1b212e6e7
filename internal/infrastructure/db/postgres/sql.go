package postgres

const eventColumns = `
id, organizer_id, name, description, location, image_ids,
join_code, start_at, end_at, kind, phase,
cancelled_at, created_at, updated_at
`

const insertEventSQL = `
INSERT INTO events (
  id, organizer_id, name, description, location, image_ids,
  join_code, start_at, end_at, kind, phase,
  cancelled_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7,$8,$9,$10,$11,$12,$13,$14)
`

const getEventSQL = `
SELECT ` + eventColumns + `
FROM events WHERE id = $1
`

const getEventByJoinCodeSQL = `
SELECT ` + eventColumns + `
FROM events WHERE join_code = $1
`

const joinCodeExistsSQL = `
SELECT EXISTS(SELECT 1 FROM events WHERE join_code = $1)
`

const updateEventSQL = `
UPDATE events SET
  name=$2, description=$3, location=$4, image_ids=$5::jsonb,
  start_at=$6, end_at=$7, kind=$8, phase=$9,
  cancelled_at=$10, updated_at=$11
WHERE id=$1
`

// The phase guard lives in the statement itself so a lazy sync racing a
// cancellation is a no-op instead of an overwrite.
const updatePhaseSQL = `
UPDATE events SET phase=$2, updated_at=$3
WHERE id=$1 AND phase <> 'cancelled'
`

const selectEventForUpdateSQL = `
SELECT ` + eventColumns + `
FROM events WHERE id = $1
FOR UPDATE
`

const deleteEventSQL = `
DELETE FROM events WHERE id = $1
`

const insertMembershipSQL = `
INSERT INTO memberships (event_id, user_id, role, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (event_id, user_id) DO NOTHING
`

const getMembershipSQL = `
SELECT event_id, user_id, role, created_at
FROM memberships WHERE event_id = $1 AND user_id = $2
`

const listMembershipsSQL = `
SELECT event_id, user_id, role, created_at
FROM memberships WHERE event_id = $1
ORDER BY created_at ASC, user_id ASC
`

const deleteMembershipsSQL = `
DELETE FROM memberships WHERE event_id = $1
`
