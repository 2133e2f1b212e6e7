package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/event-service/internal/application/event"
	"github.com/gatherly/event-service/internal/domain"
)

func eventRows(id string, phase, kind string, start, end any) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "organizer_id", "name", "description", "location", "image_ids",
		"join_code", "start_at", "end_at", "kind", "phase",
		"cancelled_at", "created_at", "updated_at",
	}).AddRow(
		id, "user_1", "Meetup", "Desc", "Sydney", `["img-1"]`,
		"AB12CD34", start, end, kind, phase,
		nil, now, now,
	)
}

func TestRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := New(db)
	now := time.Now().UTC()
	e := &domain.Event{
		ID: "evt_1", OrganizerID: "user_1", Name: "Meetup", Description: "Desc",
		Location: "Sydney", ImageIDs: []string{"img-1"}, JoinCode: "AB12CD34",
		StartAt: now.Add(time.Hour), EndAt: now.Add(2 * time.Hour),
		Kind: domain.KindPrivate, Phase: domain.PhaseScheduled,
		CreatedAt: now, UpdatedAt: now,
	}
	owner := &domain.Membership{EventID: e.ID, UserID: "user_1", Role: domain.RoleOwner, CreatedAt: now}

	t.Run("success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO events").
			WithArgs(
				e.ID, e.OrganizerID, e.Name, e.Description, e.Location, `["img-1"]`,
				e.JoinCode, e.StartAt, e.EndAt, "private", "scheduled",
				nil, e.CreatedAt, e.UpdatedAt,
			).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO memberships").
			WithArgs(owner.EventID, owner.UserID, "owner", owner.CreatedAt).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.Create(context.Background(), e, owner)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("join code collision maps to domain error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO events").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "events_join_code_key"})
		mock.ExpectRollback()

		err := repo.Create(context.Background(), e, owner)
		assert.ErrorIs(t, err, domain.ErrJoinCodeTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other constraint violations pass through", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO events").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "events_pkey"})
		mock.ExpectRollback()

		err := repo.Create(context.Background(), e, owner)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrJoinCodeTaken)
	})
}

func TestRepo_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := New(db)

	t.Run("mapping", func(t *testing.T) {
		now := time.Now().UTC()
		mock.ExpectQuery("SELECT (.+) FROM events WHERE id =").
			WithArgs("evt_123").
			WillReturnRows(eventRows("evt_123", "scheduled", "public", now, now.Add(time.Hour)))

		ev, err := repo.GetByID(context.Background(), "evt_123")
		require.NoError(t, err)
		assert.Equal(t, "evt_123", ev.ID)
		assert.Equal(t, domain.KindPublic, ev.Kind)
		assert.Equal(t, domain.PhaseScheduled, ev.Phase)
		assert.Equal(t, []string{"img-1"}, ev.ImageIDs)
		assert.False(t, ev.StartAt.IsZero())
	})

	t.Run("null bounds map to zero times", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM events WHERE id =").
			WithArgs("evt_open").
			WillReturnRows(eventRows("evt_open", "scheduled", "private", nil, nil))

		ev, err := repo.GetByID(context.Background(), "evt_open")
		require.NoError(t, err)
		assert.True(t, ev.StartAt.IsZero())
		assert.True(t, ev.EndAt.IsZero())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT").WithArgs("none").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "none")
		var ae *domain.AppError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, domain.CodeNotFound, ae.Code)
	})
}

func TestRepo_GetByJoinCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := New(db)

	mock.ExpectQuery("SELECT (.+) FROM events WHERE join_code =").
		WithArgs("AB12CD34").
		WillReturnRows(eventRows("evt_1", "scheduled", "private", nil, nil))

	ev, err := repo.GetByJoinCode(context.Background(), "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
}

func TestRepo_UpdatePhaseIfNotCancelled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := New(db)
	at := time.Now().UTC()

	// The guard is in the SQL itself; a cancelled row simply matches nothing.
	mock.ExpectExec(`UPDATE events SET phase=(.+) WHERE id=(.+) AND phase <> 'cancelled'`).
		WithArgs("evt_1", "ongoing", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdatePhaseIfNotCancelled(context.Background(), "evt_1", domain.PhaseOngoing, at)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_JoinCodeExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := New(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("AB12CD34").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.JoinCodeExists(context.Background(), "AB12CD34")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMembershipRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMembershipRepo(db)
	now := time.Now().UTC()
	m := &domain.Membership{EventID: "evt_1", UserID: "user_2", Role: domain.RoleMember, CreatedAt: now}

	t.Run("inserts new row", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO memberships").
			WithArgs("evt_1", "user_2", "member", now).
			WillReturnResult(sqlmock.NewResult(1, 1))

		created, err := repo.Upsert(context.Background(), m)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("existing row untouched", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO memberships").
			WithArgs("evt_1", "user_2", "member", now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		created, err := repo.Upsert(context.Background(), m)
		require.NoError(t, err)
		assert.False(t, created)
	})
}

func TestMembershipRepo_HasRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMembershipRepo(db)
	now := time.Now().UTC()

	memberRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"event_id", "user_id", "role", "created_at"}).
			AddRow("evt_1", "user_2", "member", now)
	}

	t.Run("role matches", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM memberships").
			WithArgs("evt_1", "user_2").
			WillReturnRows(memberRow())

		m, err := repo.HasRole(context.Background(), "evt_1", "user_2", domain.RoleMember, domain.RoleLead)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, domain.RoleMember, m.Role)
	})

	t.Run("role does not match", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM memberships").
			WithArgs("evt_1", "user_2").
			WillReturnRows(memberRow())

		m, err := repo.HasRole(context.Background(), "evt_1", "user_2", domain.RoleOwner)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("no roles means any membership", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM memberships").
			WithArgs("evt_1", "user_2").
			WillReturnRows(memberRow())

		m, err := repo.HasRole(context.Background(), "evt_1", "user_2")
		require.NoError(t, err)
		require.NotNil(t, m)
	})

	t.Run("no membership", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM memberships").
			WithArgs("evt_1", "user_9").
			WillReturnRows(sqlmock.NewRows([]string{"event_id", "user_id", "role", "created_at"}))

		m, err := repo.HasRole(context.Background(), "evt_1", "user_9")
		require.NoError(t, err)
		assert.Nil(t, m)
	})
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FOR UPDATE").
		WithArgs("evt_1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err = repo.WithTx(context.Background(), func(tr event.TxEventRepo) error {
		_, err := tr.GetByIDForUpdate(context.Background(), "evt_1")
		return err
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
