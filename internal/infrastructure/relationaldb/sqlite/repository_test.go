package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/mocks"
	"github.com/ersonp/provpack/internal/domain/services"
	"github.com/ersonp/provpack/internal/infrastructure/config"
)

// setupTestRepo creates an in-memory SQLite repository for testing.
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	err = repo.EnsureSchema(context.Background())
	require.NoError(t, err)

	return repo
}

func buildCase(t *testing.T, prefix string) *entities.Case {
	t.Helper()
	b := services.NewCaseBuilder(services.WithIDGenerator(mocks.SequentialIDs(prefix)))
	x := mocks.MeyerExtraction()
	x.Parents = &entities.Parents{Father: "Lourens Meyer"}
	c, err := b.Build(mocks.MeyerPacketID, x)
	require.NoError(t, err)
	return c
}

// stepClock makes timeNow return strictly increasing times.
func stepClock(t *testing.T) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	orig := timeNow
	timeNow = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	t.Cleanup(func() { timeNow = orig })
}

func TestNewRepository(t *testing.T) {
	t.Run("success with memory database", func(t *testing.T) {
		repo, err := NewRepository(config.SQLiteConfig{Path: ":memory:"})
		require.NoError(t, err)
		defer repo.Close()
		assert.NotNil(t, repo)
		assert.Equal(t, ":memory:", repo.Path())
	})

	t.Run("error with empty path", func(t *testing.T) {
		_, err := NewRepository(config.SQLiteConfig{Path: ""})
		require.Error(t, err)
	})
}

func TestRepository_EnsureSchema(t *testing.T) {
	repo := setupTestRepo(t)

	// Verify tables exist
	tables := []string{"cases", "persons", "events", "event_participants", "relationships", "sources", "citations", "audit_log"}
	for _, table := range tables {
		var count int
		err := repo.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestRepository_EnsureSchema_Idempotent(t *testing.T) {
	repo := setupTestRepo(t)

	// Should not error when called again
	err := repo.EnsureSchema(context.Background())
	require.NoError(t, err)
}

func TestRepository_CreateAndFindCase(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	c := buildCase(t, "a")

	require.NoError(t, repo.CreateCase(ctx, c))

	found, err := repo.FindCase(ctx, c.CaseID)
	require.NoError(t, err)
	assert.Equal(t, c, found)
	assert.NoError(t, found.CheckReferences())

	t.Run("vitals", func(t *testing.T) {
		d := found.Deceased()
		require.NotNil(t, d)
		require.NotNil(t, d.Death)
		assert.Equal(t, "1960-04-09", d.Death.Date)
		assert.Nil(t, d.Birth)
	})
}

func TestRepository_FindCase_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.FindCase(context.Background(), "missing")
	assert.True(t, errors.Is(err, entities.ErrCaseNotFound))
}

func TestRepository_CreateCase_Atomic(t *testing.T) {
	ctx := context.Background()

	t.Run("dangling relationship rolls back", func(t *testing.T) {
		repo := setupTestRepo(t)
		c := buildCase(t, "b")
		c.Relationships[0].To = "ghost"

		err := repo.CreateCase(ctx, c)
		require.Error(t, err)
		assert.True(t, errors.Is(err, entities.ErrPersistence))

		_, err = repo.FindCase(ctx, c.CaseID)
		assert.True(t, errors.Is(err, entities.ErrCaseNotFound))

		var persons int
		require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM persons`).Scan(&persons))
		assert.Zero(t, persons)
	})

	t.Run("duplicate case leaves original intact", func(t *testing.T) {
		repo := setupTestRepo(t)
		c := buildCase(t, "c")
		require.NoError(t, repo.CreateCase(ctx, c))

		err := repo.CreateCase(ctx, c)
		var pe *entities.PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, c.CaseID, pe.CaseID)

		found, err := repo.FindCase(ctx, c.CaseID)
		require.NoError(t, err)
		assert.Equal(t, c, found)
	})

	t.Run("confidence out of range rejected", func(t *testing.T) {
		repo := setupTestRepo(t)
		c := buildCase(t, "d")
		c.Citations[4].Confidence = 1.5

		assert.True(t, errors.Is(repo.CreateCase(ctx, c), entities.ErrPersistence))
		_, err := repo.FindCase(ctx, c.CaseID)
		assert.True(t, errors.Is(err, entities.ErrCaseNotFound))
	})
}

func TestRepository_CreateCase_RollbackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepositoryFromDB(db)

	c := buildCase(t, "e")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cases").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO persons").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO persons").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = repo.CreateCase(context.Background(), c)
	require.Error(t, err)

	var pe *entities.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "inserting persons of", pe.Op)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateCase_CommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepositoryFromDB(db)

	c := &entities.Case{
		CaseID:   "case-1",
		PacketID: mocks.MeyerPacketID,
		Persons:  []entities.Person{{ID: "p-1", PrimaryName: "Meyer", Gender: entities.GenderUnknown}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cases").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO persons").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err = repo.CreateCase(context.Background(), c)
	assert.True(t, errors.Is(err, entities.ErrPersistence))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateCase_BeginFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	err = NewRepositoryFromDB(db).CreateCase(context.Background(), &entities.Case{CaseID: "x"})
	assert.True(t, errors.Is(err, entities.ErrPersistence))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListCases(t *testing.T) {
	stepClock(t)
	repo := setupTestRepo(t)
	ctx := context.Background()

	first := buildCase(t, "f")
	second := buildCase(t, "g")
	require.NoError(t, repo.CreateCase(ctx, first))
	require.NoError(t, repo.CreateCase(ctx, second))

	all, err := repo.ListCases(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.CaseID, all[0].CaseID)
	assert.Equal(t, first.CaseID, all[1].CaseID)
	assert.Equal(t, "Esaias Engelbertus Meyer", all[0].DeceasedName)
	assert.Equal(t, 8, all[0].PersonCount)

	page, err := repo.ListCases(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.CaseID, page[0].CaseID)

	empty, err := repo.ListCases(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepository_AuditLog(t *testing.T) {
	stepClock(t)
	repo := setupTestRepo(t)
	ctx := context.Background()

	t.Run("log and find", func(t *testing.T) {
		err := repo.LogAction(ctx, entities.ActionCaseApproved, "case-1", map[string]any{
			"packetId": mocks.MeyerPacketID,
		})
		require.NoError(t, err)
		require.NoError(t, repo.LogAction(ctx, entities.ActionCaseExported, "case-1", nil))
		require.NoError(t, repo.LogAction(ctx, entities.ActionCaseApproved, "case-2", nil))

		entries, err := repo.FindAuditLog(ctx, "case-1")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, entities.ActionCaseExported, entries[0].Action)
		assert.Equal(t, entities.ActionCaseApproved, entries[1].Action)
		assert.Equal(t, mocks.MeyerPacketID, entries[1].Details["packetId"])
		assert.Nil(t, entries[0].Details)
	})

	t.Run("find by action", func(t *testing.T) {
		entries, err := repo.FindAuditLogByAction(ctx, entities.ActionCaseApproved, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "case-2", entries[0].CaseID)
	})

	t.Run("unknown case", func(t *testing.T) {
		entries, err := repo.FindAuditLog(ctx, "none")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
