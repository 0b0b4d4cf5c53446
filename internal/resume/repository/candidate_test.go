package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/internal/resume/repository"
	"github.com/talentscan/talentscan-backend/pkg/database"
	"github.com/talentscan/talentscan-backend/pkg/errors"
	"github.com/talentscan/talentscan-backend/pkg/logger"
	"github.com/talentscan/talentscan-backend/pkg/testutil"
)

var columns = []string{
	"id", "filename", "name", "email", "phone", "college", "degree", "department",
	"state", "district", "year_passing", "updated_at",
}

func newRepo(t *testing.T) (*repository.CandidateRepository, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	return repository.NewCandidateRepository(database.Wrap(mockDB.DB, logger.Nop())), mockDB
}

func row(c *domain.CandidateRecord) *sqlmock.Rows {
	return testutil.MockRows(columns...).AddRow(
		c.ID, c.SourceFilename, c.Name, c.Email, c.Phone, c.College, c.Degree, c.Department,
		c.State, c.District, c.YearPassing, c.LastUpdated,
	)
}

func TestCandidateRepository_FindByEmail(t *testing.T) {
	repo, mockDB := newRepo(t)
	stored := testutil.NewFixtureFactory().Candidate()
	stored.ID = 3

	mockDB.ExpectQuery("FROM candidates").
		WithArgs(stored.Email).
		WillReturnRows(row(stored))

	got, err := repo.FindByEmail(context.Background(), stored.Email)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, stored.Name, got.Name)
	assert.Equal(t, stored.SourceFilename, got.SourceFilename)
	mockDB.ExpectationsWereMet(t)
}

func TestCandidateRepository_FindByPhone_NotFound(t *testing.T) {
	repo, mockDB := newRepo(t)

	mockDB.ExpectQuery("WHERE phone = $1").
		WithArgs("9876543210").
		WillReturnRows(testutil.MockRows(columns...))

	got, err := repo.FindByPhone(context.Background(), "9876543210")
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestCandidateRepository_Insert(t *testing.T) {
	repo, mockDB := newRepo(t)
	c := testutil.NewFixtureFactory().Candidate()

	mockDB.ExpectQuery("INSERT INTO candidates").
		WithArgs(c.SourceFilename, c.Name, c.Email, c.Phone, c.College, c.Degree, c.Department,
			c.State, c.District, c.YearPassing, testutil.AnyTime{}).
		WillReturnRows(testutil.MockRows("id").AddRow(42))

	require.NoError(t, repo.Insert(context.Background(), c))
	assert.Equal(t, int64(42), c.ID)
	mockDB.ExpectationsWereMet(t)
}

func TestCandidateRepository_Insert_DuplicateEmail(t *testing.T) {
	repo, mockDB := newRepo(t)
	c := testutil.NewFixtureFactory().Candidate()

	mockDB.ExpectQuery("INSERT INTO candidates").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_candidates_email"})

	err := repo.Insert(context.Background(), c)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Contains(t, appErr.Message, "email")
}

func TestCandidateRepository_Update_Missing(t *testing.T) {
	repo, mockDB := newRepo(t)
	c := testutil.NewFixtureFactory().Candidate()
	c.ID = 99

	mockDB.ExpectExec("UPDATE candidates").
		WithArgs(int64(99), c.SourceFilename, c.Name, c.Email, c.Phone, c.College, c.Degree, c.Department,
			c.State, c.District, c.YearPassing, testutil.AnyTime{}).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), c)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestCandidateRepository_WithIdentityLock(t *testing.T) {
	repo, mockDB := newRepo(t)
	c := testutil.NewFixtureFactory().Candidate()

	mockDB.ExpectIdentityLock(c.IdentityKeys()...)
	mockDB.ExpectQuery("WHERE email = $1").
		WithArgs(c.Email).
		WillReturnRows(testutil.MockRows(columns...))
	mockDB.ExpectQuery("INSERT INTO candidates").
		WillReturnRows(testutil.MockRows("id").AddRow(1))
	mockDB.Mock.ExpectCommit()

	err := repo.WithIdentityLock(context.Background(), c.IdentityKeys(), func(q repository.Candidates) error {
		_, err := q.FindByEmail(context.Background(), c.Email)
		if !errors.Is(err, errors.ErrNotFound) {
			return err
		}
		return q.Insert(context.Background(), c)
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
	mockDB.ExpectationsWereMet(t)
}

func TestCandidateRepository_WithIdentityLock_RollsBack(t *testing.T) {
	repo, mockDB := newRepo(t)
	c := testutil.NewFixtureFactory().Candidate()

	mockDB.ExpectIdentityLock(c.IdentityKeys()...)
	mockDB.ExpectQuery("INSERT INTO candidates").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_candidates_email"})
	mockDB.Mock.ExpectRollback()

	err := repo.WithIdentityLock(context.Background(), c.IdentityKeys(), func(q repository.Candidates) error {
		return q.Insert(context.Background(), c)
	})

	assert.True(t, errors.Is(err, errors.ErrConflict))
	mockDB.ExpectationsWereMet(t)
}

func TestCandidateRepository_List(t *testing.T) {
	repo, mockDB := newRepo(t)
	f := testutil.NewFixtureFactory()
	newer, older := f.Candidate(), f.Candidate()
	newer.ID, older.ID = 2, 1
	newer.LastUpdated = older.LastUpdated.Add(time.Hour)

	rows := testutil.MockRows(columns...)
	for _, c := range []*domain.CandidateRecord{newer, older} {
		rows.AddRow(c.ID, c.SourceFilename, c.Name, c.Email, c.Phone, c.College, c.Degree, c.Department,
			c.State, c.District, c.YearPassing, c.LastUpdated)
	}
	mockDB.ExpectQuery("ORDER BY updated_at DESC").WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)
	mockDB.ExpectationsWereMet(t)
}

func TestCandidateRepository_List_Empty(t *testing.T) {
	repo, mockDB := newRepo(t)
	mockDB.ExpectQuery("FROM candidates").WillReturnRows(testutil.MockRows(columns...))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCandidateRepository_Count(t *testing.T) {
	repo, mockDB := newRepo(t)
	mockDB.ExpectQuery("SELECT COUNT(*) FROM candidates").
		WillReturnRows(testutil.MockRows("count").AddRow(5))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
