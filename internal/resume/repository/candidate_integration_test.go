package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentscan/talentscan-backend/internal/resume/repository"
	"github.com/talentscan/talentscan-backend/pkg/errors"
	"github.com/talentscan/talentscan-backend/pkg/testutil"
)

func TestMain(m *testing.M) {
	code := m.Run()
	testutil.TerminateContainer(context.Background())
	os.Exit(code)
}

func setupIntegration(t *testing.T) *repository.CandidateRepository {
	t.Helper()
	suite := testutil.NewIntegrationSuite(t)
	repo := repository.NewCandidateRepository(suite.DB)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	suite.Truncate(t, "candidates")
	return repo
}

func TestCandidateRepository_Integration_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := setupIntegration(t)
	f := testutil.NewFixtureFactory()

	c := f.Candidate()
	require.NoError(t, repo.Insert(ctx, c))
	assert.NotZero(t, c.ID)

	got, err := repo.FindByEmail(ctx, c.Email)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.College, got.College)

	got.College = "PSG College"
	got.LastUpdated = got.LastUpdated.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, got))

	byPhone, err := repo.FindByPhone(ctx, c.Phone)
	require.NoError(t, err)
	assert.Equal(t, "PSG College", byPhone.College)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCandidateRepository_Integration_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := setupIntegration(t)
	f := testutil.NewFixtureFactory()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		c := f.Candidate()
		c.LastUpdated = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Insert(ctx, c))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].LastUpdated.After(list[1].LastUpdated))
	assert.True(t, list[1].LastUpdated.After(list[2].LastUpdated))
}

func TestCandidateRepository_Integration_SentinelEmailsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	repo := setupIntegration(t)
	f := testutil.NewFixtureFactory()

	require.NoError(t, repo.Insert(ctx, f.Candidate(testutil.WithEmail("Not Specified"))))
	require.NoError(t, repo.Insert(ctx, f.Candidate(testutil.WithEmail("Not Specified"))))

	err := repo.Insert(ctx, f.Candidate(testutil.WithEmail("candidate1@example.com")))
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestCandidateRepository_Integration_IdentityLockSerializes(t *testing.T) {
	ctx := context.Background()
	repo := setupIntegration(t)
	f := testutil.NewFixtureFactory()

	const writers = 8
	template := f.Candidate()

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := *template
			errs <- repo.WithIdentityLock(ctx, c.IdentityKeys(), func(q repository.Candidates) error {
				existing, err := q.FindByEmail(ctx, c.Email)
				if errors.Is(err, errors.ErrNotFound) {
					return q.Insert(ctx, &c)
				}
				if err != nil {
					return err
				}
				existing.ReplaceFrom(&c)
				return q.Update(ctx, existing)
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
