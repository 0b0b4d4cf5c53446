package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/pkg/database"
	"github.com/talentscan/talentscan-backend/pkg/errors"
)

// Candidates is the lookup and write surface used while reconciling. It is
// served both by the repository itself and by a locked transaction.
type Candidates interface {
	FindByEmail(ctx context.Context, email string) (*domain.CandidateRecord, error)
	FindByPhone(ctx context.Context, phone string) (*domain.CandidateRecord, error)
	Insert(ctx context.Context, c *domain.CandidateRecord) error
	Update(ctx context.Context, c *domain.CandidateRecord) error
}

const candidateColumns = `id, filename, name, email, phone, college, degree, department,
	       state, district, year_passing, updated_at`

const schema = `
CREATE TABLE IF NOT EXISTS candidates (
	id           BIGSERIAL PRIMARY KEY,
	filename     TEXT NOT NULL,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT NOT NULL,
	college      TEXT NOT NULL,
	degree       TEXT NOT NULL,
	department   TEXT NOT NULL,
	state        TEXT NOT NULL,
	district     TEXT NOT NULL,
	year_passing TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_candidates_email ON candidates (email) WHERE email <> 'Not Specified';
CREATE INDEX IF NOT EXISTS idx_candidates_phone ON candidates (phone);
CREATE INDEX IF NOT EXISTS idx_candidates_updated_at ON candidates (updated_at DESC);
`

// CandidateRepository handles candidate persistence
type CandidateRepository struct {
	db *database.DB
}

// NewCandidateRepository creates a new candidate repository
func NewCandidateRepository(db *database.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// EnsureSchema creates the candidates table and its indexes if missing
func (r *CandidateRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create candidates schema: %w", err)
	}
	return nil
}

// FindByEmail returns the candidate holding the given email
func (r *CandidateRepository) FindByEmail(ctx context.Context, email string) (*domain.CandidateRecord, error) {
	return (&queries{q: r.db}).FindByEmail(ctx, email)
}

// FindByPhone returns the most recently updated candidate holding the given phone
func (r *CandidateRepository) FindByPhone(ctx context.Context, phone string) (*domain.CandidateRecord, error) {
	return (&queries{q: r.db}).FindByPhone(ctx, phone)
}

// Insert stores a new candidate and assigns its ID
func (r *CandidateRepository) Insert(ctx context.Context, c *domain.CandidateRecord) error {
	return (&queries{q: r.db}).Insert(ctx, c)
}

// Update replaces every stored column of an existing candidate
func (r *CandidateRepository) Update(ctx context.Context, c *domain.CandidateRecord) error {
	return (&queries{q: r.db}).Update(ctx, c)
}

// List returns every candidate, most recently updated first
func (r *CandidateRepository) List(ctx context.Context) ([]*domain.CandidateRecord, error) {
	query := `
		SELECT ` + candidateColumns + `
		FROM candidates
		ORDER BY updated_at DESC, id DESC
	`

	candidates := []*domain.CandidateRecord{}
	if err := r.db.SelectContext(ctx, &candidates, query); err != nil {
		return nil, err
	}
	return candidates, nil
}

// Count returns the number of stored candidates
func (r *CandidateRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM candidates`); err != nil {
		return 0, err
	}
	return total, nil
}

// WithIdentityLock runs fn in a transaction that holds an advisory lock for
// each identity key. Lookups and writes made through the Candidates handed
// to fn are serialized against any other holder of the same keys.
func (r *CandidateRepository) WithIdentityLock(ctx context.Context, keys []string, fn func(Candidates) error) error {
	return r.db.WithAdvisoryLocks(ctx, keys, func(tx *sqlx.Tx) error {
		return fn(&queries{q: tx})
	})
}

// queries binds the candidate statements to either the pool or a transaction
type queries struct {
	q sqlx.ExtContext
}

func (s *queries) FindByEmail(ctx context.Context, email string) (*domain.CandidateRecord, error) {
	query := `
		SELECT ` + candidateColumns + `
		FROM candidates
		WHERE email = $1
		LIMIT 1
	`
	return s.get(ctx, query, email)
}

func (s *queries) FindByPhone(ctx context.Context, phone string) (*domain.CandidateRecord, error) {
	query := `
		SELECT ` + candidateColumns + `
		FROM candidates
		WHERE phone = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`
	return s.get(ctx, query, phone)
}

func (s *queries) get(ctx context.Context, query string, arg string) (*domain.CandidateRecord, error) {
	var c domain.CandidateRecord
	err := sqlx.GetContext(ctx, s.q, &c, query, arg)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("candidate")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *queries) Insert(ctx context.Context, c *domain.CandidateRecord) error {
	query := `
		INSERT INTO candidates (filename, name, email, phone, college, degree, department,
		                        state, district, year_passing, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := sqlx.GetContext(ctx, s.q, &c.ID, query,
		c.SourceFilename,
		c.Name,
		c.Email,
		c.Phone,
		c.College,
		c.Degree,
		c.Department,
		c.State,
		c.District,
		c.YearPassing,
		c.LastUpdated,
	)
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

func (s *queries) Update(ctx context.Context, c *domain.CandidateRecord) error {
	query := `
		UPDATE candidates
		SET filename = $2, name = $3, email = $4, phone = $5, college = $6, degree = $7,
		    department = $8, state = $9, district = $10, year_passing = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := s.q.ExecContext(ctx, query,
		c.ID,
		c.SourceFilename,
		c.Name,
		c.Email,
		c.Phone,
		c.College,
		c.Degree,
		c.Department,
		c.State,
		c.District,
		c.YearPassing,
		c.LastUpdated,
	)
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("candidate")
	}
	return nil
}
