package service

import (
	"context"
	"time"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/internal/resume/repository"
	"github.com/talentscan/talentscan-backend/pkg/errors"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

// CandidateStore serializes identity lookups and writes per identity key
type CandidateStore interface {
	WithIdentityLock(ctx context.Context, keys []string, fn func(repository.Candidates) error) error
}

// Action is what reconciliation did with a record
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Outcome describes one reconciled record
type Outcome struct {
	Action    Action                  `json:"action"`
	Candidate *domain.CandidateRecord `json:"candidate"`
}

// Reconciler matches extracted records against stored candidates and
// inserts or fully replaces them.
type Reconciler struct {
	store CandidateStore
	now   func() time.Time
	log   *logger.Logger
}

// NewReconciler creates a reconciler over the given store
func NewReconciler(store CandidateStore, log *logger.Logger) *Reconciler {
	return &Reconciler{
		store: store,
		now:   time.Now,
		log:   log.WithComponent("reconciler"),
	}
}

// Reconcile stores rec. A stored candidate with the same email, or failing
// that the same phone, is overwritten field by field, sentinels included.
// Otherwise a new candidate is inserted. rec itself is not modified.
func (r *Reconciler) Reconcile(ctx context.Context, rec *domain.CandidateRecord) (*Outcome, error) {
	incoming := *rec
	incoming.ID = 0
	incoming.Normalize()

	var outcome *Outcome
	err := r.store.WithIdentityLock(ctx, incoming.IdentityKeys(), func(q repository.Candidates) error {
		existing, err := match(ctx, q, &incoming)
		if err != nil {
			return err
		}

		if existing == nil {
			created := incoming
			created.LastUpdated = r.timestamp(time.Time{})
			if err := q.Insert(ctx, &created); err != nil {
				return err
			}
			outcome = &Outcome{Action: ActionCreated, Candidate: &created}
			return nil
		}

		previous := existing.LastUpdated
		existing.ReplaceFrom(&incoming)
		existing.LastUpdated = r.timestamp(previous)
		if err := q.Update(ctx, existing); err != nil {
			return err
		}
		outcome = &Outcome{Action: ActionUpdated, Candidate: existing}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug().
		Int64("candidate_id", outcome.Candidate.ID).
		Str("action", string(outcome.Action)).
		Str("filename", outcome.Candidate.SourceFilename).
		Msg("candidate reconciled")

	return outcome, nil
}

// match resolves the stored identity: exact email first, then exact phone
func match(ctx context.Context, q repository.Candidates, rec *domain.CandidateRecord) (*domain.CandidateRecord, error) {
	if rec.HasEmail() {
		found, err := q.FindByEmail(ctx, rec.Email)
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
	}

	if rec.HasPhone() {
		found, err := q.FindByPhone(ctx, rec.Phone)
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
	}

	return nil, nil
}

// timestamp returns the current time at storage precision, bumped past
// previous when the clock has not moved.
func (r *Reconciler) timestamp(previous time.Time) time.Time {
	ts := r.now().UTC().Truncate(time.Microsecond)
	if !ts.After(previous) {
		ts = previous.Add(time.Microsecond)
	}
	return ts
}
