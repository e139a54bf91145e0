// Package delivery keeps track of which finished scans owe their requester a
// report and sends those reports by mail, optionally archiving a copy in
// object storage.
package delivery

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/anstrom/scanbridge/internal/db"
)

// DefaultObligationTTL bounds how long an obligation waits for its task.
const DefaultObligationTTL = 7 * 24 * time.Hour

// Obligation records that the report of TaskID must be mailed to Recipient
// once the task is done.
type Obligation struct {
	TaskID    string
	Recipient string
	CreatedAt time.Time
}

// Store holds delivery obligations. Take is the only way to consume an
// obligation and must be atomic: of any number of concurrent callers for the
// same task, at most one gets ok == true.
type Store interface {
	Put(ctx context.Context, o Obligation) error
	Take(ctx context.Context, taskID string) (o Obligation, ok bool, err error)
	Sweep(ctx context.Context) (int, error)
	Len(ctx context.Context) (int, error)
}

// MemoryStore keeps obligations in process memory. They do not survive a
// restart.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]Obligation
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates an in-memory store whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultObligationTTL
	}
	return &MemoryStore{
		items: make(map[string]Obligation),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put records o, replacing any obligation already held for the task.
func (s *MemoryStore) Put(_ context.Context, o Obligation) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	s.mu.Lock()
	s.items[o.TaskID] = o
	s.mu.Unlock()
	return nil
}

// Take removes and returns the obligation for taskID. Expired entries are
// removed but not returned.
func (s *MemoryStore) Take(_ context.Context, taskID string) (Obligation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.items[taskID]
	if !ok {
		return Obligation{}, false, nil
	}
	delete(s.items, taskID)
	if s.expired(o) {
		return Obligation{}, false, nil
	}
	return o, true, nil
}

// Sweep drops expired obligations and returns how many were removed.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, o := range s.items {
		if s.expired(o) {
			delete(s.items, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of held obligations, expired ones included.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

func (s *MemoryStore) expired(o Obligation) bool {
	return s.now().Sub(o.CreatedAt) > s.ttl
}

// PostgresStore keeps obligations in the delivery_obligations table so they
// survive restarts and can be shared by several instances.
type PostgresStore struct {
	repo *db.ObligationRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewPostgresStore creates a store over an open database handle.
func NewPostgresStore(database *sqlx.DB, ttl time.Duration) *PostgresStore {
	if ttl <= 0 {
		ttl = DefaultObligationTTL
	}
	return &PostgresStore{
		repo: db.NewObligationRepository(database),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put records o, replacing any obligation already held for the task.
func (s *PostgresStore) Put(ctx context.Context, o Obligation) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	return s.repo.Upsert(ctx, db.Obligation{
		TaskID:    o.TaskID,
		Recipient: o.Recipient,
		CreatedAt: o.CreatedAt.UTC(),
	})
}

// Take deletes and returns the unexpired obligation for taskID.
func (s *PostgresStore) Take(ctx context.Context, taskID string) (Obligation, bool, error) {
	row, err := s.repo.Take(ctx, taskID, s.now().Add(-s.ttl).UTC())
	if err != nil {
		if stderrors.Is(err, db.ErrNoRows) {
			return Obligation{}, false, nil
		}
		return Obligation{}, false, err
	}
	return Obligation{TaskID: row.TaskID, Recipient: row.Recipient, CreatedAt: row.CreatedAt}, true, nil
}

// Sweep deletes expired obligations and returns how many were removed.
func (s *PostgresStore) Sweep(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteOlderThan(ctx, s.now().Add(-s.ttl).UTC())
	return int(n), err
}

// Len returns the number of stored obligations.
func (s *PostgresStore) Len(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
