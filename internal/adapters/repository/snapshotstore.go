package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/tipset/internal/domain/leaderboard"
	"github.com/okian/tipset/internal/domain/report"
	"github.com/okian/tipset/pkg/metrics"
)

const defaultMaxLimit = 1000

// Snapshot is an immutable published report. Readers hold on to the
// pointer; publishers never mutate it.
type Snapshot struct {
	Version     uint64
	PublishedAt time.Time
	Report      *report.Report

	byParticipant map[string]int
}

// SnapshotStore swaps whole snapshots behind an atomic pointer so reads
// never block on a refresh.
type SnapshotStore struct {
	snapshot atomic.Pointer[Snapshot]

	mu       sync.Mutex // serializes publishers
	version  uint64
	now      func() time.Time
	maxLimit int
}

var _ Store = (*SnapshotStore)(nil)

// NewSnapshotStore creates an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{now: time.Now, maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish implements Store.
func (s *SnapshotStore) Publish(ctx context.Context, r *report.Report) uint64 {
	idx := make(map[string]int, len(r.Leaderboard))
	for i, e := range r.Leaderboard {
		idx[e.Participant] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	snap := &Snapshot{
		Version:       s.version,
		PublishedAt:   s.now(),
		Report:        r,
		byParticipant: idx,
	}
	s.snapshot.Store(snap)
	metrics.UpdateSnapshot(snap.Version, snap.PublishedAt.Unix())
	return snap.Version
}

// Latest implements Store.
func (s *SnapshotStore) Latest(ctx context.Context) (*Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Version returns the current version, zero before the first publish.
func (s *SnapshotStore) Version() uint64 {
	if snap := s.snapshot.Load(); snap != nil {
		return snap.Version
	}
	return 0
}

// Rank implements Store.
func (s *SnapshotStore) Rank(ctx context.Context, participant string) (leaderboard.Entry, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return leaderboard.Entry{}, ErrNoSnapshot
	}
	return snap.Rank(participant)
}

// TopN implements Store.
func (s *SnapshotStore) TopN(ctx context.Context, n int) (leaderboard.Leaderboard, error) {
	if err := s.CheckLimit(n); err != nil {
		return nil, err
	}
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap.Top(n)
}

// CheckLimit validates a leaderboard page size.
func (s *SnapshotStore) CheckLimit(n int) error {
	if n <= 0 || n > s.maxLimit {
		return fmt.Errorf("limit %d outside 1..%d: %w", n, s.maxLimit, ErrInvalidLimit)
	}
	return nil
}

// Count implements Store.
func (s *SnapshotStore) Count(ctx context.Context) int {
	snap := s.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.Report.Predictions)
}

// Rank returns the participant's leaderboard entry in this snapshot.
func (snap *Snapshot) Rank(participant string) (leaderboard.Entry, error) {
	if err := snap.scored(); err != nil {
		return leaderboard.Entry{}, err
	}
	i, ok := snap.byParticipant[participant]
	if !ok {
		return leaderboard.Entry{}, fmt.Errorf("%q: %w", participant, ErrNotFound)
	}
	return snap.Report.Leaderboard[i], nil
}

// Top returns the first n leaderboard entries of this snapshot.
func (snap *Snapshot) Top(n int) (leaderboard.Leaderboard, error) {
	if err := snap.scored(); err != nil {
		return nil, err
	}
	return snap.Report.Leaderboard.Top(n), nil
}

func (snap *Snapshot) scored() error {
	if !snap.Report.Scored() {
		return fmt.Errorf("%s: %w", snap.Report.ScoringUnavailable, ErrScoringUnavailable)
	}
	return nil
}
