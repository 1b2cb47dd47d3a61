// Package repository holds the published report snapshots.
package repository

import (
	"context"

	"github.com/okian/tipset/internal/domain/leaderboard"
	"github.com/okian/tipset/internal/domain/report"
)

// Store provides read/write access to the latest report.
type Store interface {
	// Publish replaces the current report and returns its version.
	Publish(ctx context.Context, r *report.Report) uint64

	// Latest returns the current snapshot or ErrNoSnapshot.
	Latest(ctx context.Context) (*Snapshot, error)

	// Rank returns a participant's leaderboard entry.
	// Returns ErrNotFound if the participant is unknown.
	Rank(ctx context.Context, participant string) (leaderboard.Entry, error)

	// TopN returns the first n leaderboard entries.
	TopN(ctx context.Context, n int) (leaderboard.Leaderboard, error)

	// Count returns the number of participants in the current report.
	Count(ctx context.Context) int
}
