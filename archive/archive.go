package archive

import (
	"context"

	"github.com/codeclash/backend/matchsrvc"
	"github.com/google/uuid"
)

// Record is the immutable snapshot of a finalized match kept for the
// long term. Matches are never deleted from hot storage, but once
// completed they are archived here as well.
type Record struct {
	Match       matchsrvc.Match        `json:"match"`
	Competitors []matchsrvc.Competitor `json:"competitors"`
	Judgment    matchsrvc.Judgment     `json:"judgment"`
}

type MatchArchive interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, matchUUID uuid.UUID) (Record, error)
}
