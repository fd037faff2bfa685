package matchsrvc

import (
	"context"

	"github.com/codeclash/backend/fairplay"
	"github.com/google/uuid"
)

// MatchRepo is the persistence capability of the judging pipeline.
// Everything except Finalize touches append-only or single-owner state;
// Finalize is the only multi-row atomic transaction.
type MatchRepo interface {
	GetMatch(ctx context.Context, matchUUID uuid.UUID) (Match, error)
	ListCompetitors(ctx context.Context, matchUUID uuid.UUID) ([]Competitor, error)

	GetSubmission(ctx context.Context, submUUID uuid.UUID) (Submission, error)
	ListMatchSubmissions(ctx context.Context, matchUUID uuid.UUID) ([]Submission, error)
	StoreSubmission(ctx context.Context, subm Submission) error

	// StoreJudgedResult persists the verdict, execution statistics and
	// integrity score produced by the judging worker onto the submission.
	StoreJudgedResult(ctx context.Context, submUUID uuid.UUID, verdict Verdict, stats ExecStats, integrity float64) error

	StorePasteEvents(ctx context.Context, events []fairplay.PasteEvent) error
	ListPasteEvents(ctx context.Context, submUUID uuid.UUID) ([]fairplay.PasteEvent, error)

	GetJudgment(ctx context.Context, matchUUID uuid.UUID) (Judgment, error)

	// Finalize applies the record as one atomic unit, but only if the
	// match is still active: the status flip doubles as a compare-and-swap
	// lock. Returns false with no side effects when the match has already
	// left the active state.
	Finalize(ctx context.Context, rec FinalizeRecord) (bool, error)
}
