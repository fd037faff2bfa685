package matchsrvc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/codeclash/backend/rating"
	"github.com/google/uuid"
)

// sentinel finishing time for competitors without a passing submission,
// strictly later than any real submission timestamp
var neverPassed = time.Unix(1<<40, 0)

// Finalizer decides whether a match is ready to close and, if so,
// computes final placements, ratings and rewards, and commits them as a
// single transaction. TryFinalize is safe to call redundantly and
// concurrently: the repo's status compare-and-swap guarantees the
// active -> completed transition happens at most once per match.
type Finalizer struct {
	logger *slog.Logger
	repo   MatchRepo
	now    func() time.Time
}

func NewFinalizer(repo MatchRepo) *Finalizer {
	return &Finalizer{
		logger: slog.Default().With("module", "finalizer"),
		repo:   repo,
		now:    time.Now,
	}
}

// NewFinalizerWithClock is used by tests to control the readiness clock.
func NewFinalizerWithClock(repo MatchRepo, now func() time.Time) *Finalizer {
	f := NewFinalizer(repo)
	f.now = now
	return f
}

// TryFinalize re-evaluates readiness from persisted state and closes the
// match if every competitor has a passing submission or the deadline has
// elapsed. Returns false for a match that is not ready or that some
// concurrent caller already transitioned; callers must treat false as a
// successful no-op.
func (f *Finalizer) TryFinalize(ctx context.Context, matchUUID uuid.UUID) (bool, error) {
	match, err := f.repo.GetMatch(ctx, matchUUID)
	if err != nil {
		return false, fmt.Errorf("failed to load match %s: %w", matchUUID, err)
	}
	if match.Status != StatusActive {
		return false, nil
	}

	competitors, err := f.repo.ListCompetitors(ctx, matchUUID)
	if err != nil {
		return false, fmt.Errorf("failed to list competitors: %w", err)
	}
	subms, err := f.repo.ListMatchSubmissions(ctx, matchUUID)
	if err != nil {
		return false, fmt.Errorf("failed to list submissions: %w", err)
	}

	standings := computeStandings(competitors, subms)

	allPassed := true
	for _, s := range standings {
		if s.passedAt.Equal(neverPassed) {
			allPassed = false
			break
		}
	}
	deadlineOver := f.now().After(match.Deadline())
	if !allPassed && !deadlineOver {
		return false, nil
	}

	rec, err := f.buildRecord(match, standings, subms)
	if err != nil {
		return false, err
	}

	won, err := f.repo.Finalize(ctx, rec)
	if err != nil {
		return false, fmt.Errorf("finalization transaction failed: %w", err)
	}
	if !won {
		// a concurrent worker beat us to the status flip
		f.logger.Debug("match already finalized", "match_uuid", matchUUID)
		return false, nil
	}

	f.logger.Info("match finalized",
		"match_uuid", matchUUID,
		"competitors", len(rec.Competitors),
	)
	return true, nil
}

// standing pairs a competitor with their earliest passing submission
// timestamp (or the sentinel) and their final verdict.
type standing struct {
	competitor Competitor
	passedAt   time.Time
	outcome    Verdict
}

func computeStandings(competitors []Competitor, subms []Submission) []standing {
	standings := make([]standing, 0, len(competitors))
	for _, c := range competitors {
		s := standing{competitor: c, passedAt: neverPassed, outcome: VerdictFailed}
		for _, subm := range subms {
			if subm.CompetitorUUID != c.UUID {
				continue
			}
			switch subm.Verdict {
			case VerdictPassed:
				if subm.CreatedAt.Before(s.passedAt) {
					s.passedAt = subm.CreatedAt
				}
				s.outcome = VerdictPassed
			case VerdictDisqualified:
				if s.outcome != VerdictPassed {
					s.outcome = VerdictDisqualified
				}
			}
		}
		standings = append(standings, s)
	}

	// earliest passing submission first; equal timestamps fall back to
	// competitor uuid so the order is deterministic
	sort.Slice(standings, func(i, j int) bool {
		ti, tj := standings[i].passedAt, standings[j].passedAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		ui := standings[i].competitor.UUID.String()
		uj := standings[j].competitor.UUID.String()
		return ui < uj
	})
	return standings
}

func (f *Finalizer) buildRecord(match Match, standings []standing, subms []Submission) (FinalizeRecord, error) {
	ratings := make([]int, len(standings))
	placements := make([]int, len(standings))
	for i, s := range standings {
		ratings[i] = s.competitor.RatingBefore
		placements[i] = i + 1
	}

	newRatings, deltas, err := rating.ComputeRatings(ratings, placements)
	if err != nil {
		return FinalizeRecord{}, fmt.Errorf("rating computation failed: %w", err)
	}

	finals := make([]FinalCompetitor, len(standings))
	for i, s := range standings {
		finals[i] = FinalCompetitor{
			CompetitorUUID: s.competitor.UUID,
			UserUUID:       s.competitor.UserUUID,
			Placement:      placements[i],
			RatingBefore:   ratings[i],
			RatingAfter:    newRatings[i],
			RatingDelta:    deltas[i],
			RewardPoints:   rating.RewardFor(placements[i]),
			Outcome:        s.outcome,
		}
	}

	endedAt := f.now()
	return FinalizeRecord{
		MatchUUID:   match.UUID,
		EndedAt:     endedAt,
		Competitors: finals,
		Judgment:    buildJudgment(match.UUID, standings, finals, subms, endedAt),
	}, nil
}
