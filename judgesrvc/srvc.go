package judgesrvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeclash/backend/fairplay"
	"github.com/codeclash/backend/feed"
	"github.com/codeclash/backend/judgequeue"
	"github.com/codeclash/backend/matchsrvc"
	"github.com/google/uuid"
)

// PasteObservation is the intake-side report of one bulk paste that the
// client editor observed while the solution was written.
type PasteObservation struct {
	ByteSize int
	Source   string
}

// JudgeSrvc is the intake/read facade over the judging pipeline: it
// accepts solutions, puts judge jobs on the queue, and exposes judgments
// and live updates. The heavy lifting happens in Worker and Finalizer.
type JudgeSrvc struct {
	logger *slog.Logger
	repo   matchsrvc.MatchRepo
	queue  judgequeue.JobQueue
	bus    *feed.Bus
}

func NewJudgeSrvc(repo matchsrvc.MatchRepo, queue judgequeue.JobQueue, bus *feed.Bus) *JudgeSrvc {
	return &JudgeSrvc{
		logger: slog.Default().With("module", "judgesrvc"),
		repo:   repo,
		queue:  queue,
		bus:    bus,
	}
}

// SubmitSolution stores a new pending submission with its paste events
// and enqueues the judge job for it. The competitor must belong to the
// match and to the submitting user.
func (s *JudgeSrvc) SubmitSolution(
	ctx context.Context,
	matchUUID uuid.UUID,
	competitorUUID uuid.UUID,
	userUUID uuid.UUID,
	code string,
	langID string,
	pastes []PasteObservation,
) (matchsrvc.Submission, error) {
	match, err := s.repo.GetMatch(ctx, matchUUID)
	if err != nil {
		return matchsrvc.Submission{}, err
	}
	if match.Status != matchsrvc.StatusActive && match.Status != matchsrvc.StatusPending {
		return matchsrvc.Submission{}, matchsrvc.ErrMatchNotOpen()
	}

	competitors, err := s.repo.ListCompetitors(ctx, matchUUID)
	if err != nil {
		return matchsrvc.Submission{}, fmt.Errorf("failed to list competitors: %w", err)
	}
	found := false
	for _, c := range competitors {
		if c.UUID != competitorUUID {
			continue
		}
		if c.UserUUID != userUUID {
			return matchsrvc.Submission{}, matchsrvc.ErrCompetitorUserMismatch()
		}
		found = true
		break
	}
	if !found {
		return matchsrvc.Submission{}, matchsrvc.ErrCompetitorNotFound()
	}

	submUUID, err := uuid.NewV7()
	if err != nil {
		return matchsrvc.Submission{}, fmt.Errorf("failed to generate UUID: %w", err)
	}

	now := time.Now()
	subm := matchsrvc.Submission{
		UUID:           submUUID,
		MatchUUID:      matchUUID,
		CompetitorUUID: competitorUUID,
		Code:           code,
		LangID:         langID,
		Verdict:        matchsrvc.VerdictPending,
		CreatedAt:      now,
	}
	if err := s.repo.StoreSubmission(ctx, subm); err != nil {
		return matchsrvc.Submission{}, fmt.Errorf("failed to store submission: %w", err)
	}

	if len(pastes) > 0 {
		events := make([]fairplay.PasteEvent, len(pastes))
		for i, p := range pastes {
			events[i] = fairplay.NewPasteEvent(submUUID, p.ByteSize, p.Source, now)
		}
		if err := s.repo.StorePasteEvents(ctx, events); err != nil {
			return matchsrvc.Submission{}, fmt.Errorf("failed to store paste events: %w", err)
		}
	}

	job := judgequeue.JudgeJob{
		SubmUUID:       submUUID,
		MatchUUID:      matchUUID,
		CompetitorUUID: competitorUUID,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return matchsrvc.Submission{}, fmt.Errorf("failed to enqueue judge job: %w", err)
	}

	s.logger.Info("solution submitted",
		"subm_uuid", submUUID,
		"match_uuid", matchUUID,
		"competitor_uuid", competitorUUID,
	)
	return subm, nil
}

func (s *JudgeSrvc) GetSubmission(ctx context.Context, submUUID uuid.UUID) (matchsrvc.Submission, error) {
	return s.repo.GetSubmission(ctx, submUUID)
}

func (s *JudgeSrvc) GetJudgment(ctx context.Context, matchUUID uuid.UUID) (matchsrvc.Judgment, error) {
	return s.repo.GetJudgment(ctx, matchUUID)
}

// Listen subscribes to judged-submission and match-finalized updates.
func (s *JudgeSrvc) Listen() (<-chan feed.Event, func()) {
	return s.bus.Subscribe()
}
