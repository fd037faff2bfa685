package judgesrvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/codeclash/backend/fairplay"
	"github.com/codeclash/backend/feed"
	"github.com/codeclash/backend/judgequeue"
	"github.com/codeclash/backend/logger"
	"github.com/codeclash/backend/matchsrvc"
	"github.com/codeclash/backend/srvcerror"
)

// WorkerConfig tunes the consumer pool. Zero values fall back to the
// defaults below.
type WorkerConfig struct {
	Concurrency int
	MaxAttempts int
	BackoffBase time.Duration
}

const (
	defaultConcurrency = 4
	defaultMaxAttempts = 3
	defaultBackoffBase = 2 * time.Second
)

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}
	return c
}

// Worker is the judging consumer pool. Each goroutine independently
// pulls judge jobs, runs the evaluator and the integrity scorer,
// persists the result and pokes the finalizer. Jobs for the same match
// may run in parallel; the finalizer's compare-and-swap absorbs that
// race.
type Worker struct {
	logger    *slog.Logger
	queue     judgequeue.JobQueue
	dlq       judgequeue.DeadLetter
	repo      matchsrvc.MatchRepo
	evaluator CodeEvaluator
	finalizer *matchsrvc.Finalizer
	bus       *feed.Bus
	cfg       WorkerConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(
	queue judgequeue.JobQueue,
	dlq judgequeue.DeadLetter,
	repo matchsrvc.MatchRepo,
	evaluator CodeEvaluator,
	finalizer *matchsrvc.Finalizer,
	bus *feed.Bus,
	cfg WorkerConfig,
) *Worker {
	return &Worker{
		logger:    slog.Default().With("module", "judge"),
		queue:     queue,
		dlq:       dlq,
		repo:      repo,
		evaluator: evaluator,
		finalizer: finalizer,
		bus:       bus,
		cfg:       cfg.withDefaults(),
	}
}

// Start launches the consumer goroutines. They run until Close.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.consume(ctx)
		}()
	}
	w.logger.Info("judge worker started", "concurrency", w.cfg.Concurrency)
}

// Close stops consuming and waits for in-flight jobs to finish.
func (w *Worker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("judge worker stopped")
}

func (w *Worker) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := w.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to receive judge jobs", "error", err)
			continue
		}
		for _, msg := range msgs {
			w.handle(ctx, msg)
		}
	}
}

// handle walks one job through the per-job state machine:
// dequeued -> evaluating -> persisted -> finalize-check -> ack,
// with retry and dead-letter exits along the way.
func (w *Worker) handle(ctx context.Context, msg judgequeue.JobMsg) {
	if msg.DecErr != nil {
		// never trust structure across the queue boundary
		w.deadLetter(ctx, msg, fmt.Sprintf("malformed payload: %v", msg.DecErr))
		return
	}

	job := msg.Job
	log := w.logger.With("subm_uuid", job.SubmUUID, "match_uuid", job.MatchUUID)
	ctx = logger.WithJobID(ctx, job.SubmUUID.String())

	subm, err := w.repo.GetSubmission(ctx, job.SubmUUID)
	if err != nil {
		if isSubmNotFound(err) {
			// the job references a submission that does not exist;
			// redelivery cannot help
			w.deadLetter(ctx, msg, fmt.Sprintf("submission lookup failed: %v", err))
			return
		}
		// storage blip: leave the message unacked so the queue redelivers it
		log.Error("failed to load submission", "error", err)
		return
	}

	verdict, stats, err := w.evaluateWithRetry(ctx, subm)
	if err != nil {
		if ctx.Err() != nil {
			// shutting down, not the job's fault; leave it for redelivery
			return
		}
		w.deadLetter(ctx, msg, err.Error())
		return
	}

	pasteEvents, err := w.repo.ListPasteEvents(ctx, subm.UUID)
	if err != nil {
		// leave the message unacked so the queue redelivers it
		log.Error("failed to list paste events", "error", err)
		return
	}
	integrity := fairplay.Score(len(subm.Code), pasteEvents)

	err = w.repo.StoreJudgedResult(ctx, subm.UUID, verdict, stats, integrity)
	if err != nil {
		log.Error("failed to persist judged result", "error", err)
		return
	}
	jobsProcessed.Inc()
	log.Info("submission judged", "verdict", verdict, "integrity_score", integrity)

	w.bus.Publish(feed.SubmissionJudged{
		SubmUUID:       subm.UUID,
		MatchUUID:      job.MatchUUID,
		CompetitorUUID: job.CompetitorUUID,
		Verdict:        string(verdict),
		IntegrityScore: integrity,
	})

	// advisory: safe to call redundantly from concurrent jobs
	finalized, err := w.finalizer.TryFinalize(ctx, job.MatchUUID)
	if err != nil {
		log.Error("finalize check failed", "error", err)
		return
	}
	if finalized {
		matchesFinalized.Inc()
		summary := ""
		if judgment, err := w.repo.GetJudgment(ctx, job.MatchUUID); err == nil {
			summary = judgment.Summary
		}
		w.bus.Publish(feed.MatchFinalized{
			MatchUUID: job.MatchUUID,
			Summary:   summary,
		})
	}

	w.ack(ctx, msg)
}

// evaluateWithRetry retries transient evaluator failures with
// exponential backoff up to the attempt ceiling. Fatal failures abort
// immediately.
func (w *Worker) evaluateWithRetry(ctx context.Context, subm matchsrvc.Submission) (matchsrvc.Verdict, matchsrvc.ExecStats, error) {
	var verdict matchsrvc.Verdict
	var stats matchsrvc.ExecStats

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = w.cfg.BackoffBase
	policy := backoff.WithContext(
		backoff.WithMaxRetries(expo, uint64(w.cfg.MaxAttempts-1)),
		ctx,
	)

	attempt := 0
	operation := func() error {
		attempt++
		v, s, err := w.evaluator.Evaluate(ctx, subm.Code, subm.LangID)
		if err != nil {
			if IsTransient(err) {
				jobsRetried.Inc()
				w.logger.Warn("evaluator failed, will retry",
					"subm_uuid", subm.UUID,
					"attempt", attempt,
					"error", err,
				)
				return err
			}
			return backoff.Permanent(err)
		}
		verdict, stats = v, s
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return "", matchsrvc.ExecStats{}, fmt.Errorf("evaluation failed after %d attempts: %w", attempt, err)
	}
	return verdict, stats, nil
}

func isSubmNotFound(err error) bool {
	srvcErr := &srvcerror.Error{}
	return errors.As(err, &srvcErr) && srvcErr.ErrorCode() == matchsrvc.ErrCodeSubmNotFound
}

func (w *Worker) deadLetter(ctx context.Context, msg judgequeue.JobMsg, reason string) {
	err := w.dlq.Send(ctx, judgequeue.DeadJob{
		Body:   msg.Raw,
		Reason: reason,
		DeadAt: time.Now(),
	})
	if err != nil {
		// keep the message on the primary queue rather than lose it
		w.logger.Error("failed to dead-letter job", "error", err)
		return
	}
	jobsDeadLettered.Inc()
	w.ack(ctx, msg)
}

func (w *Worker) ack(ctx context.Context, msg judgequeue.JobMsg) {
	if err := w.queue.Ack(ctx, msg.Handle); err != nil {
		w.logger.Error("failed to ack message", "error", err)
	}
}
