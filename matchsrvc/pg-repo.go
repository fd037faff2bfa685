package matchsrvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeclash/backend/fairplay"
	"github.com/codeclash/backend/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgMatchRepo struct {
	pool *pgxpool.Pool
}

func NewPgMatchRepo(pool *pgxpool.Pool) *pgMatchRepo {
	return &pgMatchRepo{pool: pool}
}

func (r *pgMatchRepo) GetMatch(ctx context.Context, matchUUID uuid.UUID) (Match, error) {
	query := `
		SELECT uuid, status, problem_uuid, time_limit_seconds, started_at, ended_at, created_at
		FROM matches
		WHERE uuid = $1
	`
	var match Match
	var timeLimitSeconds int64
	err := r.pool.QueryRow(ctx, query, matchUUID).Scan(
		&match.UUID,
		&match.Status,
		&match.ProblemUUID,
		&timeLimitSeconds,
		&match.StartedAt,
		&match.EndedAt,
		&match.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Match{}, ErrMatchNotFound()
	}
	if err != nil {
		return Match{}, fmt.Errorf("failed to query match: %w", err)
	}
	match.TimeLimit = time.Duration(timeLimitSeconds) * time.Second
	return match, nil
}

func (r *pgMatchRepo) ListCompetitors(ctx context.Context, matchUUID uuid.UUID) ([]Competitor, error) {
	query := `
		SELECT uuid, match_uuid, user_uuid, display_name,
			rating_before, rating_after, placement, reward_points, outcome
		FROM competitors
		WHERE match_uuid = $1
		ORDER BY uuid
	`
	rows, err := r.pool.Query(ctx, query, matchUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors: %w", err)
	}
	defer rows.Close()

	competitors := []Competitor{}
	for rows.Next() {
		var c Competitor
		err := rows.Scan(
			&c.UUID,
			&c.MatchUUID,
			&c.UserUUID,
			&c.DisplayName,
			&c.RatingBefore,
			&c.RatingAfter,
			&c.Placement,
			&c.RewardPoints,
			&c.Outcome,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		competitors = append(competitors, c)
	}
	return competitors, rows.Err()
}

func (r *pgMatchRepo) GetSubmission(ctx context.Context, submUUID uuid.UUID) (Submission, error) {
	query := `
		SELECT uuid, match_uuid, competitor_uuid, code, lang_id, verdict,
			runtime_ms, memory_mb, integrity_score, created_at
		FROM submissions
		WHERE uuid = $1
	`
	subm, err := scanSubmission(r.pool.QueryRow(ctx, query, submUUID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Submission{}, ErrSubmNotFound()
	}
	if err != nil {
		return Submission{}, fmt.Errorf("failed to query submission: %w", err)
	}
	return subm, nil
}

func (r *pgMatchRepo) ListMatchSubmissions(ctx context.Context, matchUUID uuid.UUID) ([]Submission, error) {
	query := `
		SELECT uuid, match_uuid, competitor_uuid, code, lang_id, verdict,
			runtime_ms, memory_mb, integrity_score, created_at
		FROM submissions
		WHERE match_uuid = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, matchUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	subms := []Submission{}
	for rows.Next() {
		subm, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subms = append(subms, subm)
	}
	return subms, rows.Err()
}

func (r *pgMatchRepo) StoreSubmission(ctx context.Context, subm Submission) error {
	query := `
		INSERT INTO submissions (
			uuid, match_uuid, competitor_uuid, code, lang_id, verdict,
			runtime_ms, memory_mb, integrity_score, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var runtimeMs, memoryMb *int
	if subm.ExecStats != nil {
		runtimeMs = &subm.ExecStats.RuntimeMs
		memoryMb = &subm.ExecStats.MemoryMb
	}
	_, err := r.pool.Exec(ctx, query,
		subm.UUID,
		subm.MatchUUID,
		subm.CompetitorUUID,
		subm.Code,
		subm.LangID,
		subm.Verdict,
		runtimeMs,
		memoryMb,
		subm.IntegrityScore,
		subm.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (r *pgMatchRepo) StoreJudgedResult(ctx context.Context, submUUID uuid.UUID, verdict Verdict, stats ExecStats, integrity float64) error {
	query := `
		UPDATE submissions
		SET verdict = $2, runtime_ms = $3, memory_mb = $4, integrity_score = $5
		WHERE uuid = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		submUUID, verdict, stats.RuntimeMs, stats.MemoryMb, integrity)
	if err != nil {
		return fmt.Errorf("failed to update judged submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubmNotFound()
	}
	return nil
}

func (r *pgMatchRepo) StorePasteEvents(ctx context.Context, events []fairplay.PasteEvent) error {
	if len(events) == 0 {
		return nil
	}
	query := `
		INSERT INTO paste_events (
			id, subm_uuid, byte_size, source, blocked, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, ev := range events {
		_, err := r.pool.Exec(ctx, query,
			ev.ID, ev.SubmUUID, ev.ByteSize, ev.Source, ev.Blocked, ev.DetectedAt)
		if err != nil {
			return fmt.Errorf("failed to insert paste event: %w", err)
		}
	}
	return nil
}

func (r *pgMatchRepo) ListPasteEvents(ctx context.Context, submUUID uuid.UUID) ([]fairplay.PasteEvent, error) {
	query := `
		SELECT id, subm_uuid, byte_size, source, blocked, detected_at
		FROM paste_events
		WHERE subm_uuid = $1
		ORDER BY detected_at
	`
	rows, err := r.pool.Query(ctx, query, submUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query paste events: %w", err)
	}
	defer rows.Close()

	events := []fairplay.PasteEvent{}
	for rows.Next() {
		var ev fairplay.PasteEvent
		err := rows.Scan(&ev.ID, &ev.SubmUUID, &ev.ByteSize, &ev.Source, &ev.Blocked, &ev.DetectedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paste event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *pgMatchRepo) GetJudgment(ctx context.Context, matchUUID uuid.UUID) (Judgment, error) {
	query := `
		SELECT match_uuid, summary, explain_md,
			score_correctness, score_perf, score_quality, created_at
		FROM judgments
		WHERE match_uuid = $1
	`
	var j Judgment
	err := r.pool.QueryRow(ctx, query, matchUUID).Scan(
		&j.MatchUUID,
		&j.Summary,
		&j.ExplainMd,
		&j.ScoreCorrectness,
		&j.ScorePerf,
		&j.ScoreQuality,
		&j.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Judgment{}, ErrJudgmentNotFound()
	}
	if err != nil {
		return Judgment{}, fmt.Errorf("failed to query judgment: %w", err)
	}
	return j, nil
}

// Finalize commits the whole finalization record in one transaction. The
// conditional status flip is the concurrency guard: whichever caller
// updates the row from 'active' wins, everyone else gets zero affected
// rows, rolls back and reports false.
func (r *pgMatchRepo) Finalize(ctx context.Context, rec FinalizeRecord) (bool, error) {
	log := logger.FromContext(ctx)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	statusFlipQuery := `
		UPDATE matches
		SET status = 'completed', ended_at = $2
		WHERE uuid = $1 AND status = 'active'
	`
	tag, err := tx.Exec(ctx, statusFlipQuery, rec.MatchUUID, rec.EndedAt)
	if err != nil {
		return false, fmt.Errorf("failed to flip match status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		log.Debug("lost finalization race", "match_uuid", rec.MatchUUID)
		return false, nil
	}

	competitorQuery := `
		UPDATE competitors
		SET placement = $2, rating_after = $3, reward_points = $4, outcome = $5
		WHERE uuid = $1
	`
	userQuery := `
		UPDATE users
		SET rating = $2, points = points + $3
		WHERE uuid = $1
	`
	txnQuery := `
		INSERT INTO points_txns (
			id, user_uuid, delta_points, reason, ref_uuid, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, fc := range rec.Competitors {
		_, err = tx.Exec(ctx, competitorQuery,
			fc.CompetitorUUID, fc.Placement, fc.RatingAfter, fc.RewardPoints, fc.Outcome)
		if err != nil {
			return false, fmt.Errorf("failed to update competitor: %w", err)
		}
		_, err = tx.Exec(ctx, userQuery,
			fc.UserUUID, fc.RatingAfter, fc.RewardPoints)
		if err != nil {
			return false, fmt.Errorf("failed to update user aggregate: %w", err)
		}
		_, err = tx.Exec(ctx, txnQuery,
			uuid.New(), fc.UserUUID, fc.RewardPoints, "match_reward", rec.MatchUUID, rec.EndedAt)
		if err != nil {
			return false, fmt.Errorf("failed to insert points transaction: %w", err)
		}
	}

	judgmentQuery := `
		INSERT INTO judgments (
			match_uuid, summary, explain_md,
			score_correctness, score_perf, score_quality, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (match_uuid) DO UPDATE SET
			summary = EXCLUDED.summary,
			explain_md = EXCLUDED.explain_md,
			score_correctness = EXCLUDED.score_correctness,
			score_perf = EXCLUDED.score_perf,
			score_quality = EXCLUDED.score_quality,
			created_at = EXCLUDED.created_at
	`
	j := rec.Judgment
	_, err = tx.Exec(ctx, judgmentQuery,
		j.MatchUUID, j.Summary, j.ExplainMd,
		j.ScoreCorrectness, j.ScorePerf, j.ScoreQuality, j.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert judgment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit finalization: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (Submission, error) {
	var subm Submission
	var runtimeMs, memoryMb *int
	err := row.Scan(
		&subm.UUID,
		&subm.MatchUUID,
		&subm.CompetitorUUID,
		&subm.Code,
		&subm.LangID,
		&subm.Verdict,
		&runtimeMs,
		&memoryMb,
		&subm.IntegrityScore,
		&subm.CreatedAt,
	)
	if err != nil {
		return Submission{}, err
	}
	if runtimeMs != nil && memoryMb != nil {
		subm.ExecStats = &ExecStats{RuntimeMs: *runtimeMs, MemoryMb: *memoryMb}
	}
	return subm, nil
}
