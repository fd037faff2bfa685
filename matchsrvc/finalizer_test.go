package matchsrvc_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/codeclash/backend/matchsrvc"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var matchStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seedActiveMatch(repo *matchsrvc.InMemMatchRepo, competitorCount int) (matchsrvc.Match, []matchsrvc.Competitor) {
	match := matchsrvc.Match{
		UUID:        uuid.New(),
		Status:      matchsrvc.StatusActive,
		ProblemUUID: uuid.New(),
		TimeLimit:   30 * time.Minute,
		StartedAt:   matchStart,
		CreatedAt:   matchStart,
	}
	repo.SeedMatch(match)

	names := []string{"alice", "bob", "carol", "dave"}
	competitors := make([]matchsrvc.Competitor, competitorCount)
	for i := 0; i < competitorCount; i++ {
		competitors[i] = matchsrvc.Competitor{
			UUID:         uuid.New(),
			MatchUUID:    match.UUID,
			UserUUID:     uuid.New(),
			DisplayName:  names[i%len(names)],
			RatingBefore: 1200,
			Outcome:      matchsrvc.VerdictPending,
		}
		repo.SeedCompetitor(competitors[i])
	}
	return match, competitors
}

func seedPassedSubm(t *testing.T, repo *matchsrvc.InMemMatchRepo, match matchsrvc.Match, c matchsrvc.Competitor, at time.Time) {
	t.Helper()
	ctx := context.Background()
	subm := matchsrvc.Submission{
		UUID:           uuid.New(),
		MatchUUID:      match.UUID,
		CompetitorUUID: c.UUID,
		Code:           "print(42)",
		LangID:         "python3.11",
		Verdict:        matchsrvc.VerdictPending,
		CreatedAt:      at,
	}
	require.NoError(t, repo.StoreSubmission(ctx, subm))
	require.NoError(t, repo.StoreJudgedResult(ctx, subm.UUID, matchsrvc.VerdictPassed,
		matchsrvc.ExecStats{RuntimeMs: 50, MemoryMb: 16}, 0.1))
}

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestFinalizeWhenAllPassed(t *testing.T) {
	ctx := context.Background()
	repo := matchsrvc.NewInMemMatchRepo()
	match, competitors := seedActiveMatch(repo, 2)

	seedPassedSubm(t, repo, match, competitors[0], matchStart.Add(5*time.Minute))
	seedPassedSubm(t, repo, match, competitors[1], matchStart.Add(9*time.Minute))

	// well before the deadline: readiness comes from everyone passing
	finalizer := matchsrvc.NewFinalizerWithClock(repo, clockAt(matchStart.Add(10*time.Minute)))

	finalized, err := finalizer.TryFinalize(ctx, match.UUID)
	require.NoError(t, err)
	require.True(t, finalized)

	got, err := repo.GetMatch(ctx, match.UUID)
	require.NoError(t, err)
	assert.Equal(t, matchsrvc.StatusCompleted, got.Status)
	require.NotNil(t, got.EndedAt)

	final, err := repo.ListCompetitors(ctx, match.UUID)
	require.NoError(t, err)
	byUUID := map[uuid.UUID]matchsrvc.Competitor{}
	for _, c := range final {
		byUUID[c.UUID] = c
	}

	winner := byUUID[competitors[0].UUID]
	loser := byUUID[competitors[1].UUID]
	require.NotNil(t, winner.Placement)
	require.NotNil(t, loser.Placement)
	assert.Equal(t, 1, *winner.Placement)
	assert.Equal(t, 2, *loser.Placement)
	assert.Equal(t, 1216, *winner.RatingAfter)
	assert.Equal(t, 1184, *loser.RatingAfter)
	assert.Equal(t, 40, *winner.RewardPoints)
	assert.Equal(t, 15, *loser.RewardPoints)
	assert.Equal(t, matchsrvc.VerdictPassed, winner.Outcome)

	// user aggregates and the reward ledger moved in the same commit
	winnerUser := repo.User(competitors[0].UserUUID)
	assert.Equal(t, 1216, winnerUser.Rating)
	assert.Equal(t, 40, winnerUser.Points)
	assert.Len(t, repo.PointsTxns(), 2)

	judgment, err := repo.GetJudgment(ctx, match.UUID)
	require.NoError(t, err)
	assert.Contains(t, judgment.Summary, "alice")
	assert.Contains(t, judgment.ExplainMd, "+40 points")
	assert.Contains(t, judgment.ExplainMd, "1216")
	assert.Equal(t, 100, judgment.ScoreCorrectness)
}

func TestNotReadyBeforeDeadline(t *testing.T) {
	ctx := context.Background()
	repo := matchsrvc.NewInMemMatchRepo()
	match, competitors := seedActiveMatch(repo, 3)

	seedPassedSubm(t, repo, match, competitors[0], matchStart.Add(3*time.Minute))
	seedPassedSubm(t, repo, match, competitors[1], matchStart.Add(6*time.Minute))
	// competitors[2] never passes

	finalizer := matchsrvc.NewFinalizerWithClock(repo, clockAt(matchStart.Add(10*time.Minute)))

	finalized, err := finalizer.TryFinalize(ctx, match.UUID)
	require.NoError(t, err)
	assert.False(t, finalized)

	got, err := repo.GetMatch(ctx, match.UUID)
	require.NoError(t, err)
	assert.Equal(t, matchsrvc.StatusActive, got.Status)

	_, err = repo.GetJudgment(ctx, match.UUID)
	assert.Error(t, err)
}

func TestDeadlinePlacesNonPassingLast(t *testing.T) {
	ctx := context.Background()
	repo := matchsrvc.NewInMemMatchRepo()
	match, competitors := seedActiveMatch(repo, 3)

	seedPassedSubm(t, repo, match, competitors[0], matchStart.Add(3*time.Minute))
	seedPassedSubm(t, repo, match, competitors[1], matchStart.Add(6*time.Minute))

	// same match, but now the clock has run out
	finalizer := matchsrvc.NewFinalizerWithClock(repo, clockAt(matchStart.Add(31*time.Minute)))

	finalized, err := finalizer.TryFinalize(ctx, match.UUID)
	require.NoError(t, err)
	require.True(t, finalized)

	final, err := repo.ListCompetitors(ctx, match.UUID)
	require.NoError(t, err)
	for _, c := range final {
		if c.UUID == competitors[2].UUID {
			require.NotNil(t, c.Placement)
			assert.Equal(t, 3, *c.Placement)
			assert.Equal(t, matchsrvc.VerdictFailed, c.Outcome)
			assert.Equal(t, 5, *c.RewardPoints)
		}
	}
}

func TestFinalizeIsNoOpOnCompletedMatch(t *testing.T) {
	ctx := context.Background()
	repo := matchsrvc.NewInMemMatchRepo()
	match, competitors := seedActiveMatch(repo, 2)
	seedPassedSubm(t, repo, match, competitors[0], matchStart.Add(time.Minute))
	seedPassedSubm(t, repo, match, competitors[1], matchStart.Add(2*time.Minute))

	finalizer := matchsrvc.NewFinalizerWithClock(repo, clockAt(matchStart.Add(5*time.Minute)))

	finalized, err := finalizer.TryFinalize(ctx, match.UUID)
	require.NoError(t, err)
	require.True(t, finalized)

	txnsAfterFirst := len(repo.PointsTxns())
	for i := 0; i < 5; i++ {
		again, err := finalizer.TryFinalize(ctx, match.UUID)
		require.NoError(t, err)
		assert.False(t, again)
	}
	assert.Equal(t, txnsAfterFirst, len(repo.PointsTxns()))
}

func TestFinalizeIsNoOpOnCancelledMatch(t *testing.T) {
	ctx := context.Background()
	repo := matchsrvc.NewInMemMatchRepo()
	match, competitors := seedActiveMatch(repo, 2)
	seedPassedSubm(t, repo, match, competitors[0], matchStart.Add(time.Minute))
	seedPassedSubm(t, repo, match, competitors[1], matchStart.Add(2*time.Minute))

	cancelled := match
	cancelled.Status = matchsrvc.StatusCancelled
	repo.SeedMatch(cancelled)

	finalizer := matchsrvc.NewFinalizerWithClock(repo, clockAt(matchStart.Add(time.Hour)))

	finalized, err := finalizer.TryFinalize(ctx, match.UUID)
	require.NoError(t, err)
	assert.False(t, finalized)
	assert.Empty(t, repo.PointsTxns())
}

func TestConcurrentFinalizeHappensExactlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := matchsrvc.NewInMemMatchRepo()
	match, competitors := seedActiveMatch(repo, 2)
	seedPassedSubm(t, repo, match, competitors[0], matchStart.Add(time.Minute))
	seedPassedSubm(t, repo, match, competitors[1], matchStart.Add(2*time.Minute))

	finalizer := matchsrvc.NewFinalizerWithClock(repo, clockAt(matchStart.Add(5*time.Minute)))

	const callers = 16
	results := make([]bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			finalized, err := finalizer.TryFinalize(ctx, match.UUID)
			assert.NoError(t, err)
			results[i] = finalized
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, r := range results {
		if r {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	// one judgment, one set of ledger rows
	_, err := repo.GetJudgment(ctx, match.UUID)
	require.NoError(t, err)
	assert.Len(t, repo.PointsTxns(), 2)
}

func TestEqualTimestampsBreakTiesDeterministically(t *testing.T) {
	ctx := context.Background()

	run := func() []uuid.UUID {
		repo := matchsrvc.NewInMemMatchRepo()
		match := matchsrvc.Match{
			UUID:      uuid.MustParse("00000000-0000-0000-0000-00000000aaaa"),
			Status:    matchsrvc.StatusActive,
			TimeLimit: 30 * time.Minute,
			StartedAt: matchStart,
		}
		repo.SeedMatch(match)

		uuids := []uuid.UUID{
			uuid.MustParse("00000000-0000-0000-0000-000000000002"),
			uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		}
		for _, u := range uuids {
			c := matchsrvc.Competitor{
				UUID: u, MatchUUID: match.UUID, UserUUID: uuid.New(),
				RatingBefore: 1200, Outcome: matchsrvc.VerdictPending,
			}
			repo.SeedCompetitor(c)
			seedPassedSubm(t, repo, match, c, matchStart.Add(time.Minute))
		}

		finalizer := matchsrvc.NewFinalizerWithClock(repo, clockAt(matchStart.Add(5*time.Minute)))
		finalized, err := finalizer.TryFinalize(ctx, match.UUID)
		require.NoError(t, err)
		require.True(t, finalized)

		final, err := repo.ListCompetitors(ctx, match.UUID)
		require.NoError(t, err)
		ordered := make([]uuid.UUID, 2)
		for _, c := range final {
			ordered[*c.Placement-1] = c.UUID
		}
		return ordered
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}
	// lexicographically smaller uuid places first on equal timestamps
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", first[0].String())
}
