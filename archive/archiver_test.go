package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/codeclash/backend/archive"
	"github.com/codeclash/backend/feed"
	"github.com/codeclash/backend/matchsrvc"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiverSnapshotsFinalizedMatches(t *testing.T) {
	ctx := context.Background()
	repo := matchsrvc.NewInMemMatchRepo()
	store := archive.NewInMemMatchArchive()
	bus := feed.NewBus()

	started := time.Now().Add(-time.Hour)
	match := matchsrvc.Match{
		UUID:      uuid.New(),
		Status:    matchsrvc.StatusActive,
		TimeLimit: 30 * time.Minute,
		StartedAt: started,
	}
	repo.SeedMatch(match)
	competitor := matchsrvc.Competitor{
		UUID:         uuid.New(),
		MatchUUID:    match.UUID,
		UserUUID:     uuid.New(),
		DisplayName:  "alice",
		RatingBefore: 1200,
		Outcome:      matchsrvc.VerdictPending,
	}
	repo.SeedCompetitor(competitor)

	endedAt := time.Now()
	won, err := repo.Finalize(ctx, matchsrvc.FinalizeRecord{
		MatchUUID: match.UUID,
		EndedAt:   endedAt,
		Competitors: []matchsrvc.FinalCompetitor{{
			CompetitorUUID: competitor.UUID,
			UserUUID:       competitor.UserUUID,
			Placement:      1,
			RatingBefore:   1200,
			RatingAfter:    1200,
			RewardPoints:   40,
			Outcome:        matchsrvc.VerdictPassed,
		}},
		Judgment: matchsrvc.Judgment{
			MatchUUID:        match.UUID,
			Summary:          "alice takes first place",
			ExplainMd:        "1. alice\n",
			ScoreCorrectness: 100,
			ScorePerf:        100,
			ScoreQuality:     100,
			CreatedAt:        endedAt,
		},
	})
	require.NoError(t, err)
	require.True(t, won)

	archiver := archive.NewArchiver(repo, store, bus)
	archiver.Start()
	defer archiver.Close()

	bus.Publish(feed.MatchFinalized{MatchUUID: match.UUID, Summary: "alice takes first place"})

	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, match.UUID)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	rec, err := store.Get(ctx, match.UUID)
	require.NoError(t, err)
	assert.Equal(t, matchsrvc.StatusCompleted, rec.Match.Status)
	assert.Equal(t, "alice takes first place", rec.Judgment.Summary)
	require.Len(t, rec.Competitors, 1)
	require.NotNil(t, rec.Competitors[0].Placement)
	assert.Equal(t, 1, *rec.Competitors[0].Placement)
}

func TestArchiverIgnoresOtherEvents(t *testing.T) {
	repo := matchsrvc.NewInMemMatchRepo()
	store := archive.NewInMemMatchArchive()
	bus := feed.NewBus()

	archiver := archive.NewArchiver(repo, store, bus)
	archiver.Start()

	bus.Publish(feed.SubmissionJudged{
		SubmUUID:  uuid.New(),
		MatchUUID: uuid.New(),
		Verdict:   "passed",
	})

	// unsubscribing drains the goroutine; nothing should have been stored
	archiver.Close()

	_, err := store.Get(context.Background(), uuid.New())
	assert.Error(t, err)
}
