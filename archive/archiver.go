package archive

import (
	"context"
	"log/slog"
	"sync"

	"github.com/codeclash/backend/feed"
	"github.com/codeclash/backend/matchsrvc"
	"github.com/google/uuid"
)

// Archiver listens for finalized matches and copies their closed state
// into cold storage. Archival is best-effort: the hot rows stay around
// regardless, so a failed archive only logs.
type Archiver struct {
	logger *slog.Logger
	repo   matchsrvc.MatchRepo
	store  MatchArchive
	bus    *feed.Bus

	unsubscribe func()
	wg          sync.WaitGroup
}

func NewArchiver(repo matchsrvc.MatchRepo, store MatchArchive, bus *feed.Bus) *Archiver {
	return &Archiver{
		logger: slog.Default().With("module", "archive"),
		repo:   repo,
		store:  store,
		bus:    bus,
	}
}

func (a *Archiver) Start() {
	events, unsubscribe := a.bus.Subscribe()
	a.unsubscribe = unsubscribe

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for ev := range events {
			finalized, ok := ev.(feed.MatchFinalized)
			if !ok {
				continue
			}
			a.archive(finalized.MatchUUID)
		}
	}()
}

func (a *Archiver) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.wg.Wait()
}

func (a *Archiver) archive(matchUUID uuid.UUID) {
	ctx := context.Background()

	match, err := a.repo.GetMatch(ctx, matchUUID)
	if err != nil {
		a.logger.Error("failed to load match for archival", "match_uuid", matchUUID, "error", err)
		return
	}
	competitors, err := a.repo.ListCompetitors(ctx, matchUUID)
	if err != nil {
		a.logger.Error("failed to load competitors for archival", "match_uuid", matchUUID, "error", err)
		return
	}
	judgment, err := a.repo.GetJudgment(ctx, matchUUID)
	if err != nil {
		a.logger.Error("failed to load judgment for archival", "match_uuid", matchUUID, "error", err)
		return
	}

	rec := Record{
		Match:       match,
		Competitors: competitors,
		Judgment:    judgment,
	}
	if err := a.store.Save(ctx, rec); err != nil {
		a.logger.Error("failed to archive match", "match_uuid", matchUUID, "error", err)
		return
	}
	a.logger.Info("match archived", "match_uuid", matchUUID)
}
