package matchsrvc

import (
	"context"
	"sync"

	"github.com/codeclash/backend/fairplay"
	"github.com/google/uuid"
)

// UserAggregate is the global profile slice the finalization transaction
// updates: accumulated rating and reward points.
type UserAggregate struct {
	UUID   uuid.UUID
	Rating int
	Points int
}

// InMemMatchRepo implements MatchRepo on mutex-guarded maps. It backs
// tests and local development and mirrors the transactional contract of
// the Postgres repo, including the status compare-and-swap in Finalize.
type InMemMatchRepo struct {
	lock        sync.Mutex
	matches     map[uuid.UUID]Match
	competitors map[uuid.UUID][]Competitor // keyed by match uuid
	subms       map[uuid.UUID]Submission
	pasteEvents map[uuid.UUID][]fairplay.PasteEvent // keyed by subm uuid
	judgments   map[uuid.UUID]Judgment              // keyed by match uuid
	users       map[uuid.UUID]UserAggregate
	txns        []PointsTxn
}

func NewInMemMatchRepo() *InMemMatchRepo {
	return &InMemMatchRepo{
		matches:     make(map[uuid.UUID]Match),
		competitors: make(map[uuid.UUID][]Competitor),
		subms:       make(map[uuid.UUID]Submission),
		pasteEvents: make(map[uuid.UUID][]fairplay.PasteEvent),
		judgments:   make(map[uuid.UUID]Judgment),
		users:       make(map[uuid.UUID]UserAggregate),
	}
}

func (m *InMemMatchRepo) GetMatch(ctx context.Context, matchUUID uuid.UUID) (Match, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	match, ok := m.matches[matchUUID]
	if !ok {
		return Match{}, ErrMatchNotFound()
	}
	return match, nil
}

func (m *InMemMatchRepo) ListCompetitors(ctx context.Context, matchUUID uuid.UUID) ([]Competitor, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := make([]Competitor, len(m.competitors[matchUUID]))
	copy(res, m.competitors[matchUUID])
	return res, nil
}

func (m *InMemMatchRepo) GetSubmission(ctx context.Context, submUUID uuid.UUID) (Submission, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	subm, ok := m.subms[submUUID]
	if !ok {
		return Submission{}, ErrSubmNotFound()
	}
	return subm, nil
}

func (m *InMemMatchRepo) ListMatchSubmissions(ctx context.Context, matchUUID uuid.UUID) ([]Submission, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := []Submission{}
	for _, subm := range m.subms {
		if subm.MatchUUID == matchUUID {
			res = append(res, subm)
		}
	}
	return res, nil
}

func (m *InMemMatchRepo) StoreSubmission(ctx context.Context, subm Submission) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.subms[subm.UUID] = subm
	return nil
}

func (m *InMemMatchRepo) StoreJudgedResult(ctx context.Context, submUUID uuid.UUID, verdict Verdict, stats ExecStats, integrity float64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	subm, ok := m.subms[submUUID]
	if !ok {
		return ErrSubmNotFound()
	}
	subm.Verdict = verdict
	subm.ExecStats = &stats
	subm.IntegrityScore = &integrity
	m.subms[submUUID] = subm
	return nil
}

func (m *InMemMatchRepo) StorePasteEvents(ctx context.Context, events []fairplay.PasteEvent) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, ev := range events {
		m.pasteEvents[ev.SubmUUID] = append(m.pasteEvents[ev.SubmUUID], ev)
	}
	return nil
}

func (m *InMemMatchRepo) ListPasteEvents(ctx context.Context, submUUID uuid.UUID) ([]fairplay.PasteEvent, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := make([]fairplay.PasteEvent, len(m.pasteEvents[submUUID]))
	copy(res, m.pasteEvents[submUUID])
	return res, nil
}

func (m *InMemMatchRepo) GetJudgment(ctx context.Context, matchUUID uuid.UUID) (Judgment, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	judgment, ok := m.judgments[matchUUID]
	if !ok {
		return Judgment{}, ErrJudgmentNotFound()
	}
	return judgment, nil
}

func (m *InMemMatchRepo) Finalize(ctx context.Context, rec FinalizeRecord) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	match, ok := m.matches[rec.MatchUUID]
	if !ok {
		return false, ErrMatchNotFound()
	}
	if match.Status != StatusActive {
		return false, nil
	}

	match.Status = StatusCompleted
	endedAt := rec.EndedAt
	match.EndedAt = &endedAt
	m.matches[rec.MatchUUID] = match

	competitors := m.competitors[rec.MatchUUID]
	for _, fc := range rec.Competitors {
		for i := range competitors {
			if competitors[i].UUID != fc.CompetitorUUID {
				continue
			}
			placement := fc.Placement
			ratingAfter := fc.RatingAfter
			reward := fc.RewardPoints
			competitors[i].Placement = &placement
			competitors[i].RatingAfter = &ratingAfter
			competitors[i].RewardPoints = &reward
			competitors[i].Outcome = fc.Outcome
		}

		user := m.users[fc.UserUUID]
		user.UUID = fc.UserUUID
		user.Rating = fc.RatingAfter
		user.Points += fc.RewardPoints
		m.users[fc.UserUUID] = user

		m.txns = append(m.txns, PointsTxn{
			ID:        uuid.New(),
			UserUUID:  fc.UserUUID,
			DeltaPts:  fc.RewardPoints,
			Reason:    "match_reward",
			RefUUID:   rec.MatchUUID,
			CreatedAt: rec.EndedAt,
		})
	}
	m.competitors[rec.MatchUUID] = competitors

	m.judgments[rec.MatchUUID] = rec.Judgment
	return true, nil
}

// Seed helpers used by tests and local development.

func (m *InMemMatchRepo) SeedMatch(match Match) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.matches[match.UUID] = match
}

func (m *InMemMatchRepo) SeedCompetitor(c Competitor) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.competitors[c.MatchUUID] = append(m.competitors[c.MatchUUID], c)
	m.users[c.UserUUID] = UserAggregate{UUID: c.UserUUID, Rating: c.RatingBefore}
}

func (m *InMemMatchRepo) User(userUUID uuid.UUID) UserAggregate {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.users[userUUID]
}

func (m *InMemMatchRepo) PointsTxns() []PointsTxn {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := make([]PointsTxn, len(m.txns))
	copy(res, m.txns)
	return res
}
