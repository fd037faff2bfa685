package matchsrvc

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	StatusPending   MatchStatus = "pending"
	StatusActive    MatchStatus = "active"
	StatusCompleted MatchStatus = "completed"
	StatusCancelled MatchStatus = "cancelled"
)

type Verdict string

const (
	VerdictPending      Verdict = "pending"
	VerdictPassed       Verdict = "passed"
	VerdictFailed       Verdict = "failed"
	VerdictDisqualified Verdict = "disqualified"
)

// Match is one competitive session. Status transitions are monotonic:
// pending -> active -> completed, or -> cancelled. A completed match is
// never mutated again, only archived.
type Match struct {
	UUID        uuid.UUID
	Status      MatchStatus
	ProblemUUID uuid.UUID
	TimeLimit   time.Duration
	StartedAt   time.Time
	EndedAt     *time.Time
	CreatedAt   time.Time
}

// Deadline is the point in time after which the match may be finalized
// even if not every competitor has passed.
func (m Match) Deadline() time.Time {
	return m.StartedAt.Add(m.TimeLimit)
}

// Competitor is a match-scoped participant record, distinct from the
// global user profile. Placement, rating-after and reward points stay nil
// until the finalization transaction fills them in.
type Competitor struct {
	UUID         uuid.UUID
	MatchUUID    uuid.UUID
	UserUUID     uuid.UUID
	DisplayName  string
	RatingBefore int
	RatingAfter  *int
	Placement    *int
	RewardPoints *int
	Outcome      Verdict
}

// ExecStats are the execution statistics reported by the code evaluator.
type ExecStats struct {
	RuntimeMs int `json:"runtime_ms"`
	MemoryMb  int `json:"memory_mb"`
}

// Submission is one attempt by one competitor within a match. Once the
// verdict is set the row is immutable except for integrity recompute.
type Submission struct {
	UUID           uuid.UUID
	MatchUUID      uuid.UUID
	CompetitorUUID uuid.UUID
	Code           string
	LangID         string
	Verdict        Verdict
	ExecStats      *ExecStats
	IntegrityScore *float64
	CreatedAt      time.Time
}

// Judgment is the one-per-match explanatory report written at
// finalization. Upserts are keyed by match uuid.
type Judgment struct {
	MatchUUID        uuid.UUID
	Summary          string
	ExplainMd        string
	ScoreCorrectness int
	ScorePerf        int
	ScoreQuality     int
	CreatedAt        time.Time
}

// PointsTxn is one reward-ledger row, written only inside the
// finalization transaction.
type PointsTxn struct {
	ID        uuid.UUID
	UserUUID  uuid.UUID
	DeltaPts  int
	Reason    string
	RefUUID   uuid.UUID
	CreatedAt time.Time
}

// FinalCompetitor carries the computed outcome for one competitor into
// the finalization transaction.
type FinalCompetitor struct {
	CompetitorUUID uuid.UUID
	UserUUID       uuid.UUID
	Placement      int
	RatingBefore   int
	RatingAfter    int
	RatingDelta    int
	RewardPoints   int
	Outcome        Verdict
}

// FinalizeRecord is everything the finalization transaction applies as
// one all-or-nothing unit.
type FinalizeRecord struct {
	MatchUUID   uuid.UUID
	EndedAt     time.Time
	Competitors []FinalCompetitor
	Judgment    Judgment
}
