package judgequeue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JudgeJob is the queue payload routing one submission through judging.
// The schema is explicit and validated at dequeue time; anything that
// does not decode into it is rejected to the dead-letter queue instead
// of being trusted.
type JudgeJob struct {
	SubmUUID       uuid.UUID `json:"subm_uuid"`
	MatchUUID      uuid.UUID `json:"match_uuid"`
	CompetitorUUID uuid.UUID `json:"competitor_uuid"`
}

func (j JudgeJob) Validate() error {
	if j.SubmUUID == uuid.Nil {
		return fmt.Errorf("judge job missing submission uuid")
	}
	if j.MatchUUID == uuid.Nil {
		return fmt.Errorf("judge job missing match uuid")
	}
	if j.CompetitorUUID == uuid.Nil {
		return fmt.Errorf("judge job missing competitor uuid")
	}
	return nil
}

// JobMsg is one delivered message. Body decoding can fail independently
// of delivery, so the raw payload travels along with the decode result.
type JobMsg struct {
	Job    JudgeJob
	Raw    string // original message body
	Handle string // receipt handle for acknowledgment / delete
	DecErr error  // non-nil when the body did not match the schema
}

// JobQueue is the durable at-least-once channel between submission
// intake and the judging workers.
type JobQueue interface {
	Enqueue(ctx context.Context, job JudgeJob) error
	// Receive blocks up to the transport's long-poll window and returns
	// zero or more messages. A received message stays invisible to other
	// consumers until its visibility lease expires or it is acked.
	Receive(ctx context.Context) ([]JobMsg, error)
	Ack(ctx context.Context, handle string) error
}

// DeadJob is what lands on the dead-letter queue: the original payload
// plus the reason judging gave up on it.
type DeadJob struct {
	Body   string    `json:"body"`
	Reason string    `json:"reason"`
	DeadAt time.Time `json:"dead_at"`
}

// DeadLetter receives jobs whose retries are exhausted or whose payload
// was malformed. Dead jobs are preserved for operator inspection, never
// silently dropped.
type DeadLetter interface {
	Send(ctx context.Context, dead DeadJob) error
}

func decodeJob(body string) (JudgeJob, error) {
	var job JudgeJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return JudgeJob{}, fmt.Errorf("failed to unmarshal judge job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return JudgeJob{}, err
	}
	return job, nil
}
