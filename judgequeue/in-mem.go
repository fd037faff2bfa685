package judgequeue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemJobQueue is a channel-backed JobQueue for tests and local
// development. Messages stay in flight until acked; Nack makes a message
// visible again, mimicking an expired visibility lease.
type InMemJobQueue struct {
	lock     sync.Mutex
	ready    chan string
	inFlight map[string]string // handle -> body
}

func NewInMemJobQueue() *InMemJobQueue {
	return &InMemJobQueue{
		ready:    make(chan string, 1024),
		inFlight: make(map[string]string),
	}
}

func (q *InMemJobQueue) Enqueue(ctx context.Context, job JudgeJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal judge job: %w", err)
	}
	return q.EnqueueRaw(string(body))
}

// EnqueueRaw places an arbitrary body on the queue. Tests use it to
// simulate malformed payloads crossing the queue boundary.
func (q *InMemJobQueue) EnqueueRaw(body string) error {
	select {
	case q.ready <- body:
		return nil
	default:
		return fmt.Errorf("queue full")
	}
}

func (q *InMemJobQueue) Receive(ctx context.Context) ([]JobMsg, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case body := <-q.ready:
		handle := uuid.NewString()
		q.lock.Lock()
		q.inFlight[handle] = body
		q.lock.Unlock()

		job, decErr := decodeJob(body)
		return []JobMsg{{
			Job:    job,
			Raw:    body,
			Handle: handle,
			DecErr: decErr,
		}}, nil
	case <-time.After(50 * time.Millisecond):
		return nil, nil
	}
}

func (q *InMemJobQueue) Ack(ctx context.Context, handle string) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if _, ok := q.inFlight[handle]; !ok {
		return fmt.Errorf("unknown receipt handle %s", handle)
	}
	delete(q.inFlight, handle)
	return nil
}

// Nack returns an in-flight message to the ready queue, the way an
// expired visibility lease would.
func (q *InMemJobQueue) Nack(handle string) error {
	q.lock.Lock()
	body, ok := q.inFlight[handle]
	if ok {
		delete(q.inFlight, handle)
	}
	q.lock.Unlock()
	if !ok {
		return fmt.Errorf("unknown receipt handle %s", handle)
	}
	return q.EnqueueRaw(body)
}

// NackAll expires every visibility lease at once, returning all
// in-flight messages to the ready queue. Tests use it to fast-forward
// redelivery.
func (q *InMemJobQueue) NackAll() int {
	q.lock.Lock()
	bodies := make([]string, 0, len(q.inFlight))
	for handle, body := range q.inFlight {
		bodies = append(bodies, body)
		delete(q.inFlight, handle)
	}
	q.lock.Unlock()
	for _, body := range bodies {
		_ = q.EnqueueRaw(body)
	}
	return len(bodies)
}

// InFlight reports how many delivered messages are awaiting ack.
func (q *InMemJobQueue) InFlight() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.inFlight)
}

// InMemDeadLetter collects dead jobs for inspection in tests.
type InMemDeadLetter struct {
	lock sync.Mutex
	dead []DeadJob
}

func NewInMemDeadLetter() *InMemDeadLetter {
	return &InMemDeadLetter{dead: []DeadJob{}}
}

func (d *InMemDeadLetter) Send(ctx context.Context, dead DeadJob) error {
	if dead.DeadAt.IsZero() {
		dead.DeadAt = time.Now()
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.dead = append(d.dead, dead)
	return nil
}

func (d *InMemDeadLetter) Dead() []DeadJob {
	d.lock.Lock()
	defer d.lock.Unlock()
	res := make([]DeadJob, len(d.dead))
	copy(res, d.dead)
	return res
}
