package feed

import (
	"sync"

	"github.com/google/uuid"
)

// Event is a status update pushed to the notification layer whenever a
// submission is judged or a match is finalized.
type Event interface {
	Type() string
}

type SubmissionJudged struct {
	SubmUUID       uuid.UUID `json:"subm_uuid"`
	MatchUUID      uuid.UUID `json:"match_uuid"`
	CompetitorUUID uuid.UUID `json:"competitor_uuid"`
	Verdict        string    `json:"verdict"`
	IntegrityScore float64   `json:"integrity_score"`
}

func (SubmissionJudged) Type() string { return "submission_judged" }

type MatchFinalized struct {
	MatchUUID uuid.UUID `json:"match_uuid"`
	Summary   string    `json:"summary"`
}

func (MatchFinalized) Type() string { return "match_finalized" }

// Bus fans events out to subscribed listeners. Slow listeners lose their
// oldest event instead of blocking the publisher.
type Bus struct {
	lock sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a listener channel. The returned func removes the
// listener and closes its channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.lock.Lock()
	defer b.lock.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 64)
	b.subs[id] = ch

	unsubscribe := func() {
		b.lock.Lock()
		defer b.lock.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

func (b *Bus) Publish(ev Event) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, sub := range b.subs {
		// both steps must stay non-blocking: the subscriber drains its
		// channel without the bus lock, so a blocking receive or send
		// here could wedge every publisher
		select {
		case sub <- ev:
			continue
		default:
		}
		select {
		case <-sub:
		default:
		}
		select {
		case sub <- ev:
		default:
		}
	}
}
