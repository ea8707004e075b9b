package message

import (
	"sync"

	"github.com/rs/zerolog"

	"majlis/internal/app/db"
	"majlis/internal/observability"
	"majlis/internal/pkg/logx"
)

// feedQueueSize bounds the events waiting for one slow subscriber.
const feedQueueSize = 64

// Feed fans message insert events out to subscribers. Each subscriber receives events in publish
// order on its own goroutine, so one slow subscriber does not hold up the others.
type Feed struct {
	mu     sync.RWMutex
	subs   map[*feedSubscription]struct{}
	logger zerolog.Logger
}

// NewFeed returns an empty Feed.
func NewFeed() *Feed {
	return &Feed{
		subs:   make(map[*feedSubscription]struct{}),
		logger: logx.Component("message_feed"),
	}
}

// Subscribe registers fn for every row published from now on.
func (f *Feed) Subscribe(fn func(db.MessageRow)) Subscription {
	s := &feedSubscription{
		feed:   f,
		fn:     fn,
		active: true,
		queue:  make(chan db.MessageRow, feedQueueSize),
		done:   make(chan struct{}),
	}

	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	go s.run()

	return s
}

// Publish queues row for every current subscriber. A subscriber whose queue is full misses it.
func (f *Feed) Publish(row db.MessageRow) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for s := range f.subs {
		select {
		case s.queue <- row:
		default:
			observability.IncFeedDelivery("overflow")
			f.logger.Warn().Int64("message_id", row.ID).Msg("Subscriber queue full, dropping event.")
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func (f *Feed) remove(s *feedSubscription) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[s]; !ok {
		return false
	}
	delete(f.subs, s)
	return true
}

type feedSubscription struct {
	feed *Feed
	fn   func(db.MessageRow)

	// mu is held while fn runs so Unsubscribe waits for an in-flight delivery.
	mu     sync.Mutex
	active bool

	queue chan db.MessageRow
	done  chan struct{}
}

func (s *feedSubscription) run() {
	for {
		select {
		case <-s.done:
			return
		case row := <-s.queue:
			s.deliver(row)
		}
	}
}

func (s *feedSubscription) deliver(row db.MessageRow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		s.fn(row)
	}
}

// Unsubscribe must not be called from inside the subscriber's own callback.
func (s *feedSubscription) Unsubscribe() {
	if !s.feed.remove(s) {
		return
	}

	s.mu.Lock()
	s.active = false
	s.mu.Unlock()

	close(s.done)
}
