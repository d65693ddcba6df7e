package services

import (
	"sync"
	"time"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
)

// ChangeNotifier fans catalog changes out to in-process subscribers.
// Publish never blocks and every subscriber receives every change in order.
type ChangeNotifier struct {
	mu     sync.Mutex
	seq    uint64
	nextID int
	subs   map[int]*subscriber
	closed bool
	now    func() time.Time
}

// Ensure it implements the interface
var _ ports.ChangePublisher = (*ChangeNotifier)(nil)

type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []domain.CatalogChange
	out    chan domain.CatalogChange
	done   chan struct{}
	closed bool
}

// NewChangeNotifier creates an empty notifier
func NewChangeNotifier() *ChangeNotifier {
	return &ChangeNotifier{
		subs: make(map[int]*subscriber),
		now:  time.Now,
	}
}

// Subscribe registers a new subscriber. The returned channel is closed after
// Close or the returned unsubscribe func is called.
func (n *ChangeNotifier) Subscribe() (<-chan domain.CatalogChange, func()) {
	sub := &subscriber{
		out:  make(chan domain.CatalogChange),
		done: make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(sub.out)
		return sub.out, func() {}
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = sub
	n.mu.Unlock()

	go sub.pump()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
			close(sub.done)
			sub.finish()
		})
	}
	return sub.out, unsubscribe
}

// Publish stamps the change with a sequence number and time and queues it
// for every subscriber
func (n *ChangeNotifier) Publish(change domain.CatalogChange) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.seq++
	change.Seq = n.seq
	if change.Time.IsZero() {
		change.Time = n.now()
	}
	for _, sub := range n.subs {
		sub.push(change)
	}
}

// Close stops accepting changes; subscribers drain what is queued and then
// see their channel closed
func (n *ChangeNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, sub := range n.subs {
		sub.finish()
		delete(n.subs, id)
	}
}

// Published returns the number of changes published so far
func (n *ChangeNotifier) Published() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.seq
}

func (s *subscriber) push(change domain.CatalogChange) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, change)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscriber) finish() {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
}

// pump moves queued changes to the subscriber channel one at a time
func (s *subscriber) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue[0] = domain.CatalogChange{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}
