package event

import "sync"

// Signal broadcasts the latest value of some piece of state to any number
// of subscribers. A subscriber that falls behind only ever sees the most
// recent value; intermediate values are replaced, never queued.
type Signal[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	nextID int
	value  T
	set    bool
}

// Subscribe returns a channel receiving future values and a cancel
// function that closes it. If a value has already been published it is
// delivered immediately.
func (s *Signal[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs == nil {
		s.subs = make(map[int]chan T)
	}
	id := s.nextID
	s.nextID++
	ch := make(chan T, 1)
	if s.set {
		ch <- s.value
	}
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Publish records v and hands it to every subscriber without blocking.
func (s *Signal[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = v
	s.set = true
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Value returns the last published value and whether one exists.
func (s *Signal[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}

// Close closes every subscriber channel.
func (s *Signal[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}
