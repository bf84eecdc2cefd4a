// Package session mirrors the auth provider's current user into an
// observable, explicitly owned store.
package session

import (
	"context"
	"sync"
)

// Store holds the current user. Writes come from FetchUser and from provider
// session-change events; the latest write wins.
type Store struct {
	provider Provider

	mu        sync.Mutex
	user      *User
	sub       Subscription
	closed    bool
	observers map[int]func(*User)
	nextObs   int

	// writeMu serializes writes so observers see them in order. Observers
	// must not write to the store.
	writeMu sync.Mutex
}

// NewStore creates an empty store. It does not listen to the provider until
// Subscribe is called.
func NewStore(p Provider) *Store {
	return &Store{
		provider:  p,
		observers: make(map[int]func(*User)),
	}
}

// User returns the current user, or nil when nobody is signed in.
func (s *Store) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// FetchUser asks the provider for the current user and stores the result.
// Provider errors are returned as is and leave the state unchanged.
func (s *Store) FetchUser(ctx context.Context) error {
	u, err := s.provider.GetUser(ctx)
	if err != nil {
		return err
	}
	s.set(u)
	return nil
}

// Subscribe starts mirroring provider session-change events. Calling it
// again while subscribed returns the live subscription. On a closed store it
// does nothing and returns an inert subscription.
func (s *Store) Subscribe() Subscription {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return SubscriptionFunc(func() {})
	}
	if s.sub != nil {
		sub := s.sub
		s.mu.Unlock()
		return sub
	}
	s.mu.Unlock()

	// The provider may deliver an initial event synchronously, so the
	// registration happens outside mu.
	providerSub := s.provider.OnSessionChange(s.handleEvent)

	var once sync.Once
	sub := SubscriptionFunc(func() {
		once.Do(func() {
			providerSub.Unsubscribe()
			s.mu.Lock()
			s.sub = nil
			s.mu.Unlock()
		})
	})

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		providerSub.Unsubscribe()
		return SubscriptionFunc(func() {})
	case s.sub != nil:
		// Lost a race with a concurrent Subscribe.
		live := s.sub
		s.mu.Unlock()
		providerSub.Unsubscribe()
		return live
	}
	s.sub = sub
	s.mu.Unlock()
	return sub
}

// Watch registers fn to be called after every write with the new user.
// Calls happen in write order. The returned func removes the observer.
func (s *Store) Watch(fn func(*User)) (cancel func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Close drops the provider subscription and all observers. A store that
// lives as long as the process does not need to be closed. A closed store
// can still be read and fetched but no longer subscribes.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	sub := s.sub
	s.observers = make(map[int]func(*User))
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

func (s *Store) handleEvent(_ Event, sess *Session) {
	var u *User
	if sess != nil {
		u = sess.User
	}
	s.set(u)
}

func (s *Store) set(u *User) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.user = u
	observers := make([]func(*User), 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if fn, ok := s.observers[i]; ok {
			observers = append(observers, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(u)
	}
}
