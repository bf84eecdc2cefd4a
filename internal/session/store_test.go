package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/passage/internal/session"
)

type fakeProvider struct {
	mu        sync.Mutex
	user      *session.User
	err       error
	listeners map[int]func(session.Event, *session.Session)
	next      int
	initial   *session.Session
	emitFirst bool

	// registered runs after a listener is added, before OnSessionChange
	// returns.
	registered func()
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{listeners: make(map[int]func(session.Event, *session.Session))}
}

func (p *fakeProvider) GetUser(ctx context.Context) (*session.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user, p.err
}

func (p *fakeProvider) OnSessionChange(fn func(session.Event, *session.Session)) session.Subscription {
	p.mu.Lock()
	id := p.next
	p.next++
	p.listeners[id] = fn
	emit, initial, registered := p.emitFirst, p.initial, p.registered
	p.mu.Unlock()

	if emit {
		fn(session.EventInitialSession, initial)
	}
	if registered != nil {
		registered()
	}
	return session.SubscriptionFunc(func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	})
}

func (p *fakeProvider) emit(ev session.Event, s *session.Session) {
	p.mu.Lock()
	fns := make([]func(session.Event, *session.Session), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(ev, s)
	}
}

func (p *fakeProvider) listenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

func TestStoreStartsEmpty(t *testing.T) {
	store := session.NewStore(newFakeProvider())
	assert.Nil(t, store.User())
}

func TestFetchUserSetsState(t *testing.T) {
	p := newFakeProvider()
	p.user = &session.User{ID: "1"}
	store := session.NewStore(p)

	require.NoError(t, store.FetchUser(context.Background()))
	assert.Equal(t, &session.User{ID: "1"}, store.User())
}

func TestFetchUserWithNoUserClearsState(t *testing.T) {
	p := newFakeProvider()
	p.user = &session.User{ID: "1"}
	store := session.NewStore(p)
	require.NoError(t, store.FetchUser(context.Background()))

	p.mu.Lock()
	p.user = nil
	p.mu.Unlock()

	require.NoError(t, store.FetchUser(context.Background()))
	assert.Nil(t, store.User())
}

func TestFetchUserErrorPropagatesAndKeepsState(t *testing.T) {
	p := newFakeProvider()
	p.user = &session.User{ID: "1"}
	store := session.NewStore(p)
	require.NoError(t, store.FetchUser(context.Background()))

	boom := errors.New("provider unavailable")
	p.mu.Lock()
	p.err = boom
	p.user = nil
	p.mu.Unlock()

	err := store.FetchUser(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "1", store.User().ID)
}

func TestSessionChangeEventsOverwriteUser(t *testing.T) {
	p := newFakeProvider()
	store := session.NewStore(p)
	sub := store.Subscribe()
	defer sub.Unsubscribe()

	p.emit(session.EventSignedIn, &session.Session{User: &session.User{ID: "a"}})
	assert.Equal(t, "a", store.User().ID)

	p.emit(session.EventUserUpdated, &session.Session{User: &session.User{ID: "b", Email: "b@example.com"}})
	assert.Equal(t, &session.User{ID: "b", Email: "b@example.com"}, store.User())

	p.emit(session.EventTokenRefreshed, &session.Session{})
	assert.Nil(t, store.User())

	p.emit(session.EventSignedIn, &session.Session{User: &session.User{ID: "c"}})
	p.emit(session.EventSignedOut, nil)
	assert.Nil(t, store.User())
}

func TestFetchAndEventsAreLastWriteWins(t *testing.T) {
	p := newFakeProvider()
	p.user = &session.User{ID: "fetched"}
	store := session.NewStore(p)
	store.Subscribe()
	defer store.Close()

	p.emit(session.EventSignedIn, &session.Session{User: &session.User{ID: "pushed"}})
	require.NoError(t, store.FetchUser(context.Background()))
	assert.Equal(t, "fetched", store.User().ID)

	p.emit(session.EventSignedIn, &session.Session{User: &session.User{ID: "pushed"}})
	assert.Equal(t, "pushed", store.User().ID)
}

func TestSubscribeReceivesInitialSession(t *testing.T) {
	p := newFakeProvider()
	p.emitFirst = true
	p.initial = &session.Session{User: &session.User{ID: "restored"}}
	store := session.NewStore(p)

	sub := store.Subscribe()
	defer sub.Unsubscribe()
	assert.Equal(t, "restored", store.User().ID)
}

func TestSubscribeIsIdempotentAndUnsubscribeStopsUpdates(t *testing.T) {
	p := newFakeProvider()
	store := session.NewStore(p)

	first := store.Subscribe()
	second := store.Subscribe()
	assert.Equal(t, 1, p.listenerCount())

	first.Unsubscribe()
	second.Unsubscribe()
	assert.Equal(t, 0, p.listenerCount())

	p.emit(session.EventSignedIn, &session.Session{User: &session.User{ID: "late"}})
	assert.Nil(t, store.User())

	store.Subscribe()
	assert.Equal(t, 1, p.listenerCount())
	store.Close()
	assert.Equal(t, 0, p.listenerCount())
}

func TestWatchSeesEveryWriteInOrder(t *testing.T) {
	p := newFakeProvider()
	p.user = &session.User{ID: "2"}
	store := session.NewStore(p)
	store.Subscribe()
	defer store.Close()

	var seen []string
	cancel := store.Watch(func(u *session.User) {
		if u == nil {
			seen = append(seen, "<nil>")
			return
		}
		seen = append(seen, u.ID)
	})

	p.emit(session.EventSignedIn, &session.Session{User: &session.User{ID: "1"}})
	require.NoError(t, store.FetchUser(context.Background()))
	p.emit(session.EventSignedOut, nil)
	assert.Equal(t, []string{"1", "2", "<nil>"}, seen)

	cancel()
	p.emit(session.EventSignedIn, &session.Session{User: &session.User{ID: "3"}})
	assert.Len(t, seen, 3)
}

func TestConcurrentWritesAreSafe(t *testing.T) {
	p := newFakeProvider()
	p.user = &session.User{ID: "fetched"}
	store := session.NewStore(p)
	store.Subscribe()
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.emit(session.EventSignedIn, &session.Session{User: &session.User{ID: "pushed"}})
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, store.FetchUser(context.Background()))
		}()
	}
	wg.Wait()

	require.NotNil(t, store.User())
	assert.Contains(t, []string{"fetched", "pushed"}, store.User().ID)
}

func TestCloseDuringSubscribeDropsListener(t *testing.T) {
	p := newFakeProvider()
	entered := make(chan struct{})
	release := make(chan struct{})
	p.registered = func() {
		close(entered)
		<-release
	}
	store := session.NewStore(p)

	done := make(chan session.Subscription)
	go func() { done <- store.Subscribe() }()
	<-entered
	store.Close()
	close(release)
	sub := <-done

	assert.Equal(t, 0, p.listenerCount())
	sub.Unsubscribe()

	p.emit(session.EventSignedIn, &session.Session{User: &session.User{ID: "late"}})
	assert.Nil(t, store.User())
}

func TestSubscribeAfterCloseIsInert(t *testing.T) {
	p := newFakeProvider()
	store := session.NewStore(p)
	store.Close()

	sub := store.Subscribe()
	require.NotNil(t, sub)
	assert.Equal(t, 0, p.listenerCount())
	sub.Unsubscribe()
}
