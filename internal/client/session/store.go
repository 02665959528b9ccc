package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/common"
	"github.com/dmitrijs2005/planadmin/internal/logging"
)

// Reason tells listeners why the session changed.
type Reason string

const (
	ReasonRestored      Reason = "restored"
	ReasonUpdated       Reason = "updated"
	ReasonLogout        Reason = "logout"
	ReasonRefreshFailed Reason = "refresh_failed"
	ReasonExpired       Reason = "expired"
)

// Event is delivered to listeners after every published change.
// Session is nil when the session was cleared.
type Event struct {
	Session *Session
	Reason  Reason
}

type Listener func(Event)

// ErrSessionChanged is returned by conditional writes when the current session
// is no longer the one the caller based its write on.
var ErrSessionChanged = errors.New("session changed concurrently")

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store owns the single active session of a client instance.
//
// Reads are lock-free snapshots. Writes are serialised, persisted first and
// then published, so a reader sees either the old or the new session, never a
// mix. Listeners run synchronously on the writer's goroutine, in write order;
// they may call Get but must not call Set, Clear or Invalidate.
type Store struct {
	current atomic.Pointer[Session]
	writeMu sync.Mutex

	listenersMu sync.Mutex
	listeners   []listenerEntry
	nextID      uint64

	persister Persister
	logger    logging.Logger
	now       func() time.Time
}

type Option func(*Store)

// WithPersister makes the store durable. Without one the session lives in memory only.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now; used for expiry decisions at Init.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{logger: logging.Nop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init restores a persisted session. Corrupt or incomplete records are wiped;
// a session whose refresh token is known to be expired is wiped as well.
func (s *Store) Init(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	loaded, err := s.persister.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCorruptRecord) {
			return fmt.Errorf("load session: %w", err)
		}
		s.logger.Warn(ctx, "discarding unreadable session record", "error", err)
		return s.wipePersisted(ctx)
	}
	if loaded == nil {
		return nil
	}

	if err := loaded.Validate(); err != nil {
		s.logger.Warn(ctx, "discarding incomplete session record", "error", err)
		return s.wipePersisted(ctx)
	}

	if loaded.RefreshExpired(s.now()) {
		s.logger.Info(ctx, "persisted session expired", "user_id", loaded.User.ID)
		if err := s.wipePersisted(ctx); err != nil {
			return err
		}
		s.notify(Event{Reason: ReasonExpired})
		return nil
	}

	s.current.Store(loaded)
	s.logger.Debug(ctx, "session restored", "user_id", loaded.User.ID, "role", loaded.User.Role)
	s.notify(Event{Session: loaded.Clone(), Reason: ReasonRestored})
	return nil
}

// Get returns a copy of the current session, or nil when logged out.
func (s *Store) Get() *Session {
	return s.current.Load().Clone()
}

// Set replaces the session. Incomplete sessions are rejected. Last write wins.
func (s *Store) Set(ctx context.Context, sess *Session) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.set(ctx, sess)
}

// UpdateIf replaces the session only while the current access token is still
// expectedAccessToken. It returns ErrSessionChanged otherwise.
func (s *Store) UpdateIf(ctx context.Context, expectedAccessToken string, sess *Session) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current.Load()
	if cur == nil || cur.AccessToken != expectedAccessToken {
		return ErrSessionChanged
	}
	if cur.User.Role != sess.User.Role || cur.User.ID != sess.User.ID {
		return fmt.Errorf("%w: user or role cannot change without a new login", common.ErrIncompleteSession)
	}
	return s.set(ctx, sess)
}

func (s *Store) set(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("%w: nil session", common.ErrIncompleteSession)
	}
	if err := sess.Validate(); err != nil {
		return err
	}

	snapshot := sess.Clone()
	if s.persister != nil {
		if err := s.persister.Save(ctx, snapshot); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
	}

	s.current.Store(snapshot)
	s.logger.Debug(ctx, "session set", "user_id", snapshot.User.ID, "role", snapshot.User.Role)
	s.notify(Event{Session: snapshot.Clone(), Reason: ReasonUpdated})
	return nil
}

// Clear logs the session out.
func (s *Store) Clear(ctx context.Context) error {
	return s.Invalidate(ctx, ReasonLogout)
}

// Invalidate removes the session for the given reason. The in-memory session
// is unpublished before persistence is touched, so no caller can pick up the
// old token while the wipe is in progress.
func (s *Store) Invalidate(ctx context.Context, reason Reason) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.invalidate(ctx, reason)
}

// InvalidateIf clears the session only while its access token is still
// expectedAccessToken, so a failed refresh of an old session never logs out
// a newer one. It returns ErrSessionChanged when nothing was cleared.
func (s *Store) InvalidateIf(ctx context.Context, expectedAccessToken string, reason Reason) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current.Load()
	if cur == nil || cur.AccessToken != expectedAccessToken {
		return ErrSessionChanged
	}
	return s.invalidate(ctx, reason)
}

func (s *Store) invalidate(ctx context.Context, reason Reason) error {
	had := s.current.Swap(nil)

	var err error
	if s.persister != nil {
		err = s.wipePersisted(ctx)
	}

	if had != nil {
		s.logger.Debug(ctx, "session cleared", "user_id", had.User.ID, "reason", reason)
		s.notify(Event{Reason: reason})
	}
	return err
}

// wipePersisted runs even if ctx is already cancelled: leaving a stale token
// on disk would resurrect the session on the next start.
func (s *Store) wipePersisted(ctx context.Context) error {
	if err := s.persister.Clear(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("wipe persisted session: %w", err)
	}
	return nil
}

// OnChange registers a listener and returns a function that removes it.
func (s *Store) OnChange(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(e Event) {
	s.listenersMu.Lock()
	ls := make([]listenerEntry, len(s.listeners))
	copy(ls, s.listeners)
	s.listenersMu.Unlock()

	for _, l := range ls {
		l.fn(e)
	}
}
