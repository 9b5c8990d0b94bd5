package services

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/postsmith/ghostwriter-backend/internal/dto"
)

var (
	ErrSessionExists = errors.New("edit session already open for this post")
	ErrNoSession     = errors.New("no edit session open for this post")
)

// SaveFunc persists autosaved content. Returned errors are recorded on the
// session state rather than propagated to the pusher.
type SaveFunc func(content string) error

// AutosaveSession holds the in-memory edit buffer for one open post editor
// and flushes it on a fixed interval, but only when the buffer differs from
// the last content it persisted. Close cancels the timer deterministically;
// no flush runs after Close returns. A session that sees no Push for
// idleAfter expires on its own (pending content is flushed first), so a
// client that vanishes without closing cannot leak a timer.
type AutosaveSession struct {
	save      SaveFunc
	interval  time.Duration
	idleAfter time.Duration
	onIdle    func()

	mu          sync.Mutex
	buffer      string
	persisted   string
	lastPush    time.Time
	lastSavedAt *time.Time
	lastErr     error
	closed      bool

	ticker *time.Ticker
	done   chan struct{}
}

// SessionState is a snapshot of the session for passive status display.
type SessionState struct {
	Dirty       bool
	LastSavedAt *time.Time
	LastError   error
}

// NewAutosaveSession starts the flush timer. idleAfter of zero disables idle
// expiry; onIdle, if set, runs once after the session expires itself.
func NewAutosaveSession(save SaveFunc, persisted string, interval, idleAfter time.Duration, onIdle func()) *AutosaveSession {
	s := &AutosaveSession{
		save:      save,
		interval:  interval,
		idleAfter: idleAfter,
		onIdle:    onIdle,
		buffer:    persisted,
		persisted: persisted,
		lastPush:  time.Now(),
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AutosaveSession) run() {
	for {
		select {
		case <-s.ticker.C:
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				continue
			}
			s.flushLocked()
			expired := s.idleAfter > 0 && time.Since(s.lastPush) >= s.idleAfter
			if expired {
				s.closed = true
				s.ticker.Stop()
				close(s.done)
			}
			s.mu.Unlock()
			if expired {
				if s.onIdle != nil {
					s.onIdle()
				}
				return
			}
		case <-s.done:
			return
		}
	}
}

// Push replaces the in-memory buffer. Nothing is persisted here; the next
// tick (or Close) does that.
func (s *AutosaveSession) Push(content string) {
	s.mu.Lock()
	s.buffer = content
	s.lastPush = time.Now()
	s.mu.Unlock()
}

// NotePersisted records that content was saved through another path (an
// explicit save), so the next tick does not redundantly rewrite it.
func (s *AutosaveSession) NotePersisted(content string) {
	s.mu.Lock()
	s.persisted = content
	s.mu.Unlock()
}

func (s *AutosaveSession) flushLocked() {
	if s.buffer == s.persisted {
		return
	}
	content := s.buffer
	if err := s.save(content); err != nil {
		s.lastErr = err
		return
	}
	now := time.Now()
	s.persisted = content
	s.lastSavedAt = &now
	s.lastErr = nil
}

func (s *AutosaveSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Dirty:       s.buffer != s.persisted,
		LastSavedAt: s.lastSavedAt,
		LastError:   s.lastErr,
	}
}

// Close stops the timer, runs a final flush of any pending content, and
// returns the flush error, if any. Idempotent.
func (s *AutosaveSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.lastErr
	}
	s.closed = true
	s.ticker.Stop()
	close(s.done)
	s.flushLocked()
	return s.lastErr
}

// A session with no Push for this many flush intervals is considered
// abandoned and expires itself.
const idleGraceIntervals = 20

// EditSessionManager tracks at most one autosave session per post. A session
// leaves the map through Close, CloseForPost, or its own idle expiry, so an
// abandoned editor cannot hold a timer indefinitely.
type EditSessionManager struct {
	posts    *PostService
	interval time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*AutosaveSession
}

func NewEditSessionManager(posts *PostService, interval time.Duration) *EditSessionManager {
	return &EditSessionManager{
		posts:    posts,
		interval: interval,
		sessions: make(map[uuid.UUID]*AutosaveSession),
	}
}

// Open starts an edit session for the post, seeded with its current content.
func (m *EditSessionManager) Open(userID, postID uuid.UUID) error {
	post, err := m.posts.Get(userID, postID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[postID]; ok {
		return ErrSessionExists
	}

	save := func(content string) error {
		_, err := m.posts.Update(userID, postID, &dto.UpdatePostRequest{Content: &content})
		return err
	}

	var sess *AutosaveSession
	onIdle := func() {
		m.mu.Lock()
		if m.sessions[postID] == sess {
			delete(m.sessions, postID)
		}
		m.mu.Unlock()
	}
	sess = NewAutosaveSession(save, post.Content, m.interval, m.interval*idleGraceIntervals, onIdle)
	m.sessions[postID] = sess
	return nil
}

func (m *EditSessionManager) Push(userID, postID uuid.UUID, content string) error {
	sess, err := m.get(userID, postID)
	if err != nil {
		return err
	}
	sess.Push(content)
	return nil
}

func (m *EditSessionManager) State(userID, postID uuid.UUID) (SessionState, error) {
	sess, err := m.get(userID, postID)
	if err != nil {
		return SessionState{}, err
	}
	return sess.State(), nil
}

// NotePersisted forwards an explicit save to the open session, if one exists.
func (m *EditSessionManager) NotePersisted(postID uuid.UUID, content string) {
	m.mu.Lock()
	sess := m.sessions[postID]
	m.mu.Unlock()
	if sess != nil {
		sess.NotePersisted(content)
	}
}

// Close tears the session down and flushes any pending edits.
func (m *EditSessionManager) Close(userID, postID uuid.UUID) error {
	sess, err := m.get(userID, postID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, postID)
	m.mu.Unlock()

	return sess.Close()
}

// CloseForPost drops the session without a final flush, for post deletion.
func (m *EditSessionManager) CloseForPost(postID uuid.UUID) {
	m.mu.Lock()
	sess := m.sessions[postID]
	delete(m.sessions, postID)
	m.mu.Unlock()
	if sess != nil {
		sess.mu.Lock()
		if !sess.closed {
			sess.closed = true
			sess.ticker.Stop()
			close(sess.done)
		}
		sess.mu.Unlock()
	}
}

func (m *EditSessionManager) get(userID, postID uuid.UUID) (*AutosaveSession, error) {
	// Ownership check first so a foreign user can't see session existence.
	if _, err := m.posts.Get(userID, postID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[postID]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}
