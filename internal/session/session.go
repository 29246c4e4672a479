// Package session keeps one backend client and one view state store per UI
// session. Sessions are identified by a random id carried in a signed
// cookie and evicted after a period of inactivity.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bwise1/civic_reports/internal/http/backend"
	"github.com/bwise1/civic_reports/internal/store"
	"github.com/bwise1/civic_reports/util"
	"github.com/pkg/errors"
)

var ErrUnknownSession = errors.New("session not found")

// Publisher delivers a message to the connections of one session without
// blocking.
type Publisher interface {
	Publish(sessionID, msgType string, data interface{})
}

type Session struct {
	ID     string
	Client *backend.Client
	Store  *store.Store

	mu          sync.Mutex
	accountType string
	lastSeen    time.Time
}

// AccountType is the account type reported by the last successful login.
func (s *Session) AccountType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountType
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Options struct {
	BackendBaseURL string
	BackendTimeout time.Duration
	ReportsPath    string
	Secret         string
	TTL            time.Duration
}

type Manager struct {
	opts      Options
	publisher Publisher
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. publisher may be nil.
func NewManager(opts Options, publisher Publisher) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	return &Manager{
		opts:      opts,
		publisher: publisher,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Open starts a new anonymous session with its own cookie jar.
func (m *Manager) Open() (*Session, error) {
	client, err := backend.NewClient(m.opts.BackendBaseURL, m.opts.BackendTimeout)
	if err != nil {
		return nil, err
	}
	if m.opts.ReportsPath != "" {
		client.ReportsPath = m.opts.ReportsPath
	}

	id := util.GenerateUUID().String()
	var notifier store.Notifier
	if m.publisher != nil {
		notifier = &pushNotifier{sessionID: id, publisher: m.publisher}
	}

	sess := &Session{
		ID:       id,
		Client:   client,
		Store:    store.New(client, notifier),
		lastSeen: m.now(),
	}

	m.mu.Lock()
	m.sessions[id] = sess
	n := len(m.sessions)
	m.mu.Unlock()

	log.Printf("[session]: opened %s (%d active)", id, n)
	return sess, nil
}

// Get returns a live session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrUnknownSession
	}
	sess.touch(m.now())
	return sess, nil
}

// Resolve verifies a session token and returns its session.
func (m *Manager) Resolve(token string) (*Session, error) {
	id, err := parseToken(m.opts.Secret, token)
	if err != nil {
		return nil, err
	}
	return m.Get(id)
}

// Issue signs a token for a session.
func (m *Manager) Issue(sess *Session) (string, time.Time, error) {
	return issueToken(m.opts.Secret, sess.ID, m.now().Add(m.opts.TTL))
}

// Close discards a session and its view state.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		sess.Store.Close()
		log.Printf("[session]: closed %s", id)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were evicted.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.opts.TTL)

	var idle []string
	m.mu.Lock()
	for id, sess := range m.sessions {
		if sess.idleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		m.Close(id)
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done, then closes every session.
func (m *Manager) Run(ctx context.Context) {
	interval := m.opts.TTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Printf("[session]: evicted %d idle session(s)", n)
			}
		case <-ctx.Done():
			m.CloseAll()
			return
		}
	}
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Close(id)
	}
}
