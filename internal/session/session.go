// Package session holds the client's authentication state.
//
// A [Manager] is created once at startup, loads the persisted session from a
// [storage.Store] and exposes login, register and logout. Every token or user
// change is written back under [StorageKey]; logout removes the entry.
package session

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicbox/internal/api"
	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/desertthunder/musicbox/internal/storage"
)

// StorageKey namespaces the persisted session entry.
const StorageKey = "music_player_auth_v1"

// NoTokenMessage is the login failure reported when the server returned no token.
const NoTokenMessage = "Login succeeded but no token was returned by the server."

// State is the lifecycle stage of a [Manager].
type State int

const (
	Uninitialized State = iota
	Initializing
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// AuthAPI is the subset of [api.Client] the session needs.
type AuthAPI interface {
	Login(ctx context.Context, creds api.Credentials) (any, error)
	Register(ctx context.Context, creds api.Credentials) (any, error)
}

// Manager owns the session token and user.
type Manager struct {
	client AuthAPI
	store  storage.Store
	logger *log.Logger

	mu        sync.Mutex
	state     State
	session   models.Session
	tokenType string
	gen       uint64
	subs      map[int]func(models.Session)
	nextSub   int
}

// New creates a [Manager] in the Uninitialized state. Call [Manager.Load] before use.
func New(client AuthAPI, store storage.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		client:  client,
		store:   store,
		logger:  logger,
		session: models.Session{Initializing: true},
		subs:    make(map[int]func(models.Session)),
	}
}

// State returns the current lifecycle stage.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Token returns the current token, empty when anonymous.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Token
}

// TokenType returns the token type reported by the server, defaulting to Bearer.
func (m *Manager) TokenType() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokenType == "" {
		return models.DefaultTokenType
	}
	return m.tokenType
}

// Subscribe registers fn to be called with a snapshot after every state change.
// The returned func removes the subscription.
func (m *Manager) Subscribe(fn func(models.Session)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Load reads the persisted session.
//
// Missing, unreadable or corrupt entries leave the session anonymous; Load
// never fails.
func (m *Manager) Load(ctx context.Context) {
	m.mu.Lock()
	m.state = Initializing
	m.session = models.Session{Initializing: true}
	m.mu.Unlock()
	m.notify()

	var persisted models.Session
	raw, ok, err := m.store.Get(StorageKey)
	switch {
	case err != nil:
		// Unreadable storage degrades to "no persisted session".
		m.logger.Warn("failed to read persisted session", "error", err)
	case !ok:
	default:
		if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
			// Corrupt entries are treated as absent.
			m.logger.Warn("ignoring corrupt persisted session", "error", err)
			persisted = models.Session{}
		}
	}

	m.mu.Lock()
	m.session = models.Session{}
	if persisted.Token != "" {
		m.session.Token = persisted.Token
		m.session.User = persisted.User
	}
	m.state = stateOf(m.session)
	m.mu.Unlock()

	m.logger.Debug("session loaded", "state", m.State())
	m.notify()
}

// Login authenticates with the backend and stores the returned token.
//
// A successful response without an extractable token fails with
// [*shared.SessionError] carrying the raw payload. A call overtaken by a newer
// Login, Register or Logout returns [shared.ErrSuperseded] and changes nothing.
func (m *Manager) Login(ctx context.Context, email, password string) (models.AuthResult, error) {
	gen := m.begin()

	data, err := m.client.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return models.AuthResult{}, err
	}

	res := models.NormalizeAuthResponse(data)
	if res.Token == "" {
		return res, &shared.SessionError{Message: NoTokenMessage, Payload: data}
	}

	if !m.apply(gen, res, email) {
		return res, shared.ErrSuperseded
	}
	return res, nil
}

// Register creates an account.
//
// Without a returned token the call still succeeds and the session stays
// anonymous; callers branch on the result's Token.
func (m *Manager) Register(ctx context.Context, email, password string) (models.AuthResult, error) {
	gen := m.begin()

	data, err := m.client.Register(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return models.AuthResult{}, err
	}

	res := models.NormalizeAuthResponse(data)
	if res.Token == "" {
		return res, nil
	}

	if !m.apply(gen, res, email) {
		return res, shared.ErrSuperseded
	}
	return res, nil
}

// Logout clears the session and removes the persisted entry. It makes no server call.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.gen++
	m.session = models.Session{}
	m.tokenType = ""
	m.state = Anonymous
	m.mu.Unlock()

	if err := m.store.Remove(StorageKey); err != nil {
		// Removal failures are accepted; the in-memory session is already cleared.
		m.logger.Warn("failed to remove persisted session", "error", err)
	}
	m.notify()
}

// begin starts a login/register call and returns its generation.
func (m *Manager) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.gen
}

// apply stores res if gen is still the latest generation.
func (m *Manager) apply(gen uint64, res models.AuthResult, email string) bool {
	user := res.User
	if user == nil {
		user = &models.User{Email: email}
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		m.logger.Debug("discarding superseded auth response", "generation", gen)
		return false
	}
	m.session = models.Session{Token: res.Token, User: user}
	m.tokenType = res.TokenType
	m.state = Authenticated
	snap := m.snapshot()
	m.mu.Unlock()

	m.persist(snap)
	m.notify()
	return true
}

func (m *Manager) persist(s models.Session) {
	data, err := json.Marshal(s)
	if err != nil {
		m.logger.Warn("failed to encode session", "error", err)
		return
	}
	if err := m.store.Set(StorageKey, string(data)); err != nil {
		// Write failures are accepted: the session lives on in memory.
		m.logger.Warn("failed to persist session", "error", err)
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	snap := m.snapshot()
	subs := make([]func(models.Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (m *Manager) snapshot() models.Session {
	s := m.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	s.Initializing = m.state == Uninitialized || m.state == Initializing
	return s
}

func stateOf(s models.Session) State {
	if s.Authenticated() {
		return Authenticated
	}
	return Anonymous
}
