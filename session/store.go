package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bluescreen10/storefront"
	"github.com/bluescreen10/storefront/apiclient"
)

// ErrIncompleteAuth is returned when a login response lacks the user or the
// token.
var ErrIncompleteAuth = errors.New("login response is missing the user or the token")

// AuthAPI is the part of the API client the session store needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (apiclient.AuthResult, error)
	Register(ctx context.Context, email, password, name string) error
	SetToken(token string)
	ClearToken()
}

var _ AuthAPI = (*apiclient.Client)(nil)

// Store holds the current session and keeps it in sync with the persisted
// copy and with the token used by the API client. It is safe for concurrent
// use.
type Store struct {
	api    AuthAPI
	store  storefront.Store
	codec  storefront.Codec
	logger *slog.Logger

	mu      sync.RWMutex
	current *Session
}

type config func(*Store)

// WithCodec sets the codec used to persist the session.
// (default storefront.JSONCodec.)
func WithCodec(codec storefront.Codec) config {
	return config(func(s *Store) {
		s.codec = codec
	})
}

// WithLogger sets the logger. (default slog.Default().)
func WithLogger(logger *slog.Logger) config {
	return config(func(s *Store) {
		s.logger = logger
	})
}

// New creates a session Store and hydrates it from store. A persisted
// session that cannot be read, cannot be decoded or is incomplete leaves
// the Store anonymous. When a session is restored its token is handed to
// api.
func New(api AuthAPI, store storefront.Store, cfgs ...config) *Store {
	s := &Store{
		api:    api,
		store:  store,
		codec:  storefront.JSONCodec{},
		logger: slog.Default(),
	}

	for _, cfg := range cfgs {
		cfg(s)
	}

	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	data, found, err := s.store.Get(storefront.SessionKey)
	if err != nil {
		s.logger.Warn("failed to read persisted session", "err", err)
		return
	}
	if !found || len(data) == 0 {
		return
	}

	var sess Session
	if err := s.codec.Decode(data, &sess); err != nil {
		s.logger.Warn("discarding unreadable persisted session", "err", err)
		return
	}

	if !sess.valid() {
		s.logger.Warn("discarding incomplete persisted session")
		return
	}

	s.current = &sess
	s.api.SetToken(sess.Token)
}

// Current returns the authenticated session. The boolean is false when the
// Store is anonymous.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// IsAuthenticated reports whether a user is logged in.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

// IsAdmin reports whether the logged in user is an admin. It is false when
// anonymous.
func (s *Store) IsAdmin() bool {
	sess, ok := s.Current()
	return ok && sess.IsAdmin()
}

// Login authenticates against the backend. On success the session is
// persisted first, then committed in memory, then its token is handed to
// the API client. On failure nothing changes and the error is returned as
// is.
func (s *Store) Login(ctx context.Context, email, password string) error {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.Info("login failed", "email", email, "err", err)
		return err
	}

	sess := Session{User: res.User, Token: res.Token}
	if !sess.valid() {
		return ErrIncompleteAuth
	}

	data, err := s.codec.Encode(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(storefront.SessionKey, data); err != nil {
		return err
	}

	s.current = &sess
	s.api.SetToken(sess.Token)

	s.logger.Info("logged in", "user_id", sess.User.ID, "role", sess.User.Role)
	return nil
}

// Register creates the account and then logs in with the same
// credentials. A registration error is returned without attempting the
// login.
func (s *Store) Register(ctx context.Context, email, password, name string) error {
	if err := s.api.Register(ctx, email, password, name); err != nil {
		s.logger.Info("registration failed", "email", email, "err", err)
		return err
	}
	return s.Login(ctx, email, password)
}

// Logout clears the in-memory session and the API token, then removes the
// persisted copy. The Store is anonymous afterwards even if the removal
// fails; that error is returned so the caller can report it.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.api.ClearToken()

	if err := s.store.Delete(storefront.SessionKey); err != nil {
		s.logger.Warn("failed to remove persisted session", "err", err)
		return err
	}
	return nil
}
