// Package session keeps the portal's login and preferences between runs.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/client"
	"github.com/trezcool/darasa/core/user"
)

type Appearance string

const (
	Light Appearance = "light"
	Dark  Appearance = "dark"
)

var ErrInvalidAppearance = errors.New("appearance must be light or dark")

func ParseAppearance(s string) (Appearance, error) {
	switch a := Appearance(s); a {
	case Light, Dark:
		return a, nil
	}
	return "", ErrInvalidAppearance
}

// Session is persisted as JSON.
type Session struct {
	AccessToken string     `json:"access_token,omitempty"`
	User        *user.User `json:"user,omitempty"`
	Appearance  Appearance `json:"appearance"`
}

func (s Session) LoggedIn() bool { return s.AccessToken != "" && s.User != nil }

// tokenExpired reads the exp claim without checking the signature: only the API can verify it.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.StandardClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return true
	}
	return claims.ExpiresAt != 0 && now.Unix() >= claims.ExpiresAt
}

// Load reads the session at path. A missing file is an empty session and an expired token is dropped.
func Load(path string) (Session, error) {
	sess := Session{Appearance: Light}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return sess, nil
	}
	if err != nil {
		return sess, errors.Wrap(err, "reading session")
	}
	if err = json.Unmarshal(data, &sess); err != nil {
		return Session{Appearance: Light}, errors.Wrap(err, "decoding session")
	}
	if _, err = ParseAppearance(string(sess.Appearance)); err != nil {
		sess.Appearance = Light
	}
	if sess.AccessToken != "" && tokenExpired(sess.AccessToken, time.Now()) {
		sess.AccessToken = ""
		sess.User = nil
	}
	return sess, nil
}

func Save(path string, sess Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "creating session directory")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o600), "writing session")
}

// Manager binds a session file to an API client.
type Manager struct {
	mu   sync.Mutex
	path string
	api  *client.Client
	sess Session
}

// NewManager loads the session at path and hands its token to api.
func NewManager(path string, api *client.Client) (*Manager, error) {
	sess, err := Load(path)
	if err != nil {
		return nil, err
	}
	api.SetToken(sess.AccessToken)
	return &Manager{path: path, api: api, sess: sess}, nil
}

func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

func (m *Manager) Login(ctx context.Context, username, password string) (user.User, error) {
	tk, err := m.api.Login(ctx, username, password)
	if err != nil {
		return user.User{}, err
	}
	m.api.SetToken(tk.AccessToken)
	usr, err := m.api.Me(ctx)
	if err != nil {
		m.api.SetToken("")
		return user.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.AccessToken = tk.AccessToken
	m.sess.User = &usr
	return usr, Save(m.path, m.sess)
}

// Refresh re-reads the current user. The session is dropped when the API no longer accepts it.
func (m *Manager) Refresh(ctx context.Context) (user.User, error) {
	usr, err := m.api.Me(ctx)
	if client.IsStatus(err, http.StatusUnauthorized) || client.IsStatus(err, http.StatusForbidden) {
		if lerr := m.Logout(); lerr != nil {
			return user.User{}, lerr
		}
		return user.User{}, err
	}
	if err != nil {
		return user.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.User = &usr
	return usr, Save(m.path, m.sess)
}

// Logout forgets the token and the user; the appearance is kept.
func (m *Manager) Logout() error {
	m.api.SetToken("")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.AccessToken = ""
	m.sess.User = nil
	return Save(m.path, m.sess)
}

func (m *Manager) SetAppearance(a Appearance) error {
	if _, err := ParseAppearance(string(a)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.Appearance = a
	return Save(m.path, m.sess)
}
