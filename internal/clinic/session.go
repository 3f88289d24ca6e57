package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"sync"
)

// Session holds the authenticated user for the whole process. Screens read
// it and subscribe to changes; only Auth writes it.
type Session struct {
	mu   sync.RWMutex
	user *User
	path string
	subs map[int]func(*User)
	next int
}

// NewSession creates an empty session persisted at path. An empty path
// keeps the session in memory only.
func NewSession(path string) *Session {
	return &Session{path: path, subs: make(map[int]func(*User))}
}

// Load restores a session saved by a previous run. A missing file is not
// an error.
func (s *Session) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot read session: %w", err)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return fmt.Errorf("corrupt session file %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return nil
}

// Current returns a copy of the signed-in user, or nil.
func (s *Session) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// HasRole reports whether the signed-in user has one of roles.
func (s *Session) HasRole(roles ...string) bool {
	u := s.Current()
	return u != nil && slices.Contains(roles, u.Role)
}

// Subscribe calls fn with the current user now and on every change. The
// returned func stops the notifications.
func (s *Session) Subscribe(fn func(*User)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	fn(s.Current())
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(u *User) error {
	s.mu.Lock()
	s.user = u
	subs := make([]func(*User), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	var err error
	if s.path != "" {
		if u == nil {
			if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = fmt.Errorf("cannot remove session: %w", rmErr)
			}
		} else {
			data, _ := json.Marshal(u)
			if wErr := os.WriteFile(s.path, data, 0600); wErr != nil {
				err = fmt.Errorf("cannot save session: %w", wErr)
			}
		}
	}

	for _, fn := range subs {
		fn(s.Current())
	}
	return err
}

// Auth signs users in and out against /usuarios.
type Auth struct {
	client  *Client
	session *Session
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"usuario"`
	Role    string `json:"rol"`
}

// Login checks credentials and stores the user in the session.
func (a *Auth) Login(ctx context.Context, username, password string) (*User, error) {
	body := map[string]string{"username": username, "password": password}
	var resp loginResponse
	if err := a.client.Do(ctx, http.MethodPost, "/usuarios/login", nil, body, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !resp.Success || resp.User == nil {
		msg := resp.Message
		if msg == "" {
			msg = "Credenciales inválidas"
		}
		return nil, &ValidationError{Status: http.StatusUnauthorized, Message: msg}
	}
	if resp.User.Role == "" {
		resp.User.Role = resp.Role
	}
	a.client.Logger.Info("signed in", "user", resp.User.Username, "role", resp.User.Role)
	if err := a.session.set(resp.User); err != nil {
		return resp.User, err
	}
	return resp.User, nil
}

// Logout clears the session.
func (a *Auth) Logout() error {
	return a.session.set(nil)
}

// Session returns the session this Auth writes to.
func (a *Auth) Session() *Session {
	return a.session
}
