// Package session owns login, logout, and register orchestration and the
// authenticated/unauthenticated state machine derived from stored
// credentials.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/voxform/voxform-go/api"
	"github.com/voxform/voxform-go/credstore"
)

// State is the controller's lifecycle position.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateRestoring       State = "restoring"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

// UserProfile is the cached identity of the signed-in user. It is only ever
// replaced wholesale, never field-patched.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Controller drives the session state machine over the HTTP client and the
// credential store.
type Controller struct {
	client *api.Client
	creds  credstore.Store

	mu    sync.Mutex
	state State
	token string
	user  *UserProfile
}

// New creates a Controller in the uninitialized state and registers it on
// the client's session-expiry signal, so a 401 anywhere immediately demotes
// the in-memory session.
func New(client *api.Client, creds credstore.Store) *Controller {
	c := &Controller{
		client: client,
		creds:  creds,
		state:  StateUninitialized,
	}
	client.OnSessionExpired(c.sessionExpired)
	return c
}

// Restore rehydrates the session from the credential store. It must run
// before anything branches on authentication state; both token and cached
// profile present means authenticated, anything else unauthenticated.
func (c *Controller) Restore(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateRestoring
	c.mu.Unlock()

	token, hasToken, err := c.creds.Get(ctx, credstore.KeyToken)
	if err != nil {
		c.setUnauthenticated()
		return fmt.Errorf("read stored token: %w", err)
	}
	raw, hasUser, err := c.creds.Get(ctx, credstore.KeyUser)
	if err != nil {
		c.setUnauthenticated()
		return fmt.Errorf("read stored profile: %w", err)
	}

	if !hasToken || token == "" || !hasUser {
		c.setUnauthenticated()
		return nil
	}

	var profile UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		// A corrupt cached profile is treated as no session.
		slog.Warn("discarding corrupt cached profile", "error", err)
		c.setUnauthenticated()
		return nil
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.token = token
	c.user = &profile
	c.mu.Unlock()
	slog.Debug("session restored", "user_id", profile.ID)
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// Login authenticates against the remote API and, on success, persists the
// token and profile. On failure the controller stays unauthenticated and the
// classified error is returned; retry beyond the client's own policy is not
// attempted.
func (c *Controller) Login(ctx context.Context, email, password string) (*UserProfile, error) {
	c.mu.Lock()
	c.state = StateAuthenticating
	c.mu.Unlock()

	var resp loginResponse
	if err := c.client.Post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		c.setUnauthenticated()
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := c.persist(ctx, resp.Token, &resp.User); err != nil {
		c.setUnauthenticated()
		return nil, err
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.token = resp.Token
	c.user = &resp.User
	c.mu.Unlock()
	slog.Info("user logged in", "user_id", resp.User.ID)
	return &resp.User, nil
}

// Logout clears the session unconditionally and without network
// confirmation.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.creds.Delete(ctx, credstore.KeyToken); err != nil {
		slog.Warn("failed to clear stored token", "error", err)
	}
	if err := c.creds.Delete(ctx, credstore.KeyUser); err != nil {
		slog.Warn("failed to clear stored profile", "error", err)
	}
	c.setUnauthenticated()
	slog.Info("user logged out")
}

type registerResponse struct {
	Message string `json:"message"`
}

// Register creates an account. It does not establish a session; on success
// the server confirmation is returned and the caller is expected to Login
// separately.
func (c *Controller) Register(ctx context.Context, input RegisterInput) (string, error) {
	var resp registerResponse
	if err := c.client.Post(ctx, "/auth/register", input, &resp); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return resp.Message, nil
}

// IsAuthenticated derives from token and profile presence on every call; it
// is never a separately maintained flag.
func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != "" && c.user != nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns the cached profile, or nil when signed out.
func (c *Controller) User() *UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Controller) persist(ctx context.Context, token string, user *UserProfile) error {
	if err := c.creds.Set(ctx, credstore.KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := c.creds.Set(ctx, credstore.KeyUser, string(raw)); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	return nil
}

func (c *Controller) setUnauthenticated() {
	c.mu.Lock()
	c.state = StateUnauthenticated
	c.token = ""
	c.user = nil
	c.mu.Unlock()
}

// sessionExpired runs on the client's 401 signal. The client has already
// cleared the credential store.
func (c *Controller) sessionExpired() {
	c.setUnauthenticated()
	slog.Info("session expired")
}
