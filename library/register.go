package library

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// FormState tracks where a form is in its submit cycle.
type FormState int

const (
	StateEditing FormState = iota
	StateSubmitting
	StateRegistered
)

func (s FormState) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateRegistered:
		return "registered"
	}
	return fmt.Sprintf("FormState(%d)", int(s))
}

const (
	msgRegisterOK   = "Registration successful! Please log in using your new account."
	msgRegisterFail = "Registration failed. Please try again later."
)

// RegisterController backs the sign-up form. The draft is seeded with the
// default role at construction and only discarded after a successful submit.
type RegisterController struct {
	svc      UsersService
	nav      Navigator
	notifier Notifier
	log      *slog.Logger

	mu    sync.Mutex
	draft *Users
	state FormState
}

func NewRegisterController(svc UsersService, nav Navigator, notifier Notifier, logger *slog.Logger) *RegisterController {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterController{
		svc:      svc,
		nav:      nav,
		notifier: notifier,
		log:      logger,
		draft:    newUserDraft(),
		state:    StateEditing,
	}
}

func newUserDraft() *Users {
	return &Users{Role: []Role{{RoleName: DefaultRoleName}}}
}

// Draft is the record being edited. Callers mutate it directly, roles included.
func (c *RegisterController) Draft() *Users {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *RegisterController) State() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit sends the draft as is. There is no client-side validation; the
// backend is the only judge of field contents.
func (c *RegisterController) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInProgress
	case StateRegistered:
		c.mu.Unlock()
		return ErrAlreadyRegistered
	}
	c.state = StateSubmitting
	draft := *c.draft
	draft.Role = append([]Role(nil), c.draft.Role...)
	c.mu.Unlock()

	created, err := c.svc.RegisterUser(ctx, draft)
	if err != nil {
		c.mu.Lock()
		c.state = StateEditing
		c.mu.Unlock()
		c.log.Error("register user failed", "username", draft.Username, "error", err)
		c.notifier.Alert(msgRegisterFail)
		return fmt.Errorf("register user: %w", err)
	}

	c.log.Info("user registered", "user_id", created.UserID, "username", created.Username)
	c.mu.Lock()
	c.draft = newUserDraft()
	c.state = StateRegistered
	c.mu.Unlock()
	c.notifier.Alert(msgRegisterOK)
	c.nav.Navigate(Route{Name: RouteLogin})
	return nil
}
