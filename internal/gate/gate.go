// Package gate holds the terminal client's application state. A Gate switches
// between the signed-out and signed-in screens as SessionEvents arrive, applies
// user actions through a Backend, and re-fetches the inventory after every
// mutation.
package gate

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/pkg/clients/inventoryapi"
)

// ErrAuthFailed is the only error surfaced for failed sign-in or sign-up.
var ErrAuthFailed = errors.New("authentication failed")

const sessionExpiredMessage = "session expired, sign in again"

// Status is the screen the gate currently shows.
type Status int

const (
	SignedOut Status = iota
	SignedIn
)

func (s Status) String() string {
	if s == SignedIn {
		return "signed in"
	}
	return "signed out"
}

// State is everything Render needs.
type State struct {
	Status    Status
	Principal *models.Principal
	Items     []models.InventoryItem
	Search    string
	Category  models.Category
	LastErr   string
}

// Backend is the remote side of the gate. inventoryapi.Client satisfies it.
type Backend interface {
	SignUp(ctx context.Context, creds models.Credentials) (*models.Session, error)
	SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error)
	SignOut(ctx context.Context) error
	List(ctx context.Context, filter models.Filter) ([]models.InventoryItem, error)
	Add(ctx context.Context, req models.AddItemRequest) (*models.InventoryItem, error)
	Remove(ctx context.Context, identifier string) error
}

// Gate owns State. It is not safe for concurrent use; Run serialises events.
type Gate struct {
	backend  Backend
	notifier *Notifier
	logger   *zap.Logger
	state    State
}

// New builds a signed-out gate.
func New(backend Backend, notifier *Notifier, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{backend: backend, notifier: notifier, logger: logger}
}

// State returns a copy of the current state.
func (g *Gate) State() State {
	s := g.state
	if s.Items != nil {
		s.Items = append([]models.InventoryItem(nil), s.Items...)
	}
	if s.Principal != nil {
		p := *s.Principal
		s.Principal = &p
	}
	return s
}

// Restore resumes a previously issued session.
func (g *Gate) Restore(ctx context.Context, session *models.Session) {
	g.notifier.Publish(session)
	g.drain(ctx)
}

// Run applies session events and user actions one at a time until ctx ends
// or actions is closed, calling render after each.
func (g *Gate) Run(ctx context.Context, actions <-chan Event, render func(State)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-g.notifier.Events():
			g.HandleSession(ctx, ev)
		case action, ok := <-actions:
			if !ok {
				return nil
			}
			_ = g.Dispatch(ctx, action)
		}
		render(g.State())
	}
}

// HandleSession moves the gate between SignedOut and SignedIn.
func (g *Gate) HandleSession(ctx context.Context, ev SessionEvent) {
	if ev.Expired && g.notifier.stale(ev.seq) {
		return
	}

	if ev.Principal == nil {
		if ev.Expired {
			g.logger.Info("session expired")
			if err := g.backend.SignOut(ctx); err != nil {
				g.logger.Debug("discarding expired token failed", zap.Error(err))
			}
		}
		g.state = State{Status: SignedOut}
		if ev.Expired {
			g.state.LastErr = sessionExpiredMessage
		}
		return
	}

	if g.state.Principal == nil || g.state.Principal.ID != ev.Principal.ID {
		g.state = State{}
	}
	g.state.Status = SignedIn
	g.state.Principal = ev.Principal
	g.logger.Info("signed in", zap.String("principal", ev.Principal.ID))
	g.refresh(ctx)
}

// Dispatch applies one user action. Item actions while signed out are ignored.
func (g *Gate) Dispatch(ctx context.Context, event Event) error {
	g.state.LastErr = ""

	switch ev := event.(type) {
	case SignIn:
		return g.authenticate(ctx, "sign-in", ev.Credentials, g.backend.SignIn)
	case SignUp:
		return g.authenticate(ctx, "sign-up", ev.Credentials, g.backend.SignUp)
	case SignOut:
		if err := g.backend.SignOut(ctx); err != nil {
			g.logger.Warn("sign-out failed", zap.Error(err))
		}
		g.notifier.Publish(nil)
		g.drain(ctx)
		return nil
	case Search:
		g.state.Search = ev.Term
		g.refresh(ctx)
		return nil
	case SelectCategory:
		g.state.Category = ev.Category
		g.refresh(ctx)
		return nil
	case AddItem:
		if g.state.Status != SignedIn {
			return nil
		}
		_, err := g.backend.Add(ctx, models.AddItemRequest{Identifier: ev.Identifier, Category: ev.Category})
		return g.afterMutation(ctx, "add", err)
	case RemoveItem:
		if g.state.Status != SignedIn {
			return nil
		}
		return g.afterMutation(ctx, "remove", g.backend.Remove(ctx, ev.Identifier))
	default:
		return nil
	}
}

func (g *Gate) authenticate(ctx context.Context, action string, creds models.Credentials, fn func(context.Context, models.Credentials) (*models.Session, error)) error {
	session, err := fn(ctx, creds)
	if err != nil {
		g.logger.Warn(action+" failed", zap.Error(err))
		g.state.LastErr = ErrAuthFailed.Error()
		return ErrAuthFailed
	}

	g.notifier.Publish(session)
	g.drain(ctx)
	return nil
}

func (g *Gate) afterMutation(ctx context.Context, action string, err error) error {
	if err != nil {
		g.fail(ctx, action+" failed", err)
		return err
	}
	g.refresh(ctx)
	return nil
}

func (g *Gate) refresh(ctx context.Context) {
	if g.state.Status != SignedIn {
		g.state.Items = nil
		return
	}

	items, err := g.backend.List(ctx, models.Filter{Name: g.state.Search, Category: g.state.Category})
	if err != nil {
		g.fail(ctx, "refresh failed", err)
		return
	}
	g.state.Items = items
}

// fail records err for display; a rejected token ends the session.
func (g *Gate) fail(ctx context.Context, msg string, err error) {
	g.logger.Warn(msg, zap.Error(err))
	g.state.LastErr = err.Error()

	if errors.Is(err, inventoryapi.ErrUnauthorized) {
		g.notifier.Publish(nil)
		g.drain(ctx)
		g.state.LastErr = sessionExpiredMessage
	}
}

func (g *Gate) drain(ctx context.Context) {
	for {
		select {
		case ev := <-g.notifier.Events():
			g.HandleSession(ctx, ev)
		default:
			return
		}
	}
}
