package app

import (
	"context"
	"errors"
	"fmt"

	"ssoenhancer/view"
)

// ErrNoHandler is returned for actions nobody registered for
var ErrNoHandler = errors.New("no handler for action")

// Modifiers are the keys held while an action was triggered
type Modifiers struct {
	Alt bool
}

// Handler runs one kind of action
type Handler func(ctx context.Context, a view.Action, mod Modifiers) error

// Dispatcher routes actions to handlers by kind. Handlers are registered
// once; rebuilt trees only carry action descriptions.
type Dispatcher struct {
	handlers map[view.ActionKind]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[view.ActionKind]Handler{}}
}

// Handle registers h for kind. Registering a kind twice panics.
func (d *Dispatcher) Handle(kind view.ActionKind, h Handler) {
	if _, ok := d.handlers[kind]; ok {
		panic(fmt.Sprintf("app: handler for %q already registered", kind))
	}
	d.handlers[kind] = h
}

// Dispatch runs the handler for a
func (d *Dispatcher) Dispatch(ctx context.Context, a *view.Action, mod Modifiers) error {
	if a == nil {
		return nil
	}
	h, ok := d.handlers[a.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, a.Kind)
	}
	return h(ctx, *a, mod)
}

// Kinds lists the registered action kinds
func (d *Dispatcher) Kinds() []view.ActionKind {
	kinds := make([]view.ActionKind, 0, len(d.handlers))
	for k := range d.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}

func (c *Controller) routes() *Dispatcher {
	d := NewDispatcher()

	d.Handle(view.ActionFavAccount, func(ctx context.Context, a view.Action, _ Modifiers) error {
		_, err := c.ToggleFavoriteAccount(a.AccountID)
		return err
	})
	d.Handle(view.ActionFavRole, func(ctx context.Context, a view.Action, mod Modifiers) error {
		var err error
		if mod.Alt {
			_, err = c.ToggleFavoriteRole(a.Role)
		} else {
			_, err = c.ToggleFavoriteCombo(a.AccountID, a.Role)
		}
		return err
	})
	d.Handle(view.ActionExpand, func(ctx context.Context, a view.Action, _ Modifiers) error {
		if a.AccountID == "" {
			return c.ExpandHandle(ctx, a.Handle)
		}
		return c.Expand(ctx, a.AccountID)
	})
	d.Handle(view.ActionExpandAll, func(ctx context.Context, _ view.Action, _ Modifiers) error {
		_, err := c.ExpandAll(ctx, c.progress)
		return err
	})
	d.Handle(view.ActionKeys, func(ctx context.Context, a view.Action, _ Modifiers) error {
		return c.GenerateKeys(ctx, a.AccountID, a.Role)
	})
	d.Handle(view.ActionLaunch, func(ctx context.Context, a view.Action, _ Modifiers) error {
		return c.Launch(ctx, a.AccountID, a.Role)
	})
	d.Handle(view.ActionCopyURL, func(ctx context.Context, a view.Action, _ Modifiers) error {
		_, err := c.CopyURL(a.AccountID, a.Role)
		return err
	})
	d.Handle(view.ActionFavoritesOnly, func(ctx context.Context, _ view.Action, _ Modifiers) error {
		c.ToggleFavoritesOnly()
		return nil
	})

	return d
}
