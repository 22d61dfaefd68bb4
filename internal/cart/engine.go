// Package cart keeps a local mirror of the actor's remote cart consistent
// across user-initiated mutations. The remote store owns the lines; the
// mirror only changes after the store confirms a mutation, so the UI never
// shows an optimistic value the store might reject.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BadarHossain1/harris-vale-storefront/internal/identity"
	apperrors "github.com/BadarHossain1/harris-vale-storefront/pkg/errors"
)

// Store is the remote cart API the engine reconciles against.
type Store interface {
	FetchLines(ctx context.Context, actor identity.Actor) ([]Line, error)
	UpdateQuantity(ctx context.Context, lineID string, quantity int) error
	RemoveLine(ctx context.Context, lineID string) error
	Clear(ctx context.Context, actor identity.Actor) error
}

// Confirmer answers the confirmation dialog shown before destructive actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a plain function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Notifier is the toast sink for user-visible feedback on every
// success/failure of a mutation.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Sentinel errors surfaced by the engine.
var (
	// ErrNotConfirmed: the actor declined the confirmation dialog. The
	// mirror is untouched; nothing was sent to the store.
	ErrNotConfirmed = errors.New("cart: action not confirmed")
	// ErrBusy: a mutation is already in flight for this actor. Controls
	// should be disabled while Updating() is true, but concurrent requests
	// can still race in.
	ErrBusy = errors.New("cart: update already in progress")
)

// Engine mirrors one actor's cart. Methods are safe for concurrent use; the
// updating flag serializes mutations so two requests cannot race conflicting
// updates for the same line.
type Engine struct {
	mu       sync.Mutex
	lines    []Line
	updating bool

	store    Store
	notifier Notifier
	logger   *slog.Logger
}

// NewEngine creates an engine with an empty mirror.
func NewEngine(store Store, notifier Notifier, logger *slog.Logger) *Engine {
	return &Engine{store: store, notifier: notifier, logger: logger}
}

// Updating reports whether a mutation is currently in flight. The UI disables
// mutation controls while true.
func (e *Engine) Updating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updating
}

// Snapshot returns a copy of the mirror with totals recomputed from the
// current lines. Totals are never cached separately.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotOf(e.lines)
}

// Load replaces the entire mirror from the remote store. A fetch failure or
// malformed response is non-fatal: the mirror becomes empty and the page
// renders an empty cart instead of erroring.
func (e *Engine) Load(ctx context.Context, actor identity.Actor) Snapshot {
	lines, err := e.store.FetchLines(ctx, actor)
	if err != nil {
		e.logger.WarnContext(ctx, "cart fetch failed, treating cart as empty",
			slog.String("actor_id", actor.ID),
			slog.String("error", err.Error()),
		)
		lines = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines = lines
	return snapshotOf(e.lines)
}

// ChangeQuantity applies a quantity delta to the identified line. An unknown
// line ID is a no-op. A delta that would take the quantity below 1 routes
// through the remove path instead; a zero-quantity line is never sent to the
// store. The local quantity changes only after the store confirms.
func (e *Engine) ChangeQuantity(ctx context.Context, lineID string, delta int, confirm Confirmer) error {
	if err := e.beginUpdate(); err != nil {
		return err
	}
	defer e.endUpdate()

	line, ok := e.findLine(lineID)
	if !ok {
		return nil
	}

	newQuantity := line.Quantity + delta
	if newQuantity < 1 {
		return e.remove(ctx, line, confirm)
	}

	if err := e.store.UpdateQuantity(ctx, lineID, newQuantity); err != nil {
		e.notifier.Error(failureMessage("Could not update quantity", err))
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.lines {
		if e.lines[i].ID == lineID {
			e.lines[i].Quantity = newQuantity
			break
		}
	}
	return nil
}

// RemoveLine deletes the identified line after explicit confirmation. An
// unknown line ID is a no-op. On failure the mirror keeps the line.
func (e *Engine) RemoveLine(ctx context.Context, lineID string, confirm Confirmer) error {
	if err := e.beginUpdate(); err != nil {
		return err
	}
	defer e.endUpdate()

	line, ok := e.findLine(lineID)
	if !ok {
		return nil
	}
	return e.remove(ctx, line, confirm)
}

// Clear removes every line for the actor after explicit confirmation.
func (e *Engine) Clear(ctx context.Context, actor identity.Actor, confirm Confirmer) error {
	if err := e.beginUpdate(); err != nil {
		return err
	}
	defer e.endUpdate()

	if !confirm.Confirm("Remove all items from your cart?") {
		return ErrNotConfirmed
	}

	if err := e.store.Clear(ctx, actor); err != nil {
		e.notifier.Error(failureMessage("Could not clear cart", err))
		return err
	}

	e.mu.Lock()
	e.lines = nil
	e.mu.Unlock()

	if actor.Email != "" {
		e.notifier.Success(fmt.Sprintf("Cart cleared for %s", actor.Email))
	} else {
		e.notifier.Success("Cart cleared")
	}
	return nil
}

// remove issues the confirmed delete for a line already known to the mirror.
// Callers hold the updating flag but not e.mu.
func (e *Engine) remove(ctx context.Context, line Line, confirm Confirmer) error {
	if !confirm.Confirm(fmt.Sprintf("Remove %q from your cart?", line.Name)) {
		return ErrNotConfirmed
	}

	if err := e.store.RemoveLine(ctx, line.ID); err != nil {
		e.notifier.Error(failureMessage("Could not remove item", err))
		return err
	}

	e.mu.Lock()
	for i := range e.lines {
		if e.lines[i].ID == line.ID {
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	e.notifier.Success(fmt.Sprintf("%s removed from cart", line.Name))
	return nil
}

// beginUpdate acquires the updating flag, rejecting concurrent mutations.
func (e *Engine) beginUpdate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.updating {
		return ErrBusy
	}
	e.updating = true
	return nil
}

// endUpdate releases the updating flag. Deferred by every mutation so the UI
// never gets stuck with its controls disabled.
func (e *Engine) endUpdate() {
	e.mu.Lock()
	e.updating = false
	e.mu.Unlock()
}

// findLine looks up a line by ID in the mirror.
func (e *Engine) findLine(lineID string) (Line, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range e.lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return Line{}, false
}

// failureMessage prefers the store's own message when the error carries one.
func failureMessage(fallback string, err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
