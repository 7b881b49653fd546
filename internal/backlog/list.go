// Package backlog holds the user's ranked backlog with optimistic reordering.
//
// A List is either Stable (the displayed order is the last order the backend
// confirmed, or the order it served) or Pending (a locally applied order is being
// saved). Reorder applies a move immediately; Persist saves the latest order and,
// on failure, replaces the displayed order with a fresh fetch from the backend.
// Reconciliation happens in one place, Persist, so the displayed order can never
// stay ahead of the backend after a failed save.
package backlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/idilsaglam/backlog/internal/logging"
	"github.com/idilsaglam/backlog/internal/model"
	"go.uber.org/zap"
)

var (
	// ErrOrderNotSaved wraps a failed save; the list has been reconciled.
	ErrOrderNotSaved = errors.New("failed to save order")
	// ErrIndexMismatch means the caller's from index no longer points at the item.
	ErrIndexMismatch = errors.New("item is not at the given position")
	ErrOutOfRange    = errors.New("position out of range")
	// ErrSaveInFlight means Load was refused because an order is being saved.
	ErrSaveInFlight = errors.New("order is being saved")
)

type State int

const (
	Stable State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "stable"
}

// Backend is the part of the API the list needs.
type Backend interface {
	ListBacklog(ctx context.Context, userID int64) ([]model.BacklogItem, error)
	ReorderBacklog(ctx context.Context, ids []int64) error
}

// List is safe for concurrent use; callers typically run Persist on a goroutine.
type List struct {
	backend Backend
	userID  int64
	log     *logging.Logger

	mu        sync.Mutex
	items     []model.BacklogItem // displayed active order
	history   []model.BacklogItem
	confirmed []model.BacklogItem // last order known to match the backend
	filter    string
	state     State
	gen       uint64 // bumped on every applied local move
	closed    bool
}

func NewList(backend Backend, userID int64, log *logging.Logger) *List {
	if log == nil {
		log = logging.NewNop()
	}
	return &List{
		backend: backend,
		userID:  userID,
		log:     log.Named("backlog").With(zap.Int64("user.id", userID)),
	}
}

// Load replaces the list with the backend's authoritative order. While Pending it
// leaves the list alone and returns ErrSaveInFlight; Persist settles the order.
func (l *List) Load(ctx context.Context) error {
	if l.State() == Pending {
		return ErrSaveInFlight
	}
	fetched, err := l.backend.ListBacklog(ctx, l.userID)
	if err != nil {
		return fmt.Errorf("load backlog: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	// a move made during the fetch wins over the fetched order
	if l.state == Pending {
		return ErrSaveInFlight
	}
	l.applyFetched(fetched)
	return nil
}

func (l *List) applyFetched(fetched []model.BacklogItem) {
	active, history := Partition(fetched)
	l.items = active
	l.history = history
	l.confirmed = clone(active)
	l.gen++
}

// Items returns a copy of the full displayed order.
func (l *List) Items() []model.BacklogItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clone(l.items)
}

// Visible returns the displayed order restricted to the current filter.
func (l *List) Visible() []model.BacklogItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.BacklogItem, 0, len(l.items))
	for _, it := range l.items {
		if Matches(it.Game.Title, l.filter) {
			out = append(out, it)
		}
	}
	return out
}

// History returns finished items, most recent first.
func (l *List) History() []model.BacklogItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return clone(l.history)
}

// PlayingNow is the head of the backlog: the first three items.
func (l *List) PlayingNow() []model.BacklogItem {
	items := l.Items()
	return items[:min(3, len(items))]
}

// Queue is everything after PlayingNow.
func (l *List) Queue() []model.BacklogItem {
	items := l.Items()
	return items[min(3, len(items)):]
}

func (l *List) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// SetFilter sets the display filter. A blank query clears it.
func (l *List) SetFilter(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filter = query
}

// Filtering reports whether a display filter is active. Reorder is disabled while it is.
func (l *List) Filtering() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filtering()
}

func (l *List) filtering() bool { return strings.TrimSpace(l.filter) != "" }

// Reorder moves itemID from position from to position to (clamped) in the displayed
// order. The new order is visible immediately. It reports whether the caller must
// schedule Persist: true only when the list just left Stable. A move while Pending
// is picked up by the Persist run already in flight.
//
// Reorder is a no-op while a filter is active, after Close, and when the move does
// not change the order.
func (l *List) Reorder(itemID int64, from, to int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.filtering() {
		return false, nil
	}
	if from < 0 || from >= len(l.items) {
		return false, fmt.Errorf("%w: from=%d len=%d", ErrOutOfRange, from, len(l.items))
	}
	if l.items[from].ID != itemID {
		return false, fmt.Errorf("%w: item %d, position %d", ErrIndexMismatch, itemID, from)
	}
	to = clamp(to, 0, len(l.items)-1)
	if to == from {
		return false, nil
	}

	l.items = Move(l.items, from, to)
	l.gen++
	if l.state == Pending {
		return false, nil
	}
	l.state = Pending
	return true, nil
}

// MoveTo is Reorder addressed by item id alone: it looks up the current position.
func (l *List) MoveTo(itemID int64, to int) (bool, error) {
	l.mu.Lock()
	from := indexOf(l.items, itemID)
	l.mu.Unlock()
	if from < 0 {
		return false, fmt.Errorf("%w: item %d not in backlog", ErrOutOfRange, itemID)
	}
	return l.Reorder(itemID, from, to)
}

// Persist saves the displayed order while the list is Pending. Orders applied
// while a save is in flight are saved next, so the last save carries the latest
// order. On failure the displayed order is replaced by a fresh fetch and the
// returned error wraps ErrOrderNotSaved. If that fetch fails too, the last
// confirmed order is restored.
func (l *List) Persist(ctx context.Context) error {
	l.mu.Lock()
	if l.closed || l.state != Pending {
		l.mu.Unlock()
		return nil
	}
	for {
		order := ids(l.items)
		gen := l.gen
		l.mu.Unlock()

		err := l.backend.ReorderBacklog(ctx, order)

		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return nil
		}
		if err != nil {
			l.mu.Unlock()
			return l.reconcile(ctx, err)
		}
		if gen == l.gen {
			l.confirmed = clone(l.items)
			l.state = Stable
			l.mu.Unlock()
			l.log.Debug(ctx, "order saved", zap.Int("items", len(order)))
			return nil
		}
		l.log.Debug(ctx, "order superseded while saving, resubmitting")
	}
}

func (l *List) reconcile(ctx context.Context, cause error) error {
	l.log.Warn(ctx, "order not saved, reloading from backend", zap.Error(cause))
	fetched, fetchErr := l.backend.ListBacklog(ctx, l.userID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.state = Stable
	if fetchErr != nil {
		l.log.Error(ctx, "reload after failed save", zap.Error(fetchErr))
		l.items = clone(l.confirmed)
		l.gen++
		return fmt.Errorf("%w: %w (reload: %w)", ErrOrderNotSaved, cause, fetchErr)
	}
	l.applyFetched(fetched)
	return fmt.Errorf("%w: %w", ErrOrderNotSaved, cause)
}

// Close stops the list from applying any further results.
func (l *List) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func clone(items []model.BacklogItem) []model.BacklogItem {
	if items == nil {
		return nil
	}
	out := make([]model.BacklogItem, len(items))
	copy(out, items)
	return out
}
