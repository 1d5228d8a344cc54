// Package cart implements the shopping cart: an ordered set of line items
// kept in process and mirrored to a persisted snapshot after every mutation.
package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Option configures a Store.
type Option func(*Store)

// WithMeterProvider records mutation counts on the given provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Store) {
		s.meterProvider = mp
	}
}

// Store owns the cart contents. A single Store is shared by every consumer
// in the process.
//
// Mutations hold mu only while changing items and take a sequence number.
// Emission (observers, snapshot write) then waits for its turn on emitMu
// without holding mu, so readers and observers never wait on storage and
// states are emitted strictly in sequence order.
type Store struct {
	lg            *zap.Logger
	storage       Storage
	key           string
	meterProvider metric.MeterProvider
	mutations     metric.Int64Counter

	mu    sync.RWMutex
	items []Item
	seq   uint64

	emitMu   sync.Mutex
	emitTurn *sync.Cond
	emitted  uint64

	obsMu     sync.Mutex
	observers map[uint64]Observer
	nextObs   uint64
}

// NewStore creates a Store and hydrates it from the snapshot stored under
// key. A missing or unreadable snapshot yields an empty cart.
func NewStore(ctx context.Context, lg *zap.Logger, storage Storage, key string, opts ...Option) *Store {
	s := &Store{
		lg:            lg,
		storage:       storage,
		key:           key,
		meterProvider: noop.NewMeterProvider(),
		observers:     make(map[uint64]Observer),
	}
	s.emitTurn = sync.NewCond(&s.emitMu)
	for _, o := range opts {
		o(s)
	}

	mutations, err := s.meterProvider.Meter("cart").Int64Counter("cart.mutations",
		metric.WithDescription("Number of cart mutations by operation"),
	)
	if err != nil {
		lg.Warn("Failed to create cart mutation counter", zap.Error(err))
		mutations, _ = noop.NewMeterProvider().Meter("cart").Int64Counter("cart.mutations")
	}
	s.mutations = mutations

	s.items = s.hydrate(ctx)
	return s
}

func (s *Store) hydrate(ctx context.Context) []Item {
	data, err := s.storage.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			s.lg.Debug("No cart snapshot, starting empty", zap.String("key", s.key))
		} else {
			s.lg.Warn("Failed to read cart snapshot, starting empty",
				zap.String("key", s.key),
				zap.Error(err),
			)
		}
		return nil
	}

	items, err := DecodeSnapshot(data)
	if err != nil {
		s.lg.Warn("Corrupt cart snapshot, starting empty",
			zap.String("key", s.key),
			zap.Error(err),
		)
		return nil
	}

	var merged []Item
	for _, item := range items {
		if merged, err = addItem(merged, item); err != nil {
			s.lg.Warn("Corrupt cart snapshot, starting empty",
				zap.String("key", s.key),
				zap.Error(err),
			)
			return nil
		}
	}
	s.lg.Info("Cart restored from snapshot",
		zap.String("key", s.key),
		zap.Int("lines", len(merged)),
	)
	return merged
}

// Add puts item into the cart. If a line with the same id exists its quantity
// grows by item.Quantity and the other fields of item are ignored; otherwise
// item is appended. A line may not exceed MaxQuantity; such an Add returns
// ErrInvalidItem and leaves the cart untouched.
func (s *Store) Add(ctx context.Context, item Item) error {
	if item.ID == "" || item.Quantity < 1 || item.Quantity > MaxQuantity {
		return ErrInvalidItem
	}
	return s.mutate(ctx, "add", func(items []Item) ([]Item, error) {
		return addItem(items, item)
	})
}

// Remove deletes the line with the given id. Unknown ids are ignored.
func (s *Store) Remove(ctx context.Context, id string) {
	_ = s.mutate(ctx, "remove", func(items []Item) ([]Item, error) {
		return removeItem(items, id), nil
	})
}

// UpdateQuantity sets the quantity of the line with the given id. A quantity
// of zero or less removes the line. Unknown ids are ignored. A quantity above
// MaxQuantity returns ErrInvalidItem and leaves the cart untouched.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity > MaxQuantity {
		return ErrInvalidItem
	}
	if quantity <= 0 {
		s.Remove(ctx, id)
		return nil
	}
	return s.mutate(ctx, "update_quantity", func(items []Item) ([]Item, error) {
		if i := indexOf(items, id); i >= 0 {
			items[i].Quantity = quantity
		}
		return items, nil
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	_ = s.mutate(ctx, "clear", func([]Item) ([]Item, error) {
		return nil, nil
	})
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// TotalItems returns the sum of quantities over all lines.
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalQuantity(s.items)
}

// Subscribe registers fn to be called with the cart contents after every
// mutation. Observers may read the Store but must not mutate it. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// mutate applies fn to the items under the write lock, then notifies
// observers and writes the snapshot in mutation order. If fn fails the cart
// is left as it was and nothing is emitted.
func (s *Store) mutate(ctx context.Context, op string, fn func(items []Item) ([]Item, error)) error {
	s.mu.Lock()
	next, err := fn(slices.Clone(s.items))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = next
	snapshot := slices.Clone(next)
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	s.emit(context.WithoutCancel(ctx), seq, snapshot)
	return nil
}

// emit waits until every earlier mutation has been emitted, then notifies
// observers and writes the snapshot.
func (s *Store) emit(ctx context.Context, seq uint64, items []Item) {
	s.emitMu.Lock()
	for s.emitted != seq-1 {
		s.emitTurn.Wait()
	}
	s.emitMu.Unlock()

	// Only the holder of turn seq gets here, so no lock is needed until the
	// turn is passed on.
	defer func() {
		s.emitMu.Lock()
		s.emitted = seq
		s.emitMu.Unlock()
		s.emitTurn.Broadcast()
	}()

	s.notify(items)
	s.persist(ctx, items)
}

func (s *Store) notify(items []Item) {
	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		s.call(fn, slices.Clone(items))
	}
}

// call runs one observer. A panicking observer is logged and does not stop
// the others or the snapshot write.
func (s *Store) call(fn Observer, items []Item) {
	defer func() {
		if rec := recover(); rec != nil {
			s.lg.Error("Cart observer panicked", zap.Any("panic", rec))
		}
	}()
	fn(items)
}

// persist writes the full snapshot. Failures are logged and never reach the
// caller of the mutation.
func (s *Store) persist(ctx context.Context, items []Item) {
	defer func() {
		if rec := recover(); rec != nil {
			s.lg.Error("Cart snapshot write panicked",
				zap.String("key", s.key),
				zap.Any("panic", rec),
			)
		}
	}()

	if err := s.storage.Save(ctx, s.key, EncodeSnapshot(items)); err != nil {
		s.lg.Error("Failed to write cart snapshot",
			zap.String("key", s.key),
			zap.Int("lines", len(items)),
			zap.Error(err),
		)
	}
}

func addItem(items []Item, item Item) ([]Item, error) {
	if i := indexOf(items, item.ID); i >= 0 {
		if item.Quantity > MaxQuantity-items[i].Quantity {
			return nil, errors.Wrapf(ErrInvalidItem, "quantity of %q would exceed %d", item.ID, MaxQuantity)
		}
		items[i].Quantity += item.Quantity
		return items, nil
	}
	return append(items, item), nil
}

func removeItem(items []Item, id string) []Item {
	if i := indexOf(items, id); i >= 0 {
		return slices.Delete(items, i, i+1)
	}
	return items
}

func indexOf(items []Item, id string) int {
	return slices.IndexFunc(items, func(item Item) bool {
		return item.ID == id
	})
}

func totalQuantity(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
