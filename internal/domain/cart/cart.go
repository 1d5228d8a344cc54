package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// Unit is the sales unit of a line item.
type Unit string

const (
	UnitPiece Unit = "piece"
	UnitSet   Unit = "set"
	UnitPair  Unit = "pair"
)

// Valid reports whether u is one of the known sales units.
func (u Unit) Valid() bool {
	switch u {
	case UnitPiece, UnitSet, UnitPair:
		return true
	default:
		return false
	}
}

// MaxQuantity is the largest quantity a single line may hold.
const MaxQuantity = 1_000_000

var (
	// ErrInvalidItem is returned for an item without an id or with a
	// quantity outside 1..MaxQuantity, including one reached by merging.
	ErrInvalidItem = errors.New("invalid cart item")
	// ErrNoSnapshot is returned by a Storage when no snapshot exists for the key.
	ErrNoSnapshot = errors.New("snapshot not found")
)

// Item is a single line in the cart. Price is decimal text and is never
// interpreted by the Store.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image,omitempty"`
	Quantity int    `json:"quantity"`
	Unit     Unit   `json:"unit"`
}

// Storage persists named snapshots.
type Storage interface {
	// Load returns the snapshot stored under key, or ErrNoSnapshot.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save overwrites the snapshot stored under key.
	Save(ctx context.Context, key string, data []byte) error
}

// Observer receives the full cart contents after a mutation.
type Observer func(items []Item)
