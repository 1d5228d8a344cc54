// Package catalog describes the services offered on the storefront as served
// by the admin API.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested service does not exist.
var ErrNotFound = errors.New("service not found")

// Summary is the list view of a service.
type Summary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	ExecutionTime string `json:"executionTime"`
}

// Service is the full record of a service including optional media. Image
// and Video hold whatever the admin API stores (URL or data URI).
type Service struct {
	Summary
	Image string `json:"image,omitempty"`
	Video string `json:"video,omitempty"`
}

// Source provides read access to the service catalog.
type Source interface {
	ListServices(ctx context.Context) ([]Summary, error)
	GetService(ctx context.Context, id string) (*Service, error)
}
