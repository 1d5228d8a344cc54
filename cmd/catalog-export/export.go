package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/marine-storefront/internal/domain/catalog"
)

// export is the document written to disk.
type export struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Services    []catalog.Service `json:"services"`
}

func newExport(services []catalog.Service, now time.Time) export {
	if services == nil {
		services = []catalog.Service{}
	}
	return export{GeneratedAt: now.UTC(), Services: services}
}

// collect lists the catalog and fetches every full record with at most
// concurrency requests in flight. Services removed between the list and the
// fetch are skipped. Order follows the list.
func collect(ctx context.Context, src catalog.Source, concurrency int) ([]catalog.Service, error) {
	list, err := src.ListServices(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list services")
	}
	slog.Info("services listed", slog.Int("count", len(list)))

	fetched := make([]*catalog.Service, len(list))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, summary := range list {
		g.Go(func() error {
			svc, err := src.GetService(ctx, summary.ID)
			if errors.Is(err, catalog.ErrNotFound) {
				slog.Warn("service disappeared during export", slog.String("id", summary.ID))
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "get service %s", summary.ID)
			}
			fetched[i] = svc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	services := make([]catalog.Service, 0, len(fetched))
	for _, svc := range fetched {
		if svc != nil {
			services = append(services, *svc)
		}
	}
	return services, nil
}

// writeExport writes doc to path as gzip-compressed JSON. The file is
// replaced atomically so readers never see a partial export.
func writeExport(path string, doc export) (rerr error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() {
		if rerr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	zw := pgzip.NewWriter(tmp)
	if err := json.NewEncoder(zw).Encode(doc); err != nil {
		return errors.Wrap(err, "encode")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "close gzip writer")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "rename")
	}
	return nil
}
