package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/marine-storefront/internal/domain/catalog"
)

type fakeSource struct {
	list    []catalog.Summary
	listErr error
	getErr  map[string]error

	mu       sync.Mutex
	inFlight int
	peak     int
	calls    atomic.Int32
}

func (f *fakeSource) ListServices(context.Context) ([]catalog.Summary, error) {
	return f.list, f.listErr
}

func (f *fakeSource) GetService(_ context.Context, id string) (*catalog.Service, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if err := f.getErr[id]; err != nil {
		return nil, err
	}
	return &catalog.Service{Summary: catalog.Summary{ID: id, Name: "Service " + id}}, nil
}

func summaries(ids ...string) []catalog.Summary {
	out := make([]catalog.Summary, len(ids))
	for i, id := range ids {
		out[i] = catalog.Summary{ID: id}
	}
	return out
}

func TestCollect(t *testing.T) {
	t.Run("keeps list order and bounds concurrency", func(t *testing.T) {
		src := &fakeSource{list: summaries("1", "2", "3", "4", "5", "6")}

		got, err := collect(context.Background(), src, 2)
		require.NoError(t, err)

		require.Len(t, got, 6)
		for i, svc := range got {
			assert.Equal(t, src.list[i].ID, svc.ID)
		}
		assert.LessOrEqual(t, src.peak, 2)
	})

	t.Run("skips vanished services", func(t *testing.T) {
		src := &fakeSource{
			list:   summaries("1", "2", "3"),
			getErr: map[string]error{"2": catalog.ErrNotFound},
		}

		got, err := collect(context.Background(), src, 4)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "1", got[0].ID)
		assert.Equal(t, "3", got[1].ID)
	})

	t.Run("fails on upstream error", func(t *testing.T) {
		src := &fakeSource{
			list:   summaries("1", "2"),
			getErr: map[string]error{"1": errors.New("bad gateway")},
		}

		_, err := collect(context.Background(), src, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "get service 1")
	})

	t.Run("fails on list error", func(t *testing.T) {
		src := &fakeSource{listErr: errors.New("refused")}

		_, err := collect(context.Background(), src, 1)
		require.Error(t, err)
		assert.Zero(t, src.calls.Load())
	})
}

func TestWriteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.json.gz")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := newExport([]catalog.Service{
		{Summary: catalog.Summary{ID: "1", Name: "Radar install", Price: "5000"}, Image: "/img/radar.jpg"},
	}, now)

	require.NoError(t, writeExport(path, doc))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := pgzip.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	var got export
	require.NoError(t, json.NewDecoder(zr).Decode(&got))
	assert.Equal(t, doc, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be gone")
}

func TestNewExport_EmptyCatalog(t *testing.T) {
	doc := newExport(nil, time.Now())

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"services":[]`)
}
