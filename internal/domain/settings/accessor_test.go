package settings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// --- Mock implementations ---

type stubFetcher struct {
	mu       sync.Mutex
	settings *SiteSettings
	err      error
	calls    int
}

func (f *stubFetcher) FetchSettings(_ context.Context) (*SiteSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.settings, f.err
}

func (f *stubFetcher) set(s *SiteSettings, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings, f.err = s, err
}

// blockingFetcher never returns until release is closed.
type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) FetchSettings(_ context.Context) (*SiteSettings, error) {
	close(f.started)
	<-f.release
	return nil, errors.New("released")
}

type panicFetcher struct{}

func (panicFetcher) FetchSettings(context.Context) (*SiteSettings, error) {
	panic("boom")
}

func remoteSettings(name string) *SiteSettings {
	return &SiteSettings{
		Company: Company{Name: name},
		Stats:   []string{"1 stat"},
	}
}

// --- Tests ---

func TestAccessor_InitialState(t *testing.T) {
	a := NewAccessor(&stubFetcher{}, zaptest.NewLogger(t))

	st := a.State()
	assert.True(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, Default(), st.Settings)
}

func TestAccessor_LoadSuccessReplacesWholesale(t *testing.T) {
	f := &stubFetcher{settings: remoteSettings("Remote Marine")}
	a := NewAccessor(f, zaptest.NewLogger(t))

	a.Load(context.Background())

	st := a.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, *remoteSettings("Remote Marine"), st.Settings)
	// No field-level merge with the defaults.
	assert.Empty(t, st.Settings.Hero.Title)
	assert.Nil(t, st.Settings.Pages)
}

func TestAccessor_LoadFailureKeepsDefault(t *testing.T) {
	f := &stubFetcher{err: errors.New("unexpected status 503")}
	a := NewAccessor(f, zaptest.NewLogger(t))

	a.Load(context.Background())

	st := a.State()
	assert.False(t, st.Loading)
	assert.NotEmpty(t, st.Error)
	assert.Contains(t, st.Error, "503")
	assert.Equal(t, Default(), st.Settings)
}

func TestAccessor_FailureAfterSuccessKeepsLastGood(t *testing.T) {
	f := &stubFetcher{settings: remoteSettings("First")}
	a := NewAccessor(f, zaptest.NewLogger(t))
	a.Load(context.Background())

	f.set(nil, errors.New("connection refused"))
	a.Reload(context.Background())

	st := a.State()
	assert.Equal(t, "First", st.Settings.Company.Name)
	assert.Contains(t, st.Error, "connection refused")
	assert.False(t, st.Loading)
}

func TestAccessor_ReloadClearsError(t *testing.T) {
	f := &stubFetcher{err: errors.New("timeout")}
	a := NewAccessor(f, zaptest.NewLogger(t))
	a.Load(context.Background())
	require.NotEmpty(t, a.State().Error)

	f.set(remoteSettings("Recovered"), nil)
	a.Reload(context.Background())

	st := a.State()
	assert.Empty(t, st.Error)
	assert.Equal(t, "Recovered", st.Settings.Company.Name)
	assert.Equal(t, 2, f.calls)
}

func TestAccessor_NeverResolvingFetch(t *testing.T) {
	f := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	a := NewAccessor(f, zaptest.NewLogger(t))

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Load(context.Background())
	}()

	<-f.started
	// Give the accessor a chance to misbehave.
	time.Sleep(20 * time.Millisecond)

	st := a.State()
	assert.True(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, Default(), st.Settings)

	close(f.release)
	<-done
	assert.False(t, a.State().Loading)
}

func TestAccessor_NilSettingsIsAnError(t *testing.T) {
	a := NewAccessor(&stubFetcher{}, zaptest.NewLogger(t))

	a.Load(context.Background())

	st := a.State()
	assert.NotEmpty(t, st.Error)
	assert.Equal(t, Default(), st.Settings)
}

func TestAccessor_FetcherPanicIsContained(t *testing.T) {
	a := NewAccessor(panicFetcher{}, zaptest.NewLogger(t))

	require.NotPanics(t, func() {
		a.Load(context.Background())
	})
	assert.Contains(t, a.State().Error, "panicked")
	assert.Equal(t, Default(), a.Settings())
}

func TestDefault_IsComplete(t *testing.T) {
	d := Default()
	assert.NotEmpty(t, d.Company.Name)
	assert.NotEmpty(t, d.Hero.Title)
	assert.NotEmpty(t, d.Stats)
	assert.NotEmpty(t, d.Contacts.Email)
	assert.NotEmpty(t, d.SEO.Title)
	assert.Contains(t, d.Pages, "services")
}
