package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBriefing/internal/compile"
	"DailyBriefing/internal/domain"
)

type mapStore struct {
	mu    sync.Mutex
	docs  map[string]domain.BriefingDocument
	err   error
	reads []string
}

func (m *mapStore) Get(_ context.Context, key string) (domain.BriefingDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, key)
	if m.err != nil {
		return domain.BriefingDocument{}, m.err
	}
	doc, ok := m.docs[key]
	if !ok {
		return domain.BriefingDocument{}, domain.ErrNotFound
	}
	return doc, nil
}

func storeWith(keys ...string) *mapStore {
	m := &mapStore{docs: map[string]domain.BriefingDocument{}}
	for _, k := range keys {
		m.docs[k] = domain.BriefingDocument{DateKey: k, Sections: []domain.Section{}, MissingSources: []string{}}
	}
	return m
}

func newGateway(store *mapStore) *Gateway {
	compiler := compile.New([]compile.SectionSpec{
		{Name: "research", Sources: []string{"arxiv"}},
		{Name: "tech-news", Sources: []string{"hn"}},
	}, nil)
	return NewGateway(store, compiler, Options{
		LookbackDays: 7,
		Now:          func() time.Time { return time.Date(2025, 11, 8, 9, 30, 0, 0, time.UTC) },
	}, nil)
}

func TestResolveExactMatch(t *testing.T) {
	t.Parallel()

	res := newGateway(storeWith("2025-11-08", "2025-11-07")).Resolve(context.Background(), "2025-11-08")
	assert.Equal(t, OriginExact, res.Origin)
	assert.Equal(t, "2025-11-08", res.Document.DateKey)
}

func TestResolvePrefersMostRecentPriorDate(t *testing.T) {
	t.Parallel()

	store := storeWith("2025-11-06", "2025-11-03")
	res := newGateway(store).Resolve(context.Background(), "2025-11-08")

	assert.Equal(t, OriginPrior, res.Origin)
	assert.Equal(t, "2025-11-06", res.Document.DateKey)
	assert.Equal(t, []string{"2025-11-08", "2025-11-07", "2025-11-06"}, store.reads)
}

func TestResolveRespectsLookbackWindow(t *testing.T) {
	t.Parallel()

	store := storeWith("2025-10-31")
	res := newGateway(store).Resolve(context.Background(), "2025-11-08")

	assert.Equal(t, OriginPlaceholder, res.Origin)
	assert.Len(t, store.reads, 8)
	assert.Equal(t, "2025-11-01", store.reads[7])
}

func TestResolveSurvivesTotalOutage(t *testing.T) {
	t.Parallel()

	store := storeWith()
	store.err = errors.New("connection refused")
	doc := newGateway(store).Retrieve(context.Background(), "2025-11-08")

	assert.Equal(t, "2025-11-08", doc.DateKey)
	assert.True(t, doc.Degraded)
	assert.Equal(t, []string{"arxiv", "hn"}, doc.MissingSources)
	assert.Equal(t, DefaultApology, doc.Notice)
	require.Len(t, doc.Sections, 2)
	for _, s := range doc.Sections {
		assert.Empty(t, s.Items)
	}
}

func TestResolveDefaultsToToday(t *testing.T) {
	t.Parallel()

	store := storeWith("2025-11-08")
	res := newGateway(store).Resolve(context.Background(), "")
	assert.Equal(t, OriginExact, res.Origin)
	assert.Equal(t, "2025-11-08", res.Requested)
}

func TestTodayUsesConfiguredTimezone(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*3600)
	g := NewGateway(nil, nil, Options{
		Location: tokyo,
		Now:      func() time.Time { return time.Date(2025, 11, 8, 20, 0, 0, 0, time.UTC) },
	}, nil)
	assert.Equal(t, "2025-11-09", g.Today())
}

func TestResolveInvalidKeyFallsBackToPlaceholder(t *testing.T) {
	t.Parallel()

	store := storeWith("2025-11-08")
	res := newGateway(store).Resolve(context.Background(), "11/08/2025")
	assert.Equal(t, OriginPlaceholder, res.Origin)
	assert.Empty(t, store.reads)
}

func TestResolveWithoutStoreOrCompiler(t *testing.T) {
	t.Parallel()

	g := NewGateway(nil, nil, Options{Apology: "nothing today"}, nil)
	doc := g.Retrieve(context.Background(), "2025-11-08")
	assert.True(t, doc.Degraded)
	assert.Equal(t, "nothing today", doc.Notice)
}

type hangingStore struct {
	mu    sync.Mutex
	reads int
}

func (h *hangingStore) Get(ctx context.Context, _ string) (domain.BriefingDocument, error) {
	h.mu.Lock()
	h.reads++
	h.mu.Unlock()
	<-ctx.Done()
	return domain.BriefingDocument{}, ctx.Err()
}

func TestResolveStopsWhenBudgetSpent(t *testing.T) {
	t.Parallel()

	store := &hangingStore{}
	compiler := compile.New([]compile.SectionSpec{{Name: "research", Sources: []string{"arxiv"}}}, nil)
	gw := NewGateway(store, compiler, Options{
		LookbackDays: 7,
		Timeout:      time.Second,
		Budget:       50 * time.Millisecond,
		Now:          func() time.Time { return time.Date(2025, 11, 8, 9, 30, 0, 0, time.UTC) },
	}, nil)

	started := time.Now()
	res := gw.Resolve(context.Background(), "2025-11-08")

	assert.Less(t, time.Since(started), 500*time.Millisecond)
	assert.Equal(t, OriginPlaceholder, res.Origin)
	assert.True(t, res.Document.Degraded)
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.reads)
}

func TestPlaceholderSkipsStore(t *testing.T) {
	t.Parallel()

	store := storeWith("2025-11-08")
	res := newGateway(store).Placeholder("")

	assert.Equal(t, OriginPlaceholder, res.Origin)
	assert.Equal(t, "2025-11-08", res.Document.DateKey)
	assert.Empty(t, store.reads)
}
