package referencecache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	refcacherepo "github.com/signal-noise/workbench/internal/data/repos/referencecache"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type fakeRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.HypothesisReferenceCache
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uuid.UUID]*domain.HypothesisReferenceCache{}}
}

func (f *fakeRepo) Get(_ dbctx.Context, hypothesisID uuid.UUID) (*domain.HypothesisReferenceCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[hypothesisID], nil
}

func (f *fakeRepo) Upsert(_ dbctx.Context, hypothesisID uuid.UUID, fullText string) (*domain.HypothesisReferenceCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := &domain.HypothesisReferenceCache{
		HypothesisID:   hypothesisID,
		FullText:       fullText,
		CharacterCount: len([]rune(fullText)),
		FetchedAt:      time.Now(),
	}
	f.rows[hypothesisID] = row
	return row, nil
}

var _ refcacherepo.Repo = (*fakeRepo)(nil)

type countingCrawler struct {
	calls   int32
	text    string
	started chan struct{}
	release chan struct{}
}

func (c *countingCrawler) FetchText(ctx context.Context, url string) (string, int, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.release != nil {
		<-c.release
	}
	return c.text, len([]rune(c.text)), nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	return log
}

// S6: two concurrent deep-analyze requests for the same hypothesis must
// result in exactly one Crawler.FetchText call.
func TestGetReferenceText_ConcurrentCallsCoalesceToOneFetch(t *testing.T) {
	crawler := &countingCrawler{text: "the reference text", release: make(chan struct{})}
	svc := NewService(newFakeRepo(), crawler, nil, testLogger(t))

	h := &domain.Hypothesis{
		ID:            uuid.New(),
		ReferenceURL:  "https://example.com/paper",
		ReferenceType: domain.ReferenceTypePaper,
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.GetReferenceText(dbctx.Context{Ctx: context.Background()}, h)
		}()
	}

	// Let both goroutines queue up on singleflight before releasing the
	// in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(crawler.release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if results[i] != crawler.text {
			t.Fatalf("call %d: unexpected text: %q", i, results[i])
		}
	}
	if got := atomic.LoadInt32(&crawler.calls); got != 1 {
		t.Fatalf("expected exactly 1 Crawler.FetchText call, got %d", got)
	}
}

func TestGetReferenceText_EmptyReferenceURLSkipsFetch(t *testing.T) {
	crawler := &countingCrawler{text: "should not be used"}
	svc := NewService(newFakeRepo(), crawler, nil, testLogger(t))

	text, err := svc.GetReferenceText(dbctx.Context{Ctx: context.Background()}, &domain.Hypothesis{ID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
	if atomic.LoadInt32(&crawler.calls) != 0 {
		t.Fatalf("expected no fetch for empty reference_url")
	}
}

func TestGetReferenceText_ReusesFreshCache(t *testing.T) {
	repo := newFakeRepo()
	crawler := &countingCrawler{text: "fresh text"}
	svc := NewService(repo, crawler, nil, testLogger(t))

	h := &domain.Hypothesis{ID: uuid.New(), ReferenceURL: "https://example.com/a", ReferenceType: domain.ReferenceTypeArticle}
	repo.rows[h.ID] = &domain.HypothesisReferenceCache{
		HypothesisID: h.ID,
		FullText:     "cached text",
		FetchedAt:    time.Now(),
	}

	text, err := svc.GetReferenceText(dbctx.Context{Ctx: context.Background()}, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "cached text" {
		t.Fatalf("expected cached text to be reused, got %q", text)
	}
	if atomic.LoadInt32(&crawler.calls) != 0 {
		t.Fatalf("expected no fetch when cache is fresh")
	}
}
