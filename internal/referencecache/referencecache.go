// Package referencecache implements C6: fetch-or-reuse of a hypothesis's
// reference document text. Concurrent "deep analyze" requests for the
// same hypothesis within one process share a single Crawler fetch; across
// processes they are coalesced only as far as fetchAndCache describes.
package referencecache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/data/repos/referencecache"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

const (
	ttlPaperOrBook = 30 * 24 * time.Hour
	ttlOther       = 7 * 24 * time.Hour
	lockTTL        = 2 * time.Minute
)

type Service struct {
	repo    referencecache.Repo
	crawler adapters.Crawler
	redis   *redis.Client
	group   singleflight.Group
	log     *logger.Logger
}

func NewService(repo referencecache.Repo, crawler adapters.Crawler, rdb *redis.Client, log *logger.Logger) *Service {
	return &Service{repo: repo, crawler: crawler, redis: rdb, log: log.With("service", "ReferenceCacheService")}
}

func ttlFor(refType domain.ReferenceType) time.Duration {
	if refType == domain.ReferenceTypePaper || refType == domain.ReferenceTypeBook {
		return ttlPaperOrBook
	}
	return ttlOther
}

// GetReferenceText returns h's cached reference text if fresh, otherwise
// fetches it via the Crawler, caches it, and returns it. Concurrent
// in-process callers for the same hypothesis coalesce onto a single fetch
// via singleflight; cross-process callers go through fetchAndCache's
// Redis lock when Redis is configured.
func (s *Service) GetReferenceText(dbc dbctx.Context, h *domain.Hypothesis) (string, error) {
	if h.ReferenceURL == "" {
		return "", nil
	}

	cached, err := s.repo.Get(dbc, h.ID)
	if err != nil {
		return "", err
	}
	if cached != nil && time.Since(cached.FetchedAt) < ttlFor(h.ReferenceType) {
		return cached.FullText, nil
	}

	key := h.ID.String()
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchAndCache(dbc, h)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// fetchAndCache fetches h's reference text and caches it. When Redis is
// configured, the process holding the per-hypothesis lock fetches; a
// process that loses the lock waits 500ms, re-reads the cache row once and
// returns it if one exists, and otherwise fetches itself, so two processes
// can both fetch when the lock holder takes longer than that wait.
func (s *Service) fetchAndCache(dbc dbctx.Context, h *domain.Hypothesis) (string, error) {
	if s.redis != nil {
		unlock, acquired, err := s.acquireLock(dbc.Ctx, h.ID)
		if err != nil {
			s.log.Warn("reference cache lock unavailable, proceeding without cross-process coalescing", "hypothesis_id", h.ID, "error", err)
		} else if acquired {
			defer unlock()
		} else {
			// Another process is fetching; wait briefly then re-read the cache.
			time.Sleep(500 * time.Millisecond)
			cached, getErr := s.repo.Get(dbc, h.ID)
			if getErr == nil && cached != nil {
				return cached.FullText, nil
			}
		}
	}

	text, _, err := s.crawler.FetchText(dbc.Ctx, h.ReferenceURL)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.Upsert(dbc, h.ID, text); err != nil {
		return "", err
	}
	return text, nil
}

func (s *Service) acquireLock(ctx context.Context, hypothesisID uuid.UUID) (unlock func(), acquired bool, err error) {
	lockKey := fmt.Sprintf("signal-noise:refcache:lock:%s", hypothesisID)
	ok, err := s.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return func() {
		_ = s.redis.Del(ctx, lockKey).Err()
	}, true, nil
}
