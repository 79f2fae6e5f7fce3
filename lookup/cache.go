package lookup

import (
	"context"
	"fmt"
	"github.com/go-kit/log"
	"golang.org/x/sync/singleflight"
	"muni-form-assist/domain"
	"slices"
	"strings"
	"sync"
	"time"
)

// entry a cached upstream answer
type entry struct {
	value   interface{}
	expires time.Time
}

// cachingService decorates a lookup.Service with a short lived cache of
// suggestions and matches. Concurrent misses for the same key share a single
// upstream call.
type cachingService struct {
	// next the service being decorated with a cache
	next Service

	// cache maps "suggest|kind|term" and "find|kind|key" to answers
	cache map[string]entry

	// ttl how long answers stay cached
	ttl time.Duration

	// generations counts invalidations per kind. A fetch started before an
	// invalidation does not store its answer.
	generations map[domain.Kind]uint64

	// lock synchronizes access to cache and generations to make them concurrency safe
	lock sync.RWMutex

	// group collapses concurrent misses
	group singleflight.Group

	now func() time.Time

	logger log.Logger
}

// NewCachingService returns a new caching Service. Expired entries are swept
// every ttl until ctx is done. A ttl of zero disables caching.
func NewCachingService(ctx context.Context, ttl time.Duration, logger log.Logger, s Service) Service {
	if ttl <= 0 {
		return s
	}
	c := &cachingService{
		next:        s,
		cache:       map[string]entry{},
		generations: map[domain.Kind]uint64{},
		ttl:         ttl,
		now:         time.Now,
		logger:      logger,
	}
	go c.sweepPeriodically(ctx)
	return c
}

// Suggest looks suggestions up and caches the results
func (s *cachingService) Suggest(ctx context.Context, kind domain.Kind, term string) ([]domain.Suggestion, error) {
	key := cacheKey("suggest", kind, strings.ToLower(strings.TrimSpace(term)))
	v, err := s.load(ctx, kind, key, func(ctx context.Context) (interface{}, error) {
		return s.next.Suggest(ctx, kind, term)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]domain.Suggestion)), nil
}

// Find looks a record up and caches the match
func (s *cachingService) Find(ctx context.Context, kind domain.Kind, key string) (domain.Match, error) {
	v, err := s.load(ctx, kind, cacheKey("find", kind, strings.TrimSpace(key)), func(ctx context.Context) (interface{}, error) {
		return s.next.Find(ctx, kind, key)
	})
	if err != nil {
		return domain.Match{}, err
	}
	return v.(domain.Match), nil
}

// CreatePerson is never cached. A created person invalidates every cached
// person answer so it shows up in the next search.
func (s *cachingService) CreatePerson(ctx context.Context, p domain.NewPerson) (domain.Suggestion, error) {
	created, err := s.next.CreatePerson(ctx, p)
	if err != nil {
		return created, err
	}
	s.invalidate(domain.Person)
	return created, nil
}

// load returns the cached value of key or fetches it. The fetch outlives a
// caller that gives up, so the answer still lands in the cache for the others.
// Callers arriving after an invalidation of kind never share an older fetch.
func (s *cachingService) load(ctx context.Context, kind domain.Kind, key string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	s.lock.RLock()
	e, ok := s.cache[key]
	gen := s.generations[kind]
	s.lock.RUnlock()

	if ok && s.now().Before(e.expires) {
		return e.value, nil
	}

	ch := s.group.DoChan(fmt.Sprintf("%s#%d", key, gen), func() (interface{}, error) {
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.lock.Lock()
		defer s.lock.Unlock()
		if s.generations[kind] != gen {
			s.logger.Log("msg", "not caching answer fetched before invalidation", "key", key)
			return v, nil
		}
		s.cache[key] = entry{value: v, expires: s.now().Add(s.ttl)}
		return v, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("refreshing cache [%v]: %w", key, r.Err)
		}
		if r.Shared {
			s.logger.Log("msg", "shared upstream call", "key", key)
		}
		return r.Val, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// invalidate drops every entry of kind and any answer of kind still being fetched
func (s *cachingService) invalidate(kind domain.Kind) {
	marker := "|" + string(kind) + "|"
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.generations == nil {
		s.generations = map[domain.Kind]uint64{}
	}
	s.generations[kind]++
	for key := range s.cache {
		if strings.Contains(key, marker) {
			delete(s.cache, key)
		}
	}
}

// sweepPeriodically drops expired entries on a schedule.
// This is expected to be called from a go-routine.
func (s *cachingService) sweepPeriodically(ctx context.Context) {
	for {
		select {
		case <-time.After(s.ttl):
			s.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (s *cachingService) sweep() {
	now := s.now()
	s.lock.Lock()
	defer s.lock.Unlock()
	for key, e := range s.cache {
		if !now.Before(e.expires) {
			delete(s.cache, key)
		}
	}
}

func cacheKey(op string, kind domain.Kind, value string) string {
	return op + "|" + string(kind) + "|" + value
}
