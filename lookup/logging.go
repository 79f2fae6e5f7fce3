package lookup

import (
	"context"
	"github.com/go-kit/log"
	"muni-form-assist/domain"
	"time"
)

// loggingService decorates a lookup.Service with logging
type loggingService struct {
	next   Service
	logger log.Logger
}

// NewLoggingService return a new logging service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) Suggest(ctx context.Context, kind domain.Kind, term string) (suggestions []domain.Suggestion, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "suggest",
			"kind", kind,
			"term", term,
			"results", len(suggestions),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Suggest(ctx, kind, term)
}

func (s *loggingService) Find(ctx context.Context, kind domain.Kind, key string) (match domain.Match, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "find",
			"kind", kind,
			"key", key,
			"found", match.Found,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Find(ctx, kind, key)
}

func (s *loggingService) CreatePerson(ctx context.Context, p domain.NewPerson) (created domain.Suggestion, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "create_person",
			"dni", p.DNI,
			"id", created.ID,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreatePerson(ctx, p)
}
