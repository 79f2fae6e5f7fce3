package assist

import (
	"context"
	"fmt"
	"github.com/go-kit/log"
	"muni-form-assist/daterange"
	"muni-form-assist/domain"
	"muni-form-assist/viewstate"
	"time"
)

// loggingService decorates an assist.Service with logging
type loggingService struct {
	logger log.Logger
	next   Service
}

// NewLoggingService returns a new instance of a logging Service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) Normalize(ctx context.Context, text string) (n domain.Normalized) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "normalize",
			"text", text,
			"canonical", n.Canonical,
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.next.Normalize(ctx, text)
}

func (s *loggingService) Format(ctx context.Context, value string, places int) (display string, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "format",
			"value", value,
			"places", places,
			"display", display,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Format(ctx, value, places)
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

func (s *loggingService) Reduce(ctx context.Context, state viewstate.State, e viewstate.Event) (v View) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "reduce",
			"event", fmt.Sprintf("%T", e),
			"mode", v.State.Mode,
			"sections", fmt.Sprint(v.Sections.Names()),
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.next.Reduce(ctx, state, e)
}

func (s *loggingService) Range(ctx context.Context, name string) (span Span, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "range",
			"name", name,
			"desde", span.From,
			"hasta", span.To,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Range(ctx, name)
}

func (s *loggingService) Detect(ctx context.Context, from, to string) (shortcut daterange.Shortcut, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "detect",
			"desde", from,
			"hasta", to,
			"shortcut", shortcut,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Detect(ctx, from, to)
}
