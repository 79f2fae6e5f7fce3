package assist

import (
	"context"
	"fmt"
	"muni-form-assist/amount"
	"muni-form-assist/daterange"
	"muni-form-assist/domain"
	"muni-form-assist/lookup"
	"muni-form-assist/viewstate"
	"strings"
	"time"
)

// Service everything the form layer asks of the server
type Service interface {
	// Normalize reads a typed amount. It never fails.
	Normalize(ctx context.Context, text string) domain.Normalized

	// Format renders an amount es-AR style with places fraction digits
	Format(ctx context.Context, value string, places int) (string, error)

	Suggest(ctx context.Context, kind domain.Kind, term string) ([]domain.Suggestion, error)
	Find(ctx context.Context, kind domain.Kind, key string) (domain.Match, error)
	CreatePerson(ctx context.Context, p domain.NewPerson) (domain.Suggestion, error)

	// Reduce applies e to state and derives what the form shows
	Reduce(ctx context.Context, state viewstate.State, e viewstate.Event) View

	// Range resolves a shortcut name to its dates
	Range(ctx context.Context, name string) (Span, error)

	// Detect names the shortcut matching the desde / hasta dates
	Detect(ctx context.Context, from, to string) (daterange.Shortcut, error)
}

// View a reduced state plus what it implies for the form
type View struct {
	State                viewstate.State   `json:"state"`
	Sections             viewstate.Section `json:"sections"`
	Open                 viewstate.Section `json:"open"`
	RequiresPerson       bool              `json:"requires_person"`
	RequiresDeliveryMode bool              `json:"requires_delivery_mode"`
}

// Span the dates of a range shortcut, "" when unbounded
type Span struct {
	Shortcut daterange.Shortcut `json:"shortcut"`
	From     string             `json:"desde"`
	To       string             `json:"hasta"`
}

type service struct {
	// lookups remote person, provider and vehicle lookups
	lookups lookup.Service

	// loc the time zone the dates of the application are in
	loc *time.Location

	now func() time.Time
}

// NewService constructs a valid Service
func NewService(lookups lookup.Service, loc *time.Location) Service {
	if loc == nil {
		loc = time.Local
	}
	return &service{
		lookups: lookups,
		loc:     loc,
		now:     time.Now,
	}
}

func (s *service) Normalize(_ context.Context, text string) domain.Normalized {
	canonical := amount.ToCanonical(text)
	return domain.Normalized{
		Canonical: canonical,
		Display:   amount.ToDisplay(canonical),
	}
}

func (s *service) Format(_ context.Context, value string, places int) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	if places < 0 || places > amount.MaxPlaces {
		return "", fmt.Errorf("format: places %d: %w", places, amount.ErrInvalidPlaces)
	}
	d, err := amount.Parse(value)
	if err != nil {
		return "", fmt.Errorf("format: %w", err)
	}
	return amount.FormatPlaces(d, places), nil
}

func (s *service) Suggest(ctx context.Context, kind domain.Kind, term string) ([]domain.Suggestion, error) {
	suggestions, err := s.lookups.Suggest(ctx, kind, term)
	if err != nil {
		return nil, fmt.Errorf("suggest %v: %w", kind, err)
	}
	return suggestions, nil
}

func (s *service) Find(ctx context.Context, kind domain.Kind, key string) (domain.Match, error) {
	match, err := s.lookups.Find(ctx, kind, key)
	if err != nil {
		return domain.Match{}, fmt.Errorf("find %v: %w", kind, err)
	}
	return match, nil
}

func (s *service) CreatePerson(ctx context.Context, p domain.NewPerson) (domain.Suggestion, error) {
	created, err := s.lookups.CreatePerson(ctx, p)
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("create person: %w", err)
	}
	return created, nil
}

func (s *service) Reduce(_ context.Context, state viewstate.State, e viewstate.Event) View {
	next := viewstate.Reduce(state, e)
	return View{
		State:                next,
		Sections:             next.Sections(),
		Open:                 next.Open(),
		RequiresPerson:       next.RequiresPerson(),
		RequiresDeliveryMode: next.RequiresDeliveryMode(),
	}
}

func (s *service) Range(_ context.Context, name string) (Span, error) {
	shortcut, err := daterange.Parse(name)
	if err != nil {
		return Span{}, err
	}
	from, to, _ := daterange.Bounds(shortcut, s.today())
	return Span{
		Shortcut: shortcut,
		From:     daterange.FormatDate(from),
		To:       daterange.FormatDate(to),
	}, nil
}

func (s *service) Detect(_ context.Context, from, to string) (daterange.Shortcut, error) {
	f, err := daterange.ParseDate(from, s.loc)
	if err != nil {
		return daterange.Custom, fmt.Errorf("desde: %w", err)
	}
	t, err := daterange.ParseDate(to, s.loc)
	if err != nil {
		return daterange.Custom, fmt.Errorf("hasta: %w", err)
	}
	return daterange.Detect(f, t, s.today()), nil
}

func (s *service) today() time.Time {
	return s.now().In(s.loc)
}
