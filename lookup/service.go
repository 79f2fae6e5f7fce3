package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"muni-form-assist/domain"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultMinTerm shorter terms are never sent upstream
	DefaultMinTerm = 2

	DefaultTimeout = 5 * time.Second
)

var (
	ErrUnknownKind = errors.New("unknown lookup kind")
	ErrUpstream    = errors.New("upstream error")
	ErrRejected    = errors.New("rejected by upstream")
)

// Service looks up people, providers and vehicles in the finance application
type Service interface {
	// Suggest returns autocomplete options for a partially typed term
	Suggest(ctx context.Context, kind domain.Kind, term string) ([]domain.Suggestion, error)

	// Find looks a record up by its document: DNI, CUIT or plate
	Find(ctx context.Context, kind domain.Kind, key string) (domain.Match, error)

	// CreatePerson creates, or reactivates, a person from the quick-create modal
	CreatePerson(ctx context.Context, p domain.NewPerson) (domain.Suggestion, error)
}

// Endpoint a path on the upstream application and its query parameter
type Endpoint struct {
	Path  string `mapstructure:"path"`
	Param string `mapstructure:"param"`
}

// Endpoints upstream paths per kind
type Endpoints struct {
	Suggest      map[domain.Kind]Endpoint `mapstructure:"suggest"`
	Find         map[domain.Kind]Endpoint `mapstructure:"find"`
	CreatePerson string                   `mapstructure:"create_person"`
}

// DefaultEndpoints the paths served by the finance application
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Suggest: map[domain.Kind]Endpoint{
			domain.Person:   {Path: "/finanzas/personas/autocomplete/", Param: "q"},
			domain.Provider: {Path: "/finanzas/oc/proveedores/suggest/", Param: "q"},
			domain.Vehicle:  {Path: "/finanzas/flota/vehiculos/autocomplete/", Param: "q"},
		},
		Find: map[domain.Kind]Endpoint{
			domain.Person:   {Path: "/finanzas/api/personas/buscar-por-dni/", Param: "dni"},
			domain.Provider: {Path: "/finanzas/oc/api/proveedor-por-cuit/", Param: "cuit"},
			domain.Vehicle:  {Path: "/finanzas/flota/api/vehiculo-por-patente/", Param: "patente"},
		},
		CreatePerson: "/finanzas/personas/quick-create/",
	}
}

// service REST client of the finance application
type service struct {
	// url base url of the application
	url string

	endpoints Endpoints

	// minTerm shortest term sent upstream
	minTerm int

	// client for HTTP requests
	client http.Client
}

// NewService constructs a valid lookup Service against baseURL
func NewService(baseURL string, endpoints Endpoints, timeout time.Duration, minTerm int) Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if minTerm <= 0 {
		minTerm = DefaultMinTerm
	}
	return &service{
		url:       strings.TrimRight(baseURL, "/"),
		endpoints: endpoints,
		minTerm:   minTerm,
		client: http.Client{
			Timeout: timeout,
		},
	}
}

// result one entry of an upstream {"results": [...]} list. Each endpoint
// fills a different subset of the fields.
type result struct {
	ID          int64  `json:"id"`
	Text        string `json:"text"`
	Nombre      string `json:"nombre"`
	Apellido    string `json:"apellido"`
	DNI         string `json:"dni"`
	Documento   string `json:"documento"`
	Direccion   string `json:"direccion"`
	CUIT        string `json:"cuit"`
	Patente     string `json:"patente"`
	Descripcion string `json:"descripcion"`
}

// Suggest loads autocomplete options. Terms below the minimum length yield
// no options without calling upstream.
func (s *service) Suggest(ctx context.Context, kind domain.Kind, term string) ([]domain.Suggestion, error) {
	endpoint, ok := s.endpoints.Suggest[kind]
	if !ok {
		return nil, fmt.Errorf("suggest %q: %w", kind, ErrUnknownKind)
	}

	term = strings.TrimSpace(term)
	if len([]rune(term)) < s.minTerm {
		return []domain.Suggestion{}, nil
	}

	var response struct {
		Results []result `json:"results"`
	}
	if err := s.get(ctx, endpoint, term, &response); err != nil {
		return nil, fmt.Errorf("suggest %v [%v]: %w", kind, term, err)
	}

	suggestions := make([]domain.Suggestion, 0, len(response.Results))
	for _, r := range response.Results {
		suggestions = append(suggestions, r.suggestion(kind))
	}
	return suggestions, nil
}

// Find looks a record up by document. A blank key is never found.
func (s *service) Find(ctx context.Context, kind domain.Kind, key string) (domain.Match, error) {
	endpoint, ok := s.endpoints.Find[kind]
	if !ok {
		return domain.Match{}, fmt.Errorf("find %q: %w", kind, ErrUnknownKind)
	}

	key = strings.TrimSpace(key)
	if kind == domain.Vehicle {
		key = strings.ToUpper(key)
	}
	if key == "" {
		return domain.Match{}, nil
	}

	var response struct {
		Found       bool   `json:"found"`
		Nombre      string `json:"nombre"`
		Direccion   string `json:"direccion"`
		Barrio      string `json:"barrio"`
		Descripcion string `json:"descripcion"`
	}
	if err := s.get(ctx, endpoint, key, &response); err != nil {
		return domain.Match{}, fmt.Errorf("find %v [%v]: %w", kind, key, err)
	}

	return domain.Match{
		Found:        response.Found,
		Name:         response.Nombre,
		Address:      response.Direccion,
		Neighborhood: response.Barrio,
		Description:  response.Descripcion,
	}, nil
}

// CreatePerson validates p and posts it to the quick-create endpoint
func (s *service) CreatePerson(ctx context.Context, p domain.NewPerson) (domain.Suggestion, error) {
	p, err := CleanPerson(p)
	if err != nil {
		return domain.Suggestion{}, err
	}

	body, err := json.Marshal(p)
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("encoding person: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+s.endpoints.CreatePerson, bytes.NewReader(body))
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("building http request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	httpResponse, err := s.client.Do(request)
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("http post: %w", err)
	}
	defer httpResponse.Body.Close()

	var response struct {
		OK    bool   `json:"ok"`
		ID    int64  `json:"id"`
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := decode(httpResponse, &response); err != nil && httpResponse.StatusCode != http.StatusBadRequest {
		return domain.Suggestion{}, err
	}
	if !response.OK {
		return domain.Suggestion{}, fmt.Errorf("%w: %s", ErrRejected, response.Error)
	}

	return domain.Suggestion{
		ID:       response.ID,
		Kind:     domain.Person,
		Text:     response.Text,
		Document: p.DNI,
		Detail:   p.Address,
	}, nil
}

// get issues GET endpoint?param=value and decodes the JSON answer into v
func (s *service) get(ctx context.Context, endpoint Endpoint, value string, v interface{}) error {
	query := url.Values{}
	query.Set(endpoint.Param, value)
	u := fmt.Sprintf("%v%v?%v", s.url, endpoint.Path, query.Encode())

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building http request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	httpResponse, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer httpResponse.Body.Close()

	return decode(httpResponse, v)
}

// decode reads a JSON body. Non-2xx answers are reported as ErrUpstream
// after the body has been decoded, so error payloads stay available.
func decode(httpResponse *http.Response, v interface{}) error {
	bytes, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return fmt.Errorf("reading json: %w", err)
	}

	if len(bytes) > 0 {
		if err := json.Unmarshal(bytes, v); err != nil && httpResponse.StatusCode < 300 {
			return fmt.Errorf("decoding json: %w", err)
		}
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrUpstream, httpResponse.StatusCode)
	}
	return nil
}

// suggestion builds the option shown for r
func (r result) suggestion(kind domain.Kind) domain.Suggestion {
	s := domain.Suggestion{ID: r.ID, Kind: kind, Text: strings.TrimSpace(r.Text)}

	switch kind {
	case domain.Person:
		s.Document = firstNonBlank(r.DNI, r.Documento)
		s.Detail = strings.TrimSpace(r.Direccion)
		if s.Text == "" {
			s.Text = personLabel(r.Apellido, r.Nombre, s.Document)
		}
	case domain.Provider:
		s.Document = strings.TrimSpace(r.CUIT)
		if s.Text == "" {
			s.Text = strings.TrimSpace(r.Nombre)
			if s.Document != "" {
				s.Text = fmt.Sprintf("%s (%s)", s.Text, s.Document)
			}
		}
	case domain.Vehicle:
		s.Document = strings.TrimSpace(r.Patente)
		s.Detail = strings.TrimSpace(r.Descripcion)
		if s.Text == "" {
			s.Text = strings.Trim(s.Document+" - "+s.Detail, " -")
		}
	}
	return s
}

// personLabel "Apellido, Nombre (DNI)"
func personLabel(surname, name, dni string) string {
	label := strings.Trim(strings.TrimSpace(surname)+", "+strings.TrimSpace(name), ", ")
	if dni != "" {
		label = fmt.Sprintf("%s (%s)", label, dni)
	}
	return label
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
