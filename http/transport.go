package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-kit/log"
	"github.com/google/uuid"
	"io"
	"muni-form-assist/amount"
	"muni-form-assist/assist"
	"muni-form-assist/daterange"
	"muni-form-assist/domain"
	"muni-form-assist/lookup"
	"muni-form-assist/viewstate"
	"net/http"
	"time"
)

// RequestIDHeader carries the id of a request in both directions
const RequestIDHeader = "X-Request-Id"

// maxBody largest request body accepted
const maxBody = 1 << 20

// Server dependencies for HTTP Server functions
type Server struct {
	Service assist.Service
	router  *http.ServeMux
	logger  log.Logger
}

func NewServer(s assist.Service, logger log.Logger) *Server {
	server := &Server{
		Service: s,
		router:  http.NewServeMux(),
		logger:  logger,
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	s.router.Handle("POST /api/amount/normalize", s.normalize())
	s.router.Handle("POST /api/amount/format", s.format())
	s.router.Handle("GET /api/lookup/{kind}", s.suggest())
	s.router.Handle("GET /api/lookup/{kind}/find", s.find())
	s.router.Handle("POST /api/personas", s.createPerson())
	s.router.Handle("GET /api/view/new", s.newView())
	s.router.Handle("POST /api/view/reduce", s.reduce())
	s.router.Handle("GET /api/range", s.detect())
	s.router.Handle("GET /api/range/{shortcut}", s.rangeOf())
}

// ServeHTTP tags the request with an id and logs it once answered
func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	rw.Header().Set(RequestIDHeader, id)

	rec := &statusRecorder{ResponseWriter: rw, status: http.StatusOK}
	defer func(begin time.Time) {
		s.logger.Log(
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(begin),
		)
	}(time.Now())

	s.router.ServeHTTP(rec, r)
}

// normalize produces HTTP handler reading a typed amount
func (s *Server) normalize() http.HandlerFunc {
	type request struct {
		Text string `json:"text"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !s.decode(rw, r, &request) {
			return
		}
		s.encode(rw, http.StatusOK, s.Service.Normalize(r.Context(), request.Text))
	}
}

// format produces HTTP handler rendering a canonical amount
func (s *Server) format() http.HandlerFunc {
	type request struct {
		Canonical string `json:"canonical"`
		Places    *int   `json:"places"`
	}

	type response struct {
		Display string `json:"display"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !s.decode(rw, r, &request) {
			return
		}
		places := amount.Places
		if request.Places != nil {
			places = *request.Places
		}
		if places < 0 || places > amount.MaxPlaces {
			s.fail(rw, fmt.Errorf("places %d: %w", places, amount.ErrInvalidPlaces))
			return
		}
		display, err := s.Service.Format(r.Context(), request.Canonical, places)
		if err != nil {
			s.fail(rw, err)
			return
		}
		s.encode(rw, http.StatusOK, response{Display: display})
	}
}

// suggest produces HTTP handler for autocomplete lookups
func (s *Server) suggest() http.HandlerFunc {
	type response struct {
		Results []domain.Suggestion `json:"results"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		kind := domain.Kind(r.PathValue("kind"))
		results, err := s.Service.Suggest(r.Context(), kind, r.URL.Query().Get("q"))
		if err != nil {
			s.fail(rw, err)
			return
		}
		if results == nil {
			results = []domain.Suggestion{}
		}
		s.encode(rw, http.StatusOK, response{Results: results})
	}
}

// find produces HTTP handler for exact lookups by document
func (s *Server) find() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		kind := domain.Kind(r.PathValue("kind"))
		match, err := s.Service.Find(r.Context(), kind, r.URL.Query().Get("key"))
		if err != nil {
			s.fail(rw, err)
			return
		}
		s.encode(rw, http.StatusOK, match)
	}
}

// createPerson produces HTTP handler for the quick-create person modal
func (s *Server) createPerson() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var request domain.NewPerson
		if !s.decode(rw, r, &request) {
			return
		}
		created, err := s.Service.CreatePerson(r.Context(), request)
		if err != nil {
			s.fail(rw, err)
			return
		}
		s.encode(rw, http.StatusCreated, created)
	}
}

// newView produces HTTP handler returning the view of a freshly loaded form
func (s *Server) newView() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		state := viewstate.New(q.Get("tipo"), q.Get("monto"))
		s.encode(rw, http.StatusOK, s.Service.Reduce(r.Context(), state, nil))
	}
}

// reduce produces HTTP handler applying one form event to a view state
func (s *Server) reduce() http.HandlerFunc {
	type request struct {
		State *viewstate.State `json:"state"`
		Event json.RawMessage  `json:"event"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !s.decode(rw, r, &request) {
			return
		}
		event, err := viewstate.DecodeEvent(request.Event)
		if err != nil {
			writeError(rw, http.StatusBadRequest, err.Error())
			return
		}
		state := viewstate.New("", "")
		if request.State != nil {
			state = *request.State
		}
		s.encode(rw, http.StatusOK, s.Service.Reduce(r.Context(), state, event))
	}
}

// detect produces HTTP handler naming the shortcut of a desde / hasta filter
func (s *Server) detect() http.HandlerFunc {
	type response struct {
		Shortcut daterange.Shortcut `json:"shortcut"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		shortcut, err := s.Service.Detect(r.Context(), q.Get("desde"), q.Get("hasta"))
		if err != nil {
			s.fail(rw, err)
			return
		}
		s.encode(rw, http.StatusOK, response{Shortcut: shortcut})
	}
}

// rangeOf produces HTTP handler resolving a shortcut to its dates
func (s *Server) rangeOf() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		span, err := s.Service.Range(r.Context(), r.PathValue("shortcut"))
		if err != nil {
			s.fail(rw, err)
			return
		}
		s.encode(rw, http.StatusOK, span)
	}
}

// decode reads a JSON body into v, answering 400 when it cannot
func (s *Server) decode(rw http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()

	bytes, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBody))
	if err != nil {
		writeError(rw, http.StatusBadRequest, "invalid request")
		return false
	}
	if err := json.Unmarshal(bytes, v); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (s *Server) encode(rw http.ResponseWriter, status int, v interface{}) {
	bytes, err := json.Marshal(v)
	if err != nil {
		s.logger.Log("msg", "failed json encoding", "err", err)
		writeError(rw, http.StatusInternalServerError, "failed json encoding")
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_, _ = rw.Write(append(bytes, '\n'))
}

// fail answers err with the status it maps to. Server side failures are
// logged and hidden from the client.
func (s *Server) fail(rw http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Log("msg", "request failed", "status", status, "err", err)
		msg = http.StatusText(status)
	}
	writeError(rw, status, msg)
}

func statusOf(err error) int {
	var parseErr *time.ParseError
	switch {
	case errors.Is(err, lookup.ErrUnknownKind),
		errors.Is(err, daterange.ErrUnknownShortcut):
		return http.StatusNotFound
	case errors.Is(err, amount.ErrInvalidAmount),
		errors.Is(err, amount.ErrInvalidPlaces),
		errors.Is(err, lookup.ErrInvalidPerson),
		errors.Is(err, lookup.ErrRejected),
		errors.Is(err, viewstate.ErrUnknownEvent),
		errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, lookup.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	bytes, _ := json.Marshal(map[string]string{"error": msg})
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_, _ = rw.Write(append(bytes, '\n'))
}

// statusRecorder remembers the status written through it
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
