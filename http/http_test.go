package http

import (
	"context"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"muni-form-assist/assist"
	"muni-form-assist/lookup"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestServer_EndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/finanzas/personas/autocomplete/":
			_, _ = rw.Write([]byte(`{"results": [{"id": 1, "nombre": "Juan", "apellido": "Perez", "dni": "30111222"}]}`))
		case "/finanzas/personas/quick-create/":
			_, _ = rw.Write([]byte(`{"ok": true, "id": 2, "text": "Gomez, Ana (28999000)"}`))
		default:
			rw.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lookups := lookup.NewService(upstream.URL, lookup.DefaultEndpoints(), time.Second, lookup.DefaultMinTerm)
	lookups = lookup.NewCachingService(ctx, time.Minute, log.NewNopLogger(), lookups)
	server := NewServer(assist.NewService(lookups, time.UTC), log.NewNopLogger())

	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		wantCode int
		wantBody string
	}{
		{
			"suggest",
			"GET", "/api/lookup/persona?q=per", "",
			200, `{"results":[{"id":1,"kind":"persona","text":"Perez, Juan (30111222)","document":"30111222"}]}`,
		},
		{
			"suggest short term",
			"GET", "/api/lookup/persona?q=p", "",
			200, `{"results":[]}`,
		},
		{
			"unknown kind",
			"GET", "/api/lookup/barrio?q=centro", "",
			404, "unknown lookup kind",
		},
		{
			"upstream missing",
			"GET", "/api/lookup/proveedor/find?key=30712345679", "",
			502, "Bad Gateway",
		},
		{
			"create person",
			"POST", "/api/personas", `{"dni": "28.999.000", "apellido": "Gomez", "nombre": "Ana"}`,
			201, `{"id":2,"kind":"persona","text":"Gomez, Ana (28999000)","document":"28999000"}`,
		},
		{
			"create invalid person",
			"POST", "/api/personas", `{"dni": "28999000", "apellido": "Gomez"}`,
			400, "invalid person: Name (required)",
		},
		{
			"normalize",
			"POST", "/api/amount/normalize", `{"text": "$ 1.500"}`,
			200, `{"canonical":"1500.00","display":"1.500,00"}`,
		},
		{
			"format one place",
			"POST", "/api/amount/format", `{"canonical": "1234.56", "places": 1}`,
			200, `{"display":"1.234,6"}`,
		},
		{
			"format garbage",
			"POST", "/api/amount/format", `{"canonical": "abc"}`,
			400, "invalid amount",
		},
		{
			"unfiltered range",
			"GET", "/api/range", "",
			200, `{"shortcut":"todo"}`,
		},
		{
			"whole range",
			"GET", "/api/range/todo", "",
			200, `{"shortcut":"todo","desde":"","hasta":""}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, tt.method, tt.target, tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			if w.Code >= 400 {
				assert.Contains(t, w.Body.String(), tt.wantBody)
				return
			}
			assert.Equal(t, tt.wantBody, strings.TrimSpace(w.Body.String()))
		})
	}
}
