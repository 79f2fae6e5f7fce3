package lookup

import (
	"context"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"muni-form-assist/domain"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestService_SuggestPerson(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/finanzas/personas/autocomplete/", req.URL.Path)
		assert.Equal(t, "pere", req.URL.Query().Get("q"))
		response := `{
			"results": [
				{"id": 1, "text": "Perez, Juan (30111222)", "nombre": "Juan", "apellido": "Perez", "dni": "30111222", "documento": "30111222"},
				{"id": 2, "nombre": "Ana", "apellido": "Pereyra", "dni": ""}
			]
		}`
		_, _ = rw.Write([]byte(response))
	}))
	defer server.Close()

	s := NewService(server.URL, DefaultEndpoints(), time.Second, 2)

	got, err := s.Suggest(context.Background(), domain.Person, " pere ")

	require.NoError(t, err)
	assert.Equal(t, []domain.Suggestion{
		{ID: 1, Kind: domain.Person, Text: "Perez, Juan (30111222)", Document: "30111222"},
		{ID: 2, Kind: domain.Person, Text: "Pereyra, Ana"},
	}, got)
}

func TestService_SuggestProviderAndVehicle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/finanzas/oc/proveedores/suggest/":
			_, _ = rw.Write([]byte(`{"results": [{"id": 5, "nombre": "ACME SRL", "cuit": "30-71234567-9"}, {"id": 6, "nombre": "Ferreteria"}]}`))
		case "/finanzas/flota/vehiculos/autocomplete/":
			_, _ = rw.Write([]byte(`{"results": [{"id": 9, "patente": "AB123CD", "descripcion": "Hilux"}, {"id": 10, "patente": "XYZ999"}]}`))
		default:
			rw.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	s := NewService(server.URL, DefaultEndpoints(), time.Second, 2)

	providers, err := s.Suggest(context.Background(), domain.Provider, "ac")
	require.NoError(t, err)
	assert.Equal(t, "ACME SRL (30-71234567-9)", providers[0].Text)
	assert.Equal(t, "30-71234567-9", providers[0].Document)
	assert.Equal(t, "Ferreteria", providers[1].Text)

	vehicles, err := s.Suggest(context.Background(), domain.Vehicle, "ab")
	require.NoError(t, err)
	assert.Equal(t, "AB123CD - Hilux", vehicles[0].Text)
	assert.Equal(t, "Hilux", vehicles[0].Detail)
	assert.Equal(t, "XYZ999", vehicles[1].Text)
}

func TestService_SuggestShortTermSkipsUpstream(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		called = true
	}))
	defer server.Close()

	s := NewService(server.URL, DefaultEndpoints(), time.Second, 2)

	got, err := s.Suggest(context.Background(), domain.Person, " p ")

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.False(t, called)
}

func TestService_SuggestErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
		_, _ = rw.Write([]byte(`<html>boom</html>`))
	}))
	defer server.Close()

	s := NewService(server.URL, DefaultEndpoints(), time.Second, 2)

	_, err := s.Suggest(context.Background(), domain.Person, "perez")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = s.Suggest(context.Background(), domain.Kind("barrio"), "centro")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestService_SuggestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = rw.Write([]byte("{}"))
	}))
	defer server.Close()

	s := NewService(server.URL, DefaultEndpoints(), time.Millisecond, 2)

	_, err := s.Suggest(context.Background(), domain.Person, "perez")
	assert.Error(t, err)
}

func TestService_Find(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/finanzas/api/personas/buscar-por-dni/":
			if req.URL.Query().Get("dni") == "30111222" {
				_, _ = rw.Write([]byte(`{"found": true, "nombre": "Perez Juan", "direccion": "San Martin 123", "barrio": "Centro"}`))
				return
			}
			_, _ = rw.Write([]byte(`{"found": false}`))
		case "/finanzas/flota/api/vehiculo-por-patente/":
			assert.Equal(t, "AB123CD", req.URL.Query().Get("patente"))
			_, _ = rw.Write([]byte(`{"found": true, "descripcion": "Hilux"}`))
		}
	}))
	defer server.Close()

	s := NewService(server.URL, DefaultEndpoints(), time.Second, 2)

	match, err := s.Find(context.Background(), domain.Person, "30111222")
	require.NoError(t, err)
	assert.Equal(t, domain.Match{Found: true, Name: "Perez Juan", Address: "San Martin 123", Neighborhood: "Centro"}, match)

	match, err = s.Find(context.Background(), domain.Person, "1")
	require.NoError(t, err)
	assert.False(t, match.Found)

	match, err = s.Find(context.Background(), domain.Vehicle, " ab123cd ")
	require.NoError(t, err)
	assert.Equal(t, "Hilux", match.Description)

	match, err = s.Find(context.Background(), domain.Provider, "  ")
	require.NoError(t, err)
	assert.False(t, match.Found)
}

func TestService_CreatePerson(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

		var p domain.NewPerson
		require.NoError(t, json.NewDecoder(req.Body).Decode(&p))
		assert.Equal(t, "30111222", p.DNI)
		assert.Equal(t, "Perez", p.Surname)

		_, _ = rw.Write([]byte(`{"ok": true, "id": 77, "text": "Perez, Juan (30111222)"}`))
	}))
	defer server.Close()

	s := NewService(server.URL, DefaultEndpoints(), time.Second, 2)

	created, err := s.CreatePerson(context.Background(), domain.NewPerson{
		DNI:     "30.111.222",
		Surname: " Perez ",
		Name:    "Juan",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.Suggestion{ID: 77, Kind: domain.Person, Text: "Perez, Juan (30111222)", Document: "30111222"}, created)
}

func TestService_CreatePersonRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(http.StatusBadRequest)
		_, _ = rw.Write([]byte(`{"ok": false, "error": "Nombre y Apellido son obligatorios."}`))
	}))
	defer server.Close()

	s := NewService(server.URL, DefaultEndpoints(), time.Second, 2)

	_, err := s.CreatePerson(context.Background(), domain.NewPerson{DNI: "30111222", Surname: "Perez", Name: "Juan"})

	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "obligatorios")
}

func TestService_CreatePersonInvalidNeverSent(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		called = true
	}))
	defer server.Close()

	s := NewService(server.URL, DefaultEndpoints(), time.Second, 2)

	_, err := s.CreatePerson(context.Background(), domain.NewPerson{DNI: "123", Surname: "Perez", Name: "Juan"})

	assert.ErrorIs(t, err, ErrInvalidPerson)
	assert.False(t, called)
}
