package examsvc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlineexam/examsvc/internal/domain"
	http_ "github.com/onlineexam/examsvc/internal/infra/transport/http"
	"github.com/onlineexam/examsvc/internal/svc/examsvc"
)

func setupTestTransport(t *testing.T, seed ...domain.User) (http.Handler, *mockUserRepository) {
	t.Helper()

	svc, mockRepo := setupTestService(t, seed...)

	//nolint:exhaustruct
	cfg := examsvc.HTTPTransportConfig{MaxBodyBytes: 1024}

	return examsvc.NewHTTPTransport(svc, cfg), mockRepo
}

func postRegister(handler http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestHTTPTransport_Register(t *testing.T) {
	t.Parallel()

	handler, mockRepo := setupTestTransport(t)

	rec := postRegister(handler, `{
		"firstName": "Alice",
		"lastName": "Liddell",
		"username": "alice",
		"email": "a@x.com",
		"phone": "555-0100",
		"role": "student",
		"password": "wonderland"
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "wonderland")
	assert.NotContains(t, rec.Body.String(), `"password"`)

	var got domain.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, "Liddell", got.LastName)
	assert.Equal(t, "student", got.Role)

	// the stored record keeps the password as received
	require.Len(t, mockRepo.users, 1)
	assert.Equal(t, "wonderland", mockRepo.users[0].Password)
}

func TestHTTPTransport_RegisterRejected(t *testing.T) {
	t.Parallel()

	seed := []domain.User{{Email: "a@x.com", Username: "bob"}}

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{
			name:     "duplicate email",
			body:     `{"email":"a@x.com","username":"alice"}`,
			wantCode: http.StatusBadRequest,
			wantBody: "Email already exists",
		},
		{
			name:     "duplicate username",
			body:     `{"email":"c@x.com","username":"bob"}`,
			wantCode: http.StatusBadRequest,
			wantBody: "Username already exists",
		},
		{
			name:     "malformed json",
			body:     `{"email":`,
			wantCode: http.StatusBadRequest,
			wantBody: "Invalid request body",
		},
		{
			name:     "wrong field type",
			body:     `{"email":42}`,
			wantCode: http.StatusBadRequest,
			wantBody: "Invalid request body",
		},
		{
			name:     "trailing garbage",
			body:     `{"email":"c@x.com","username":"carol"}garbage`,
			wantCode: http.StatusBadRequest,
			wantBody: "Invalid request body",
		},
		{
			name:     "second json value",
			body:     `{"email":"c@x.com","username":"carol"} {}`,
			wantCode: http.StatusBadRequest,
			wantBody: "Invalid request body",
		},
		{
			name:     "stray closing brace",
			body:     `{"email":"c@x.com","username":"carol"}}`,
			wantCode: http.StatusBadRequest,
			wantBody: "Invalid request body",
		},
		{
			name:     "body too large",
			body:     `{"email":"` + strings.Repeat("a", 2048) + `"}`,
			wantCode: http.StatusBadRequest,
			wantBody: "Invalid request body",
		},
		{
			name:     "missing email",
			body:     `{"username":"alice"}`,
			wantCode: http.StatusBadRequest,
			wantBody: "Email is required",
		},
		{
			name:     "missing username",
			body:     `{"email":"c@x.com","username":" "}`,
			wantCode: http.StatusBadRequest,
			wantBody: "Username is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler, mockRepo := setupTestTransport(t, seed...)

			rec := postRegister(handler, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, strings.TrimSpace(rec.Body.String()))
			assert.Equal(t, 1, mockRepo.count())
		})
	}
}

func TestHTTPTransport_RegisterTrailingWhitespace(t *testing.T) {
	t.Parallel()

	handler, mockRepo := setupTestTransport(t)

	rec := postRegister(handler, "{\"email\":\"a@x.com\",\"username\":\"alice\"}\r\n\t ")

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, mockRepo.count())
}

func TestHTTPTransport_RegisterStoreFailure(t *testing.T) {
	t.Parallel()

	handler, mockRepo := setupTestTransport(t)
	mockRepo.saveErr = ErrRepoError

	rec := postRegister(handler, `{"email":"a@x.com","username":"alice"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", strings.TrimSpace(rec.Body.String()))
	assert.NotContains(t, rec.Body.String(), ErrRepoError.Error())
}

func TestHTTPTransport_Routes(t *testing.T) {
	t.Parallel()

	handler, _ := setupTestTransport(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/register", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPTransport_WithMiddleware(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)

	//nolint:exhaustruct
	cfg := examsvc.HTTPTransportConfig{
		HTTPTransportConfig: http_.HTTPTransportConfig{
			CORS: http_.CORSConfig{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"*"},
			},
		},
	}

	handler := http_.NewHandler(examsvc.NewHTTPTransport(svc, cfg), cfg.HTTPTransportConfig, svc.Log)

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/api/register", nil)
		req.Header.Set("Origin", "http://localhost:5500")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "content-type")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("register", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequestWithContext(context.Background(), http.MethodPost, "/api/register",
			strings.NewReader(`{"email":"a@x.com","username":"alice"}`))
		req.Header.Set("Origin", "http://localhost:5500")
		req.Header.Set(http_.TraceIDHeader, "req-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "req-1", rec.Header().Get(http_.TraceIDHeader))
	})
}
