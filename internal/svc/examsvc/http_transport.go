package examsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/onlineexam/examsvc/internal/domain"
	"github.com/onlineexam/examsvc/internal/infra/logging"
	http_ "github.com/onlineexam/examsvc/internal/infra/transport/http"
)

var (
	// ErrInvalidBody is returned when the request body cannot be decoded into a user.
	ErrInvalidBody = errors.New("Invalid request body") //nolint:stylecheck

	ErrTrailingData = errors.New("trailing data after user")
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// MaxBodyBytes limits the size of registration payloads
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

// UserCreator is the part of UserService the transport depends on.
type UserCreator interface {
	CreateUser(ctx context.Context, candidate domain.User) (domain.User, error)
}

// HTTPTransport handles HTTP requests for the registration service.
type HTTPTransport struct {
	userSvc UserCreator
	log     logging.Logger
	cfg     HTTPTransportConfig
	mux     *http.ServeMux
}

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
func NewHTTPTransport(userSvc UserCreator, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		userSvc: userSvc,
		log:     logging.GetLogger("svc.examsvc.http_transport"),
		cfg:     cfg,
		mux:     http.NewServeMux(),
	}

	ht.mux.HandleFunc("POST /api/register", ht.HandleRegister)

	return ht
}

// ServeHTTP implements http.Handler and routes:
// - POST /api/register: Register a new user.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// HandleRegister processes user registration requests.
// Expects a JSON user body and answers with the stored user, without its password.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "user register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	var candidate domain.User

	if ht.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, ht.cfg.MaxBodyBytes)
	}

	if err := decodeCandidate(r.Body, &candidate); err != nil {
		http.Error(w, ErrInvalidBody.Error(), http.StatusBadRequest)

		return errors.Join(ErrInvalidBody, err)
	}

	log = log.With(logging.Group("user", "email", candidate.Email, "username", candidate.Username))
	log.InfoContext(r.Context(), "registration request received")

	saved, err := ht.userSvc.CreateUser(r.Context(), candidate)
	if err != nil {
		writeCreateUserError(w, err)

		return fmt.Errorf("create user: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(saved.Redacted()); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// decodeCandidate reads exactly one JSON value; anything but whitespace after it is an error.
func decodeCandidate(body io.Reader, candidate *domain.User) error {
	dec := json.NewDecoder(body)

	if err := dec.Decode(candidate); err != nil {
		return fmt.Errorf("decode user: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}

	return nil
}

// writeCreateUserError maps a registration failure to its HTTP response.
// Client mistakes get 400 with a readable reason, store failures get 500.
func writeCreateUserError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.DuplicateEmail:
		http.Error(w, domain.ErrEmailAlreadyExists.Error(), http.StatusBadRequest)
	case domain.DuplicateUsername:
		http.Error(w, domain.ErrUsernameAlreadyExists.Error(), http.StatusBadRequest)
	case domain.InvalidInput:
		msg := domain.ErrInvalidUser.Error()

		switch {
		case errors.Is(err, domain.ErrNoEmail):
			msg = domain.ErrNoEmail.Error()
		case errors.Is(err, domain.ErrNoUsername):
			msg = domain.ErrNoUsername.Error()
		}

		http.Error(w, msg, http.StatusBadRequest)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
