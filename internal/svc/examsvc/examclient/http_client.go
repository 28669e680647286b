package examclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/onlineexam/examsvc/internal/domain"
	context_ "github.com/onlineexam/examsvc/internal/infra/context"
	"github.com/onlineexam/examsvc/internal/infra/logging"
)

const (
	TraceIDHeader = "X-Request-ID"
	RegisterPath  = "/api/register"

	maxErrorBody = 4 << 10
)

var (
	ErrRejected         = errors.New("registration rejected")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// HTTPClientConfig holds configuration for the HTTP exam client.
type HTTPClientConfig struct {
	// ServerURL is the base URL of the exam service
	ServerURL string `env:"SERVER_URL" envDefault:"http://localhost:8080"`
}

// HTTPClient implements ExamClient using HTTP requests to the registration endpoint.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ ExamClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPClient(
	cfg HTTPClientConfig,
	httpClient *http.Client,
) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.examsvc.http_client"),
		cfg:        cfg,
	}
}

// CreateUser implements ExamClient.CreateUser by posting candidate as JSON to
// the configured service. Plain-text 400 answers are mapped back to domain errors.
func (hc *HTTPClient) CreateUser(ctx context.Context, candidate domain.User) (domain.User, error) {
	body, err := json.Marshal(candidate)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal user: %w", err)
	}

	url := strings.TrimSuffix(hc.cfg.ServerURL, "/") + RegisterPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.User{}, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(TraceIDHeader, traceID)
	}

	resp, err := hc.httpClient.Do(req)
	if err != nil {
		return domain.User{}, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	hc.log.DebugContext(ctx, "register response", "status", resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusOK:
		var saved domain.User

		if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
			return domain.User{}, fmt.Errorf("decode user: %w", err)
		}

		return saved, nil
	case http.StatusBadRequest:
		msg, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			return domain.User{}, fmt.Errorf("read string: %w", err)
		}

		return domain.User{}, rejection(candidate, strings.TrimSpace(string(msg)))
	default:
		return domain.User{}, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
}

func rejection(candidate domain.User, msg string) error {
	switch msg {
	case domain.ErrEmailAlreadyExists.Error():
		return domain.NewDuplicateEmailError(candidate.Email)
	case domain.ErrUsernameAlreadyExists.Error():
		return domain.NewDuplicateUsernameError(candidate.Username)
	case domain.ErrNoEmail.Error():
		return errors.Join(domain.ErrInvalidUser, domain.ErrNoEmail)
	case domain.ErrNoUsername.Error():
		return errors.Join(domain.ErrInvalidUser, domain.ErrNoUsername)
	default:
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}
}
