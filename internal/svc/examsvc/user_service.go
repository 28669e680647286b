package examsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/onlineexam/examsvc/internal/domain"
	"github.com/onlineexam/examsvc/internal/infra/logging"
	"github.com/onlineexam/examsvc/internal/repo/user"
)

// UserService registers new users.
// It pre-checks email and username uniqueness before handing the user to the store.
// The pre-check only produces friendlier errors: the unique constraints of the store
// remain the authority, and their violations are reported the same way.
type UserService struct {
	UserRepo user.Repository
	Log      logging.Logger
	Tracer   trace.Tracer
}

// NewUserService creates a new UserService backed by the repository the factory returns.
// Returns an error if the user repository cannot be created.
func NewUserService(repoFactory user.RepositoryFactory) (*UserService, error) {
	userRepo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &UserService{
		UserRepo: userRepo,
		Log:      logging.GetLogger("svc.examsvc.user_service"),
		Tracer:   otel.Tracer("svc.examsvc"),
	}, nil
}

// CreateUser validates and persists a candidate user.
// The email is checked before the username, so a candidate colliding on both
// fails with a duplicate email error.
// Returns the stored user with its assigned ID, or an error classified by domain.KindOf:
// InvalidInput, DuplicateEmail, DuplicateUsername or StoreFailure.
func (s *UserService) CreateUser(ctx context.Context, candidate domain.User) (_ domain.User, err error) {
	log := s.Log.With(logging.Group("user",
		"email", candidate.Email,
		"username", candidate.Username,
	))

	ctx, span := s.tracer().Start(ctx, "examsvc.CreateUser")

	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, domain.KindOf(err).String())
			span.RecordError(err)

			if domain.KindOf(err) == domain.StoreFailure {
				log.ErrorContext(ctx, "create user failed", "error", err)
			} else {
				log.InfoContext(ctx, "create user rejected", "reason", domain.KindOf(err).String(), "error", err)
			}
		}

		span.End()
	}()

	log.DebugContext(ctx, "registration requested")

	if err := validateCandidate(candidate); err != nil {
		return domain.User{}, err
	}

	exists, err := s.UserRepo.ExistsByEmail(ctx, candidate.Email)
	if err != nil {
		return domain.User{}, storeFailure("check email", err)
	} else if exists {
		return domain.User{}, domain.NewDuplicateEmailError(candidate.Email)
	}

	exists, err = s.UserRepo.ExistsByUsername(ctx, candidate.Username)
	if err != nil {
		return domain.User{}, storeFailure("check username", err)
	} else if exists {
		return domain.User{}, domain.NewDuplicateUsernameError(candidate.Username)
	}

	saved, err := s.UserRepo.Save(ctx, candidate)
	if err != nil {
		var dupErr *domain.DuplicateError
		if errors.As(err, &dupErr) {
			return domain.User{}, fmt.Errorf("save user: %w", s.emailFirst(ctx, candidate, err))
		}

		return domain.User{}, storeFailure("save user", err)
	}

	span.SetAttributes(attribute.Int64("user.id", saved.ID))
	log.InfoContext(ctx, "user registered", "id", saved.ID)

	return saved, nil
}

// Close releases resources held by the service, such as database connections.
// Returns an error if cleanup fails.
func (s *UserService) Close() error {
	if err := s.UserRepo.Close(); err != nil {
		return fmt.Errorf("close user repo: %w", err)
	}

	return nil
}

// emailFirst keeps the email-before-username order for duplicates reported by
// the store. A store may name the username constraint even though the email
// collides as well, so a username duplicate is re-checked against the email.
func (s *UserService) emailFirst(ctx context.Context, candidate domain.User, err error) error {
	if domain.KindOf(err) != domain.DuplicateUsername {
		return err
	}

	exists, checkErr := s.UserRepo.ExistsByEmail(ctx, candidate.Email)
	if checkErr != nil {
		s.Log.WarnContext(ctx, "recheck email failed", "error", checkErr)

		return err
	}

	if exists {
		return fmt.Errorf("%w: %v", domain.NewDuplicateEmailError(candidate.Email), err) //nolint:errorlint
	}

	return err
}

func (s *UserService) tracer() trace.Tracer {
	if s.Tracer == nil {
		return otel.Tracer("svc.examsvc")
	}

	return s.Tracer
}

func validateCandidate(candidate domain.User) error {
	switch {
	case strings.TrimSpace(candidate.Email) == "":
		return errors.Join(domain.ErrInvalidUser, domain.ErrNoEmail)
	case strings.TrimSpace(candidate.Username) == "":
		return errors.Join(domain.ErrInvalidUser, domain.ErrNoUsername)
	default:
		return nil
	}
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStoreFailure, err))
}
