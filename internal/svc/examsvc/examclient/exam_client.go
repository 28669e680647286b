package examclient

import (
	"context"

	"github.com/onlineexam/examsvc/internal/domain"
)

// ExamClient defines the interface for registering users with a remote exam service.
type ExamClient interface {
	// CreateUser registers candidate with the remote service.
	// Returns the stored user, without its password, or an error that domain.KindOf
	// classifies the same way as the local service errors.
	CreateUser(ctx context.Context, candidate domain.User) (domain.User, error)
}
