package service

import (
	"context"

	"github.com/planora/planora-auth/internal/models"
)

// CredentialResolver validates credentials and manages identity rows. The
// auth flow consumes it through this narrow interface; the rest of the
// application owns the user table.
type CredentialResolver interface {
	Register(ctx context.Context, email, password, name string) (*models.Identity, error)
	Resolve(ctx context.Context, email, password string) (*models.Identity, error)
	Lookup(ctx context.Context, subjectID string) (*models.Identity, error)
}
