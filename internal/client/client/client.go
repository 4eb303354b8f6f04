package client

import (
	"context"

	"github.com/dmitrijs2005/hbd/internal/client/models"
)

// LoginResult is the validated outcome of a successful login. Credential is
// the credential to keep in the session: the issued token in the token
// scheme, the presented key in the key scheme.
type LoginResult struct {
	Credential string
	Account    models.Account
}

// Client is the contract with the hbd backend. Every method either returns
// a fully validated result or an error; callers must not change local state
// on error.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Login(ctx context.Context, email, credential string) (*LoginResult, error)
	Register(ctx context.Context, reg models.Registration) (string, error)
	FetchProfile(ctx context.Context, creds models.Credentials) (*models.Account, error)
	UpdateProfile(ctx context.Context, creds models.Credentials, upd models.ProfileUpdate) (string, error)
	DeleteAccount(ctx context.Context, creds models.Credentials) error
	CheckReminders(ctx context.Context, creds models.Credentials) error

	AddBirthday(ctx context.Context, creds models.Credentials, name, date string) (models.Birthday, error)
	UpdateBirthday(ctx context.Context, creds models.Credentials, b models.Birthday) error
	DeleteBirthday(ctx context.Context, creds models.Credentials, b models.Birthday) error
}
