package user

import "context"

type Repository interface {
	CreateAccount(ctx context.Context, email, passwordHash, fullName, role string) (*Account, error)
	CreateOAuthAccount(ctx context.Context, email, provider, subject, fullName, role string) (*Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*Account, error)
	FindAccountByID(ctx context.Context, id int) (*Account, error)
	FindAccountByProvider(ctx context.Context, provider, subject string) (*Account, error)
	LinkProvider(ctx context.Context, id int, provider, subject string) error
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error

	CreateProfile(ctx context.Context, profile *User) (*User, error)
	GetProfile(ctx context.Context, id int) (*User, error)
	UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error)
}
