package client

import (
	"context"
	"errors"

	"fitconnect/internal/appstate"
	"fitconnect/internal/backend"
	"fitconnect/internal/logger"
	"fitconnect/internal/user"
)

type SignupInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	// ConfirmPassword is checked only when set.
	ConfirmPassword string `validate:"omitempty,eqfield=Password"`
	FullName        string `validate:"required,max=100"`
	Phone           string `validate:"omitempty,max=30"`
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type resetInput struct {
	Email string `validate:"required,email"`
}

type oauthInput struct {
	Provider string `validate:"required,oneof=google github"`
}

// ProfileUpdate leaves nil fields untouched.
type ProfileUpdate struct {
	FullName  *string `validate:"omitempty,min=1,max=100"`
	Phone     *string `validate:"omitempty,max=30"`
	AvatarURL *string `validate:"omitempty,url"`
}

// Signup creates the identity and then, best effort, the profile row. A
// failed profile insert is logged and the signup still succeeds.
func (c *Client) Signup(ctx context.Context, in SignupInput) (*backend.AuthResult, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	res, err := c.backend.SignUp(ctx, backend.SignUpParams{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
		Phone:    in.Phone,
	})
	if err != nil {
		return nil, err
	}

	if res.Session != nil {
		_, err := c.backend.CreateProfile(ctx, user.CreateProfileRequest{
			FullName:  in.FullName,
			Phone:     in.Phone,
			AvatarURL: user.DefaultAvatarURL,
		})
		if err != nil {
			logger.Warn("Profile creation after signup failed", "user_id", res.User.ID, "error", err)
		}
	}

	return res, nil
}

// Login checks the credentials. The cache is filled once the backend
// announces the new session.
func (c *Client) Login(ctx context.Context, email, password string) (*backend.AuthResult, error) {
	if err := validateStruct(loginInput{Email: email, Password: password}); err != nil {
		return nil, err
	}
	return c.backend.SignInWithPassword(ctx, email, password)
}

// Logout signs out remotely within LogoutTimeout. The local state is signed
// out whatever happens; only a remote refusal is returned.
func (c *Client) Logout(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.LogoutTimeout)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- c.backend.SignOut(ctx) }()

	var err error
	select {
	case err = <-errc:
		if err != nil {
			logger.Warn("Remote sign-out failed, signing out locally", "error", err)
		}
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ctx.Err()
		}
		logger.Warn("Remote sign-out did not finish, signing out locally", "timeout", c.opts.LogoutTimeout.String())
	}

	// ctx may be spent by now
	if clearErr := c.signOutLocal(c.ctx); clearErr != nil {
		logger.Warn("Failed to clear local mirror", "error", clearErr)
	}
	return err
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	if err := validateStruct(resetInput{Email: email}); err != nil {
		return err
	}
	return c.backend.ResetPasswordForEmail(ctx, email)
}

// SignInWithOAuth returns the provider page the user has to visit.
func (c *Client) SignInWithOAuth(ctx context.Context, provider string) (string, error) {
	if err := validateStruct(oauthInput{Provider: provider}); err != nil {
		return "", err
	}
	return c.backend.SignInWithOAuth(ctx, provider)
}

func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*user.User, error) {
	s, err := c.signedIn()
	if err != nil {
		return nil, err
	}
	if err := validateStruct(upd); err != nil {
		return nil, err
	}

	updated, err := c.backend.UpdateProfile(ctx, user.UpdateProfileRequest{
		FullName:  upd.FullName,
		Phone:     upd.Phone,
		AvatarURL: upd.AvatarURL,
	})
	if err == nil {
		c.store.Dispatch(appstate.SetUser{User: updated, Gen: s.Generation})
		return updated, nil
	}

	if !c.fallback("update_profile", err) {
		return nil, err
	}

	merged := *s.User
	if upd.FullName != nil {
		merged.FullName = *upd.FullName
	}
	if upd.Phone != nil {
		merged.Phone = *upd.Phone
	}
	if upd.AvatarURL != nil {
		merged.AvatarURL = *upd.AvatarURL
	}
	if next := c.store.Dispatch(appstate.SetUser{User: &merged, Gen: s.Generation}); next.User != &merged {
		return nil, err
	}
	return &merged, err
}
