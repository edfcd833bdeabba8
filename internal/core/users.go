package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/auth"
	"github.com/siahsang/yatube/internal/store"
	"github.com/siahsang/yatube/internal/validator"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func (c *Core) RegisterUser(ctx context.Context, in RegisterInput) (*auth.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	v := validator.New()
	v.CheckNotBlank(in.Username, "username", "This field is required.")
	v.Check(utf8.RuneCountInString(in.Username) <= 150, "username", "Ensure this value has at most 150 characters.")
	v.Check(validator.IsMatch(in.Username, validator.UsernameRX), "username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	v.CheckNotBlank(in.Email, "email", "This field is required.")
	v.CheckEmail(in.Email, "Enter a valid email address.")
	v.Check(len(in.Password) >= 8, "password", "This password is too short. It must contain at least 8 characters.")
	v.Check(len(in.Password) <= 72, "password", "Ensure this value has at most 72 characters.")
	if !v.IsValid() {
		return nil, newValidationError(v)
	}

	user := &auth.User{Username: in.Username, Email: in.Email}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, xerrors.New(err)
	}

	if err := c.store.Users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateUsername):
			return nil, fieldError("username", "A user with that username already exists.")
		case errors.Is(err, store.ErrDuplicateEmail):
			return nil, fieldError("email", "A user with that email already exists.")
		default:
			return nil, xerrors.New(err)
		}
	}

	c.log.Info("user registered", slog.Int64("user_id", user.ID), slog.String("username", user.Username))
	return user, nil
}

// Login checks a username and password pair.
func (c *Core) Login(ctx context.Context, username, password string) (*auth.User, error) {
	user, err := c.store.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, xerrors.New(ErrInvalidCredentials)
		}
		return nil, xerrors.New(err)
	}

	ok, err := user.IsPasswordMatch(password)
	if err != nil {
		return nil, xerrors.New(err)
	}
	if !ok {
		return nil, xerrors.New(ErrInvalidCredentials)
	}
	return user, nil
}

func (c *Core) GetUser(ctx context.Context, id int64) (*auth.User, error) {
	user, err := c.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (c *Core) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	user, err := c.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}
