package usecase_auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	infra_postgres_user "github.com/reeltrack/core/internal/infra/postgres/user"
	"github.com/reeltrack/core/internal/model"
	service_password "github.com/reeltrack/core/internal/service/auth/password"
	"github.com/reeltrack/core/internal/validate"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidResetToken  = errors.New("invalid or expired password reset token")
	ErrUserNotFound       = errors.New("user not found")
	ErrInternal           = errors.New("internal error")
)

type UserRepository interface {
	Store(ctx context.Context, user model.User) (int64, error)
	LoadByID(ctx context.Context, id int64) (model.User, error)
	LoadByEmail(ctx context.Context, email string) (model.User, error)
	LoadByUsername(ctx context.Context, username string) (model.User, error)
	UpdatePassword(ctx context.Context, id int64, hash []byte) error
	DeleteByID(ctx context.Context, id int64) error
}

type TokenService interface {
	IssueToken(userID int64) (string, error)
}

type ResetTokenCache interface {
	Set(token string, value string, ttl time.Duration) error
	Get(token string) (string, error)
	Delete(token string) error
}

type Usecase struct {
	users       UserRepository
	tokens      TokenService
	resetTokens ResetTokenCache
	resetTTL    time.Duration
}

func New(
	users UserRepository,
	tokens TokenService,
	resetTokens ResetTokenCache,
	resetTTL time.Duration,
) *Usecase {
	return &Usecase{
		users:       users,
		tokens:      tokens,
		resetTokens: resetTokens,
		resetTTL:    resetTTL,
	}
}

type Session struct {
	User  model.User
	Token string
}

func (u *Usecase) Register(ctx context.Context, username, email, password string) (Session, error) {
	username, err := validate.Username(username)
	if err != nil {
		return Session{}, err
	}
	email, err = validate.Email(email)
	if err != nil {
		return Session{}, err
	}
	password, err = validate.Password(password)
	if err != nil {
		return Session{}, err
	}

	if _, err := u.users.LoadByEmail(ctx, email); err == nil {
		return Session{}, ErrEmailTaken
	} else if !errors.Is(err, infra_postgres_user.ErrUserNotFound) {
		return Session{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	if _, err := u.users.LoadByUsername(ctx, username); err == nil {
		return Session{}, ErrUsernameTaken
	} else if !errors.Is(err, infra_postgres_user.ErrUserNotFound) {
		return Session{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	hash, err := service_password.Hash(password)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	user := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	id, err := u.users.Store(ctx, user)
	if err != nil {
		if errors.Is(err, infra_postgres_user.ErrDuplicateUser) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	user.ID = id

	token, err := u.tokens.IssueToken(id)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return Session{User: user, Token: token}, nil
}

func (u *Usecase) Login(ctx context.Context, email, password string) (Session, error) {
	email, err := validate.Email(email)
	if err != nil {
		return Session{}, err
	}

	user, err := u.users.LoadByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, infra_postgres_user.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	if !service_password.Check(user.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}

	token, err := u.tokens.IssueToken(user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return Session{User: user, Token: token}, nil
}

func (u *Usecase) GetUser(ctx context.Context, userID int64) (model.User, error) {
	user, err := u.users.LoadByID(ctx, userID)
	if err != nil {
		if errors.Is(err, infra_postgres_user.ErrUserNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return user, nil
}

func (u *Usecase) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	newPassword, err := validate.Password(newPassword)
	if err != nil {
		return err
	}

	user, err := u.users.LoadByID(ctx, userID)
	if err != nil {
		if errors.Is(err, infra_postgres_user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	if !service_password.Check(user.PasswordHash, currentPassword) {
		return ErrWrongPassword
	}

	hash, err := service_password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	if err := u.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return nil
}

// RequestPasswordReset issues an opaque token bound to the account. The
// token is returned to the caller because email delivery is out of scope;
// whether the email exists is never revealed through the error.
func (u *Usecase) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email, err := validate.Email(email)
	if err != nil {
		return "", err
	}

	user, err := u.users.LoadByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, infra_postgres_user.ErrUserNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %w", ErrInternal, err)
	}

	token := uuid.New().String()
	if err := u.resetTokens.Set(token, strconv.FormatInt(user.ID, 10), u.resetTTL); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return token, nil
}

func (u *Usecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	newPassword, err := validate.Password(newPassword)
	if err != nil {
		return err
	}

	value, err := u.resetTokens.Get(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if value == "" {
		return ErrInvalidResetToken
	}

	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return ErrInvalidResetToken
	}

	hash, err := service_password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	if err := u.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, infra_postgres_user.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	_ = u.resetTokens.Delete(token)

	return nil
}

func (u *Usecase) DeleteAccount(ctx context.Context, userID int64) error {
	if err := u.users.DeleteByID(ctx, userID); err != nil {
		if errors.Is(err, infra_postgres_user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return nil
}
