package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"banknote-review-service/internal/apperr"
	"banknote-review-service/internal/logger"
	"banknote-review-service/internal/model"
	"banknote-review-service/internal/repository"
)

const bcryptCost = 10

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdateAvatar(ctx context.Context, userID, avatar string) error
}

type TokenSigner interface {
	Sign(user model.Identity) (string, error)
}

// TokenRevoker records logged-out tokens. Optional.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
}

// AvatarStore keeps avatar images.
type AvatarStore interface {
	Upload(ctx context.Context, filename, contentType string, src io.Reader) (string, error)
	Download(ctx context.Context, fileID string) ([]byte, string, error)
}

// AccountService registers users, checks credentials and issues session
// tokens.
type AccountService struct {
	users   UserStore
	tokens  TokenSigner
	revoker TokenRevoker
	avatars AvatarStore
	log     *logger.Logger
	now     func() time.Time
}

func NewAccountService(
	users UserStore,
	tokens TokenSigner,
	revoker TokenRevoker,
	avatars AvatarStore,
	log *logger.Logger,
) *AccountService {
	return &AccountService{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		avatars: avatars,
		log:     log.With("service", "AccountService"),
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a regular account and returns a session token for it.
func (s *AccountService) Signup(ctx context.Context, fullname, email, password string) (string, error) {
	fullname = strings.TrimSpace(fullname)
	email = normalizeEmail(email)
	if fullname == "" || email == "" || password == "" {
		return "", apperr.Validation("Invalid credentials")
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return "", apperr.Conflict(fmt.Sprintf("Email %s already taken", email))
	case !errors.Is(err, repository.ErrNotFound):
		return "", fmt.Errorf("AccountService.Signup: lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("AccountService.Signup: hash: %w", err)
	}
	user := &model.User{
		ID:            uuid.NewString(),
		Fullname:      fullname,
		Email:         email,
		Password:      string(hash),
		Avatar:        model.DefaultAvatar,
		Role:          model.RoleUser,
		TypeOfAccount: model.AccountRegular,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", apperr.Conflict(fmt.Sprintf("Email %s already taken", email))
		}
		return "", fmt.Errorf("AccountService.Signup: create: %w", err)
	}

	s.log.Info("user registered", "user_id", user.ID)
	return s.sign(user)
}

// Login checks credentials and returns a fresh session token.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", apperr.Validation("Invalid credentials")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperr.Unauthorized("User unregistered")
	}
	if err != nil {
		return "", fmt.Errorf("AccountService.Login: lookup: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apperr.Unauthorized("Invalid credentials")
	}
	return s.sign(user)
}

// Logout revokes the session's token when a revocation list is configured.
// Anonymous callers and unconfigured deployments succeed without effect.
func (s *AccountService) Logout(ctx context.Context, session model.Session) error {
	if s.revoker == nil || !session.IsLoggedIn() || session.TokenID == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("AccountService.Logout: %w", err)
	}
	return nil
}

// UploadAvatar stores an image for the session's user and points the account
// at it. It returns the public avatar path.
func (s *AccountService) UploadAvatar(ctx context.Context, session model.Session, filename, contentType string, src io.Reader) (string, error) {
	if !session.IsLoggedIn() {
		return "", apperr.Unauthorized("Unauthorized")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.Validation("Avatar must be an image")
	}
	if s.avatars == nil {
		return "", apperr.Internal("Avatar storage unavailable")
	}

	fileID, err := s.avatars.Upload(ctx, fmt.Sprintf("avatar_%s_%s", session.User.ID, filename), contentType, src)
	if err != nil {
		return "", fmt.Errorf("AccountService.UploadAvatar: %w", err)
	}
	avatar := "/avatars/" + fileID
	if err := s.users.UpdateAvatar(ctx, session.User.ID, avatar); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.NotFound("User not found")
		}
		return "", fmt.Errorf("AccountService.UploadAvatar: %w", err)
	}
	return avatar, nil
}

// Avatar returns a stored avatar image and its content type.
func (s *AccountService) Avatar(ctx context.Context, fileID string) ([]byte, string, error) {
	if s.avatars == nil {
		return nil, "", apperr.NotFound("Avatar not found")
	}
	data, contentType, err := s.avatars.Download(ctx, fileID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperr.NotFound("Avatar not found")
	}
	if err != nil {
		return nil, "", fmt.Errorf("AccountService.Avatar: %w", err)
	}
	return data, contentType, nil
}

func (s *AccountService) sign(user *model.User) (string, error) {
	token, err := s.tokens.Sign(user.Identity())
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}
