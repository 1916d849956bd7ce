// Package services contains server-side business logic. This file implements
// AuthService, which runs signup, the two-step login, logout and the
// three-step forgot-password flow on top of the user, role and token stores.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/logging"
	"github.com/readease/readease/internal/server/auth"
	"github.com/readease/readease/internal/server/config"
	"github.com/readease/readease/internal/server/mail"
	"github.com/readease/readease/internal/server/models"
	"github.com/readease/readease/internal/server/repositories/roles"
	"github.com/readease/readease/internal/server/repositories/tokens"
	"github.com/readease/readease/internal/server/repositories/users"
)

// TokenCodec is the part of auth.Codec the service depends on.
type TokenCodec interface {
	Issue(subject string, kind models.TokenKind) (string, error)
	IsExpired(token string) bool
	ExtractSubject(token string) (string, error)
	ExtractKind(token string) (models.TokenKind, error)
	Expiration(kind models.TokenKind) (time.Duration, error)
}

// Deps bundles the collaborators of AuthService.
type Deps struct {
	Users  users.Repository
	Roles  roles.Repository
	Tokens tokens.Repository
	Codec  TokenCodec
	Hasher auth.PasswordHasher
	Mailer mail.Mailer
	Logger logging.Logger
}

// LoginResult is what a successful login step 2 hands back to the caller.
type LoginResult struct {
	User            *models.User
	AccessToken     string
	RefreshToken    string
	RefreshMaxAge   time.Duration
	CurrentDocument *models.Document
	Library         *models.Library
}

// AuthService is stateless between calls; all state lives in the stores.
type AuthService struct {
	users         users.Repository
	roles         roles.Repository
	tokens        tokens.Repository
	codec         TokenCodec
	hasher        auth.PasswordHasher
	mailer        mail.Mailer
	logger        logging.Logger
	defaultRoleID int
	now           func() time.Time
}

// NewAuthService constructs an AuthService from its collaborators and the
// server config.
func NewAuthService(d Deps, cfg *config.Config) *AuthService {
	return &AuthService{
		users:         d.Users,
		roles:         d.Roles,
		tokens:        d.Tokens,
		codec:         d.Codec,
		hasher:        d.Hasher,
		mailer:        d.Mailer,
		logger:        d.Logger.With("module", "auth"),
		defaultRoleID: cfg.DefaultRoleID,
		now:           time.Now,
	}
}

// SetClock replaces the wall clock used for token rows and reading time.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// SignUp registers a new user with the default role.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, common.ErrInvalidRequest
	}

	n, err := s.users.CountByEmail(ctx, email)
	if err != nil {
		s.logger.Error(ctx, "count users failed", "error", err)
		return nil, common.ErrorInternal
	}
	if n > 0 {
		s.logger.Info(ctx, "signup rejected: duplicate email", "email", email)
		return nil, common.ErrDuplicateEmail
	}

	role, err := s.roles.FindByID(ctx, s.defaultRoleID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "default role missing", "role_id", s.defaultRoleID)
			return nil, common.ErrRoleNotFound
		}
		s.logger.Error(ctx, "load role failed", "error", err)
		return nil, common.ErrorInternal
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "hash password failed", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := s.users.Create(ctx, &models.User{Email: email, PasswordHash: hash, RoleID: role.ID})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Info(ctx, "signup rejected: duplicate email", "email", email)
			return nil, common.ErrDuplicateEmail
		}
		s.logger.Error(ctx, "create user failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// EmailExists is login step 1: it only reports whether email is registered.
func (s *AuthService) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.users.CountByEmail(ctx, email)
	if err != nil {
		s.logger.Error(ctx, "count users failed", "error", err)
		return false, common.ErrorInternal
	}
	return n > 0, nil
}

// Login is login step 2. A user holding a live access token cannot log in
// again until logout.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownEmail
		}
		s.logger.Error(ctx, "load user failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Info(ctx, "login rejected: bad password", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	access, err := s.issue(user.Email, models.TokenKindAccess)
	if err != nil {
		s.logger.Error(ctx, "issue access token failed", "error", err)
		return nil, common.ErrorInternal
	}

	// check-then-insert; two concurrent logins may both pass
	active, err := s.hasLiveToken(ctx, user.ID, models.TokenKindAccess)
	if err != nil {
		return nil, err
	}
	if active {
		s.logger.Info(ctx, "login rejected: session already active", "user_id", user.ID)
		return nil, common.ErrSessionAlreadyActive
	}

	if err := s.save(ctx, user.ID, access); err != nil {
		return nil, err
	}

	maxAge, err := s.codec.Expiration(models.TokenKindRefresh)
	if err != nil {
		s.logger.Error(ctx, "refresh token policy missing", "error", err)
		return nil, common.ErrorInternal
	}
	refresh, err := s.issue(user.Email, models.TokenKindRefresh)
	if err != nil {
		s.logger.Error(ctx, "issue refresh token failed", "error", err)
		return nil, common.ErrorInternal
	}
	if err := s.replace(ctx, user.ID, refresh); err != nil {
		return nil, err
	}

	lib, err := s.users.GetLibrary(ctx, user.ID)
	if err != nil {
		s.logger.Error(ctx, "load library failed", "error", err)
		return nil, common.ErrorInternal
	}
	models.SortByLastReadDesc(lib.Documents)

	s.logger.Info(ctx, "login accepted", "user_id", user.ID)

	return &LoginResult{
		User:            user,
		AccessToken:     access.Token,
		RefreshToken:    refresh.Token,
		RefreshMaxAge:   maxAge,
		CurrentDocument: currentDocument(user, lib),
		Library:         lib,
	}, nil
}

// Logout adds the time spent since last access to the user's reading time
// and revokes every token the user holds.
func (s *AuthService) Logout(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUserNotFound
		}
		s.logger.Error(ctx, "load user failed", "error", err)
		return common.ErrorInternal
	}

	now := s.now()
	elapsed := int64(now.Sub(user.LastAccess) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	if err := s.users.UpdateLastAccessByEmail(ctx, email, now, elapsed); err != nil {
		s.logger.Error(ctx, "update last access failed", "error", err)
		return common.ErrorInternal
	}

	if err := s.tokens.DeleteByUser(ctx, user.ID); err != nil {
		s.logger.Error(ctx, "delete tokens failed", "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "logout", "user_id", user.ID, "elapsed_seconds", elapsed)
	return nil
}

// ForgotPassword is forgot-password step 1: it stores a reset token and
// mails it. Mail delivery is best effort.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidEmail
		}
		s.logger.Error(ctx, "load user failed", "error", err)
		return common.ErrorInternal
	}

	reset, err := s.issue(user.Email, models.TokenKindResetPassword)
	if err != nil {
		s.logger.Error(ctx, "issue reset token failed", "error", err)
		return common.ErrorInternal
	}
	if err := s.save(ctx, user.ID, reset); err != nil {
		return err
	}

	if err := s.mailer.SendResetPassword(ctx, user.Email, reset.Token); err != nil {
		s.logger.Warn(ctx, "reset email not sent", "user_id", user.ID, "error", err)
	}

	return nil
}

// VerifyResetToken is forgot-password step 2. It never mutates state.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) error {
	_, err := s.lookupResetToken(ctx, token)
	return err
}

// ResetPassword is forgot-password step 3. The token is consumed on success.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	row, err := s.lookupResetToken(ctx, token)
	if err != nil {
		return err
	}
	if newPassword == "" {
		return common.ErrInvalidRequest
	}

	email, err := s.codec.ExtractSubject(token)
	if err != nil {
		return common.ErrInvalidToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error(ctx, "hash password failed", "error", err)
		return common.ErrorInternal
	}

	if err := s.users.UpdatePasswordByEmail(ctx, email, hash); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		s.logger.Error(ctx, "update password failed", "error", err)
		return common.ErrorInternal
	}

	if err := s.tokens.Delete(ctx, row); err != nil {
		s.logger.Error(ctx, "delete reset token failed", "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "password reset", "user_id", row.UserID)
	return nil
}

// lookupResetToken returns the stored row when token is non-empty, not
// expired, known to the store and of the reset kind.
func (s *AuthService) lookupResetToken(ctx context.Context, token string) (*models.Token, error) {
	if token == "" || s.codec.IsExpired(token) {
		return nil, common.ErrInvalidToken
	}

	row, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		s.logger.Error(ctx, "load token failed", "error", err)
		return nil, common.ErrorInternal
	}
	if row.Kind != models.TokenKindResetPassword || row.Expired(s.now()) {
		return nil, common.ErrInvalidToken
	}
	if kind, err := s.codec.ExtractKind(token); err != nil || kind != models.TokenKindResetPassword {
		return nil, common.ErrInvalidToken
	}

	return row, nil
}

// hasLiveToken reports whether userID owns an unexpired token of kind.
// Stale rows are removed on the way.
func (s *AuthService) hasLiveToken(ctx context.Context, userID string, kind models.TokenKind) (bool, error) {
	row, err := s.tokens.FindByUserAndKind(ctx, userID, kind)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		s.logger.Error(ctx, "load token failed", "error", err)
		return false, common.ErrorInternal
	}

	if !row.Expired(s.now()) && !s.codec.IsExpired(row.Token) {
		return true, nil
	}

	if err := s.tokens.Delete(ctx, row); err != nil {
		s.logger.Error(ctx, "delete stale token failed", "error", err)
		return false, common.ErrorInternal
	}
	return false, nil
}

// replace stores t after dropping any previous token of the same kind.
func (s *AuthService) replace(ctx context.Context, userID string, t *models.Token) error {
	old, err := s.tokens.FindByUserAndKind(ctx, userID, t.Kind)
	switch {
	case err == nil:
		if err := s.tokens.Delete(ctx, old); err != nil {
			s.logger.Error(ctx, "delete token failed", "error", err)
			return common.ErrorInternal
		}
	case !errors.Is(err, common.ErrorNotFound):
		s.logger.Error(ctx, "load token failed", "error", err)
		return common.ErrorInternal
	}
	return s.save(ctx, userID, t)
}

func (s *AuthService) save(ctx context.Context, userID string, t *models.Token) error {
	t.UserID = userID
	if err := s.tokens.Save(ctx, t); err != nil {
		s.logger.Error(ctx, "save token failed", "kind", t.Kind.String(), "error", err)
		return common.ErrorInternal
	}
	return nil
}

func (s *AuthService) issue(subject string, kind models.TokenKind) (*models.Token, error) {
	ttl, err := s.codec.Expiration(kind)
	if err != nil {
		return nil, err
	}
	token, err := s.codec.Issue(subject, kind)
	if err != nil {
		return nil, err
	}
	return &models.Token{Token: token, Kind: kind, ExpiresAt: s.now().Add(ttl)}, nil
}

func currentDocument(user *models.User, lib *models.Library) *models.Document {
	if user.LastReadingDocumentID == nil {
		return nil
	}
	for _, d := range lib.Documents {
		if d.ID == *user.LastReadingDocumentID {
			return d
		}
	}
	return nil
}
