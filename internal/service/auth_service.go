package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/apperrors"
)

// AuthSubject identifies the caller in password operations that apply to
// both account kinds.
type AuthSubject struct {
	Type domain.SubjectType
	ID   string
}

// AuthService handles registration, login for both subject types, and the
// password reset and change flows. Unknown emails and bad passwords both
// come back as "invalid credentials" so login never reveals which one it was.
type AuthService struct {
	users      repository.UserRepository
	staff      repository.StaffRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies bundles the repositories NewAuthService needs.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	StaffRepo         repository.StaffRepository
	PasswordResetRepo repository.PasswordResetRepository
}

func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		staff:      deps.StaffRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// RegisterUser creates an end-user account and logs it in.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, domain.SubjectTypeUser, nil)
	return user, token, exp, err
}

// LoginUser authenticates an end user. Suspended accounts are refused even
// with the right password.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, loginLookupError(err)
	}
	if user.Status == domain.UserStatusSuspended {
		return nil, "", time.Time{}, apperrors.NewForbidden("account suspended")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, domain.SubjectTypeUser, nil)
	return user, token, exp, err
}

// LoginStaff authenticates a staff member; the issued token carries the role.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffMember, string, time.Time, error) {
	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, loginLookupError(err)
	}
	if !staff.Active {
		return nil, "", time.Time{}, apperrors.NewForbidden("staff inactive")
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(staff.ID, domain.SubjectTypeStaff, &staff.Role)
	return staff, token, exp, err
}

// Logout is a no-op: tokens are stateless and simply expire.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// RequestPasswordReset mints a one-shot reset token for the account behind
// the email, trying users first and falling back to staff.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	subjectType := domain.SubjectTypeUser
	var subjectID string

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		subjectID = user.ID
	case errors.Is(err, pgx.ErrNoRows):
		staff, staffErr := s.staff.GetByEmail(ctx, email)
		if staffErr != nil {
			return nil, staffErr
		}
		subjectType = domain.SubjectTypeStaff
		subjectID = staff.ID
	default:
		return nil, err
	}

	token := &repository.PasswordResetToken{
		SubjectType: string(subjectType),
		SubjectID:   subjectID,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset redeems a reset token and installs the new password.
// The token is burned afterwards.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewUnauthorized("token expired or used")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.setSubjectPassword(ctx, domain.SubjectType(token.SubjectType), token.SubjectID, hash); err != nil {
		return err
	}
	return s.resets.MarkUsed(ctx, token.ID)
}

// ChangePassword swaps the password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, subject AuthSubject, currentPassword, newPassword string) error {
	currentHash, err := s.subjectPasswordHash(ctx, subject.Type, subject.ID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(currentHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	newHash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.setSubjectPassword(ctx, subject.Type, subject.ID, newHash)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) subjectPasswordHash(ctx context.Context, subjectType domain.SubjectType, id string) (string, error) {
	switch subjectType {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return user.PasswordHash, nil
	case domain.SubjectTypeStaff:
		staff, err := s.staff.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return staff.PasswordHash, nil
	default:
		return "", apperrors.NewUnauthorized("unknown subject")
	}
}

func (s *AuthService) setSubjectPassword(ctx context.Context, subjectType domain.SubjectType, id, hash string) error {
	switch subjectType {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		return s.users.Update(ctx, user)
	case domain.SubjectTypeStaff:
		staff, err := s.staff.GetByID(ctx, id)
		if err != nil {
			return err
		}
		staff.PasswordHash = hash
		return s.staff.Update(ctx, staff)
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}
}

// loginLookupError hides whether the email exists.
func loginLookupError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return err
}
