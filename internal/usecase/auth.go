package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/oakmund/admin-iam/internal/core/domain"
	"github.com/oakmund/admin-iam/internal/core/port"
	"github.com/oakmund/admin-iam/internal/infra/security"
	"github.com/oakmund/admin-iam/internal/repository"
)

var (
	// ErrInvalidCredentials covers unknown usernames and wrong passwords
	// alike, so a caller cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled indicates the account exists but may not
	// authenticate.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountLocked indicates too many consecutive failures.
	ErrAccountLocked = errors.New("account locked")
	// ErrInvalidToken collapses every token failure mode into one answer.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWeakPassword indicates a new password violating the password policy.
	ErrWeakPassword = errors.New("weak password")
	// ErrInternal masks unexpected infrastructure failures.
	ErrInternal = errors.New("internal error")
)

// WeakPasswordError carries the policy violation message for the caller. It
// unwraps to ErrWeakPassword.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("weak password: %s", e.Reason)
}

func (e *WeakPasswordError) Unwrap() error {
	return ErrWeakPassword
}

// AccountLockedError carries the time remaining until the lock ages out. It
// unwraps to ErrAccountLocked.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry after %s", e.RetryAfter)
}

func (e *AccountLockedError) Unwrap() error {
	return ErrAccountLocked
}

// LoginInput carries the credentials and client facts for one attempt.
type LoginInput struct {
	TenantID string
	Username string
	Password string
	Client   domain.ClientContext
}

// AuthConfig tunes the authentication flow.
type AuthConfig struct {
	LockoutThreshold    int
	LockoutDuration     time.Duration
	RotateRefreshTokens bool
}

// AuthService orchestrates credential verification, lockout accounting,
// token issuance and revocation.
type AuthService struct {
	cfg       AuthConfig
	users     port.UserRepository
	lockouts  port.LockoutRepository
	blacklist port.BlacklistStore
	issuer    *security.TokenIssuer
	audit     port.LoginAuditEmitter
	errAudit  port.ErrorAuditEmitter
	policy    domain.LockoutPolicy
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService wires an authentication service.
func NewAuthService(
	cfg AuthConfig,
	users port.UserRepository,
	lockouts port.LockoutRepository,
	blacklist port.BlacklistStore,
	issuer *security.TokenIssuer,
	audit port.LoginAuditEmitter,
	errAudit port.ErrorAuditEmitter,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		cfg:       cfg,
		users:     users,
		lockouts:  lockouts,
		blacklist: blacklist,
		issuer:    issuer,
		audit:     audit,
		errAudit:  errAudit,
		policy:    domain.NewLockoutPolicy(cfg.LockoutThreshold, cfg.LockoutDuration),
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the internal clock for deterministic testing.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// Authenticate runs the full login sequence and returns a token pair on
// success.
func (s *AuthService) Authenticate(ctx context.Context, input LoginInput) (*domain.TokenPair, error) {
	now := s.now().UTC()

	if input.Username == "" || input.Password == "" {
		s.emitAttempt(ctx, nil, input, false, "empty credentials", now)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, input.TenantID, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.emitAttempt(ctx, nil, input, false, "unknown user", now)
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "authenticate", "", input.Username, fmt.Errorf("find user: %w", err))
	}

	if !user.IsActive() {
		s.emitAttempt(ctx, user, input, false, "account disabled", now)
		return nil, ErrAccountDisabled
	}

	state := domain.LockoutState{UserID: user.ID, FailCount: user.FailCount, LockedAt: user.LockedAt}
	_, locked, remaining := s.policy.CheckAndMaybeUnlock(state, now)
	if locked {
		s.emitAttempt(ctx, user, input, false, "account locked", now)
		return nil, &AccountLockedError{RetryAfter: remaining}
	}
	if user.LockedAt != nil {
		// The lock aged out; clear the persisted counter before verifying.
		if err := s.lockouts.Reset(ctx, user.ID); err != nil {
			return nil, s.internal(ctx, "authenticate", user.ID, user.Username, fmt.Errorf("reset aged-out lock: %w", err))
		}
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordSalt, user.PasswordHash, user.HashIterations, 0)
	if err != nil {
		return nil, s.internal(ctx, "authenticate", user.ID, user.Username, fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		state, err := s.lockouts.RecordFailure(ctx, user.ID, s.policy.Threshold, now)
		if err != nil {
			return nil, s.internal(ctx, "authenticate", user.ID, user.Username, fmt.Errorf("record login failure: %w", err))
		}

		s.emitAttempt(ctx, user, input, false, "wrong password", now)

		if state.Locked() {
			return nil, &AccountLockedError{RetryAfter: s.policy.LockDuration}
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.lockouts.Reset(ctx, user.ID); err != nil {
		return nil, s.internal(ctx, "authenticate", user.ID, user.Username, fmt.Errorf("reset lockout: %w", err))
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("update last login failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	pair, err := s.issuer.IssueTokenPair(user)
	if err != nil {
		return nil, s.internal(ctx, "authenticate", user.ID, user.Username, fmt.Errorf("issue token pair: %w", err))
	}

	s.emitAttempt(ctx, user, input, true, "", now)
	s.emitSuccessContext(ctx, user, input.Client, now)

	return &pair, nil
}

// Logout blacklists both tokens of a pair. Invalid or already expired tokens
// are skipped silently; the returned flag reports whether at least one entry
// was recorded.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) (bool, error) {
	recorded := false

	if added, err := s.blacklistToken(ctx, accessToken, domain.TokenTypeAccess, false, "logout"); err != nil {
		return recorded, err
	} else if added {
		recorded = true
	}

	if added, err := s.blacklistToken(ctx, refreshToken, domain.TokenTypeRefresh, true, "logout"); err != nil {
		return recorded, err
	} else if added {
		recorded = true
	}

	return recorded, nil
}

func (s *AuthService) blacklistToken(ctx context.Context, token string, tokenType domain.TokenType, refresh bool, reason string) (bool, error) {
	if token == "" {
		return false, nil
	}

	claims, ok := s.issuer.Validate(token, refresh)
	if !ok {
		// Expired or malformed tokens cannot be presented anywhere, so
		// there is nothing to revoke.
		return false, nil
	}

	entry := domain.BlacklistEntry{
		Token:         token,
		TokenType:     tokenType,
		ExpireAt:      claims.ExpiresAt.Time,
		BlacklistedAt: s.now().UTC(),
		Reason:        reason,
	}

	if err := s.blacklist.Add(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrAlreadyBlacklisted) {
			s.logger.Warn("token already blacklisted",
				zap.String("token_type", string(tokenType)),
				zap.String("user_id", claims.UserID),
			)
			return false, nil
		}
		return false, s.internal(ctx, "logout", claims.UserID, "", fmt.Errorf("blacklist token: %w", err))
	}

	return true, nil
}

// RefreshToken exchanges a valid refresh token for a fresh pair. The caller
// learns only ErrInvalidToken regardless of why the exchange failed.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, ok := s.issuer.Validate(refreshToken, true)
	if !ok {
		return nil, ErrInvalidToken
	}

	blacklisted, err := s.blacklist.IsBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, s.internal(ctx, "refresh", claims.UserID, "", fmt.Errorf("blacklist lookup: %w", err))
	}
	if blacklisted {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, s.internal(ctx, "refresh", claims.UserID, "", fmt.Errorf("load user: %w", err))
	}
	if !user.IsActive() {
		return nil, ErrInvalidToken
	}

	pair, err := s.issuer.IssueTokenPair(user)
	if err != nil {
		return nil, s.internal(ctx, "refresh", user.ID, user.Username, fmt.Errorf("issue token pair: %w", err))
	}

	if s.cfg.RotateRefreshTokens {
		if _, err := s.blacklistToken(ctx, refreshToken, domain.TokenTypeRefresh, true, "rotated"); err != nil {
			return nil, err
		}
	}

	return &pair, nil
}

// ParseAccessToken validates an access token and checks it against the
// blacklist. Both checks are mandatory for every authenticated request.
func (s *AuthService) ParseAccessToken(ctx context.Context, token string) (*security.AccessTokenClaims, error) {
	claims, ok := s.issuer.Validate(token, false)
	if !ok {
		return nil, ErrInvalidToken
	}

	blacklisted, err := s.blacklist.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, s.internal(ctx, "parse access token", claims.UserID, "", fmt.Errorf("blacklist lookup: %w", err))
	}
	if blacklisted {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ChangePassword verifies the current password, checks the replacement
// against the password policy and replaces hash, salt and iteration count as
// one unit.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return s.internal(ctx, "change password", userID, "", fmt.Errorf("load user: %w", err))
	}
	if !user.IsActive() {
		return ErrAccountDisabled
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordSalt, user.PasswordHash, user.HashIterations, 0)
	if err != nil {
		return s.internal(ctx, "change password", userID, user.Username, fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return ErrInvalidCredentials
	}

	policy := security.NewCredentialChangeValidator(currentPassword, user.Username, user.Email)
	if err := policy.Validate(newPassword); err != nil {
		var perr *security.PasswordPolicyError
		if errors.As(err, &perr) {
			return &WeakPasswordError{Reason: perr.Message}
		}
		return s.internal(ctx, "change password", userID, user.Username, fmt.Errorf("validate new password: %w", err))
	}

	hash, salt, iterations, err := security.GenerateHashAndSalt(newPassword)
	if err != nil {
		return s.internal(ctx, "change password", userID, user.Username, fmt.Errorf("hash new password: %w", err))
	}

	if err := s.users.UpdateCredential(ctx, userID, hash, salt, iterations, s.now().UTC()); err != nil {
		return s.internal(ctx, "change password", userID, user.Username, fmt.Errorf("update credential: %w", err))
	}

	return nil
}

// PurgeExpiredBlacklist sweeps expired blacklist entries, typically from a
// periodic job.
func (s *AuthService) PurgeExpiredBlacklist(ctx context.Context) (int, error) {
	removed, err := s.blacklist.PurgeExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, s.internal(ctx, "purge blacklist", "", "", fmt.Errorf("purge expired: %w", err))
	}
	return removed, nil
}

func (s *AuthService) emitAttempt(ctx context.Context, user *domain.User, input LoginInput, success bool, reason string, now time.Time) {
	if s.audit == nil {
		return
	}

	attempt := domain.LoginAttempt{
		Identifier: input.Username,
		TenantID:   input.TenantID,
		Success:    success,
		Reason:     reason,
		Client:     input.Client,
		At:         now,
	}
	if user != nil {
		attempt.UserID = user.ID
		attempt.TenantID = user.TenantID
	}

	if err := s.audit.RecordAttempt(ctx, attempt); err != nil {
		s.logger.Warn("record login attempt failed", zap.Error(err))
	}
}

func (s *AuthService) emitSuccessContext(ctx context.Context, user *domain.User, client domain.ClientContext, now time.Time) {
	if s.audit == nil {
		return
	}

	if client.DeviceID != "" {
		device := domain.LoginDevice{
			UserID:      user.ID,
			DeviceID:    client.DeviceID,
			DeviceType:  client.DeviceType,
			DeviceModel: client.DeviceModel,
			LastSeenAt:  now,
		}
		if err := s.audit.UpsertDevice(ctx, device); err != nil {
			s.logger.Warn("upsert login device failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	env := domain.LoginEnvironment{
		UserID:     user.ID,
		IP:         client.IP,
		Location:   client.Location,
		Browser:    client.Browser,
		OS:         client.OS,
		RecordedAt: now,
	}
	if err := s.audit.RecordEnvironment(ctx, env); err != nil {
		s.logger.Warn("record login environment failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// internal logs the failure, records it through the error audit port and
// returns the caller-facing ErrInternal.
func (s *AuthService) internal(ctx context.Context, source, userID, userName string, err error) error {
	s.logger.Error("auth operation failed",
		zap.String("source", source),
		zap.String("user_id", userID),
		zap.Error(err),
	)

	if s.errAudit != nil {
		record := domain.ErrorRecord{
			UserID:    userID,
			UserName:  userName,
			ErrorType: errorKind(err),
			Message:   err.Error(),
			Stack:     string(debug.Stack()),
			Source:    source,
			At:        s.now().UTC(),
		}
		if auditErr := s.errAudit.RecordError(ctx, record); auditErr != nil {
			s.logger.Warn("record error audit failed", zap.Error(auditErr))
		}
	}

	return fmt.Errorf("%w: %s", ErrInternal, source)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "infrastructure"
	}
}
