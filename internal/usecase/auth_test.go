package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/oakmund/admin-iam/internal/core/domain"
	"github.com/oakmund/admin-iam/internal/core/port"
	"github.com/oakmund/admin-iam/internal/infra/security"
	"github.com/oakmund/admin-iam/internal/repository"
)

type fakeUserRepo struct {
	mu            sync.Mutex
	users         map[string]*domain.User
	findErr       error
	credentialLog []string
	lastLoginLog  []string
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, tenantID, username string) (*domain.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.TenantID == tenantID && u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) UpdateCredential(_ context.Context, id, hash, salt string, iterations int, changedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.PasswordSalt = salt
	u.HashIterations = iterations
	u.LastPasswordChange = &changedAt
	f.credentialLog = append(f.credentialLog, id)
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = &at
	f.lastLoginLog = append(f.lastLoginLog, id)
	return nil
}

type fakeLockoutRepo struct {
	mu       sync.Mutex
	users    *fakeUserRepo
	failures []string
	resets   []string
	failErr  error
}

func (f *fakeLockoutRepo) Get(_ context.Context, userID string) (domain.LockoutState, error) {
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	u, ok := f.users.users[userID]
	if !ok {
		return domain.LockoutState{}, repository.ErrNotFound
	}
	return domain.LockoutState{UserID: userID, FailCount: u.FailCount, LockedAt: u.LockedAt}, nil
}

func (f *fakeLockoutRepo) RecordFailure(_ context.Context, userID string, threshold int, now time.Time) (domain.LockoutState, error) {
	if f.failErr != nil {
		return domain.LockoutState{}, f.failErr
	}
	f.mu.Lock()
	f.failures = append(f.failures, userID)
	f.mu.Unlock()

	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	u, ok := f.users.users[userID]
	if !ok {
		return domain.LockoutState{}, repository.ErrNotFound
	}
	if u.LockedAt == nil {
		u.FailCount++
		if u.FailCount >= threshold {
			lockedAt := now
			u.LockedAt = &lockedAt
		}
	}
	return domain.LockoutState{UserID: userID, FailCount: u.FailCount, LockedAt: u.LockedAt}, nil
}

func (f *fakeLockoutRepo) Reset(_ context.Context, userID string) error {
	f.mu.Lock()
	f.resets = append(f.resets, userID)
	f.mu.Unlock()

	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	u, ok := f.users.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.FailCount = 0
	u.LockedAt = nil
	return nil
}

type fakeAuditEmitter struct {
	mu           sync.Mutex
	attempts     []domain.LoginAttempt
	devices      []domain.LoginDevice
	environments []domain.LoginEnvironment
	attemptErr   error
}

func (f *fakeAuditEmitter) RecordAttempt(_ context.Context, attempt domain.LoginAttempt) error {
	if f.attemptErr != nil {
		return f.attemptErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeAuditEmitter) UpsertDevice(_ context.Context, device domain.LoginDevice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = append(f.devices, device)
	return nil
}

func (f *fakeAuditEmitter) RecordEnvironment(_ context.Context, env domain.LoginEnvironment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.environments = append(f.environments, env)
	return nil
}

type fakeErrorAudit struct {
	mu      sync.Mutex
	records []domain.ErrorRecord
}

func (f *fakeErrorAudit) RecordError(_ context.Context, record domain.ErrorRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

type authFixture struct {
	service   *AuthService
	users     *fakeUserRepo
	lockouts  *fakeLockoutRepo
	blacklist *security.BlacklistCache
	audit     *fakeAuditEmitter
	errAudit  *fakeErrorAudit
	issuer    *security.TokenIssuer
	now       time.Time
}

func newAuthFixture(t *testing.T, cfg AuthConfig, users ...*domain.User) *authFixture {
	t.Helper()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	issuer, err := security.NewTokenIssuer("unit-test-signing-key", "admin-iam", 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("new token issuer: %v", err)
	}
	issuer.WithClock(clock)

	userRepo := newFakeUserRepo(users...)
	lockouts := &fakeLockoutRepo{users: userRepo}
	blacklist := security.NewBlacklistCache(0).WithClock(clock)
	audit := &fakeAuditEmitter{}
	errAudit := &fakeErrorAudit{}

	service := NewAuthService(cfg, userRepo, lockouts, blacklist, issuer, audit, errAudit, zaptest.NewLogger(t))
	service.WithClock(clock)

	return &authFixture{
		service:   service,
		users:     userRepo,
		lockouts:  lockouts,
		blacklist: blacklist,
		audit:     audit,
		errAudit:  errAudit,
		issuer:    issuer,
		now:       now,
	}
}

func activeUser(t *testing.T, password string) *domain.User {
	t.Helper()

	hash, salt, iterations, err := security.GenerateHashAndSalt(password)
	if err != nil {
		t.Fatalf("generate hash and salt: %v", err)
	}

	return &domain.User{
		ID:             "user-1",
		TenantID:       "tenant-1",
		Username:       "alice",
		Email:          "alice@example.com",
		Status:         domain.UserStatusActive,
		PasswordHash:   hash,
		PasswordSalt:   salt,
		HashIterations: iterations,
		RegisteredAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func loginInput(password string) LoginInput {
	return LoginInput{
		TenantID: "tenant-1",
		Username: "alice",
		Password: password,
		Client: domain.ClientContext{
			IP:          "203.0.113.10",
			Browser:     "Firefox",
			OS:          "Linux",
			DeviceID:    "device-9",
			DeviceType:  "desktop",
			DeviceModel: "ThinkPad",
		},
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))

	pair, err := fx.service.Authenticate(context.Background(), loginInput("s3cret!"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both token artifacts")
	}

	claims, ok := fx.issuer.Validate(pair.AccessToken, false)
	if !ok {
		t.Fatal("issued access token does not validate")
	}
	if claims.UserID != "user-1" || claims.TenantID != "tenant-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if len(fx.lockouts.resets) != 1 {
		t.Fatalf("expected one lockout reset, got %d", len(fx.lockouts.resets))
	}
	if len(fx.users.lastLoginLog) != 1 {
		t.Fatalf("expected last login update, got %d", len(fx.users.lastLoginLog))
	}

	if len(fx.audit.attempts) != 1 || !fx.audit.attempts[0].Success {
		t.Fatalf("expected one successful attempt, got %+v", fx.audit.attempts)
	}
	if len(fx.audit.devices) != 1 || fx.audit.devices[0].DeviceID != "device-9" {
		t.Fatalf("expected device upsert, got %+v", fx.audit.devices)
	}
	if len(fx.audit.environments) != 1 || fx.audit.environments[0].IP != "203.0.113.10" {
		t.Fatalf("expected environment record, got %+v", fx.audit.environments)
	}
}

func TestAuthenticateEmptyCredentials(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))

	input := loginInput("")
	if _, err := fx.service.Authenticate(context.Background(), input); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if len(fx.audit.attempts) != 1 || fx.audit.attempts[0].Success {
		t.Fatalf("expected one failed attempt, got %+v", fx.audit.attempts)
	}
	if fx.audit.attempts[0].Identifier != "alice" {
		t.Fatalf("expected attempt against supplied identifier, got %+v", fx.audit.attempts[0])
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))

	input := loginInput("whatever")
	input.Username = "mallory"
	if _, err := fx.service.Authenticate(context.Background(), input); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	if len(fx.audit.attempts) != 1 || fx.audit.attempts[0].UserID != "" {
		t.Fatalf("expected anonymous failed attempt, got %+v", fx.audit.attempts)
	}
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	user := activeUser(t, "s3cret!")
	user.Status = domain.UserStatusDisabled
	fx := newAuthFixture(t, AuthConfig{}, user)

	if _, err := fx.service.Authenticate(context.Background(), loginInput("s3cret!")); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}

	if len(fx.lockouts.failures) != 0 {
		t.Fatal("disabled account must not touch the failure counter")
	}
}

func TestAuthenticateWrongPasswordIncrementsCounter(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{LockoutThreshold: 5, LockoutDuration: 30 * time.Minute}, activeUser(t, "s3cret!"))
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := fx.service.Authenticate(ctx, loginInput("wrong"))
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	user, err := fx.users.GetByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.FailCount != 4 {
		t.Fatalf("expected fail count 4, got %d", user.FailCount)
	}
	if user.LockedAt != nil {
		t.Fatal("locked before reaching the threshold")
	}
}

func TestAuthenticateFifthFailureLocks(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{LockoutThreshold: 5, LockoutDuration: 30 * time.Minute}, activeUser(t, "s3cret!"))
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		if _, err := fx.service.Authenticate(ctx, loginInput("wrong")); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}

	_, err := fx.service.Authenticate(ctx, loginInput("wrong"))
	var lockedErr *AccountLockedError
	if !errors.As(err, &lockedErr) {
		t.Fatalf("expected AccountLockedError on fifth failure, got %v", err)
	}
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatal("AccountLockedError must unwrap to ErrAccountLocked")
	}
	if lockedErr.RetryAfter != 30*time.Minute {
		t.Fatalf("expected full lock window remaining, got %v", lockedErr.RetryAfter)
	}

	// Even the correct password is rejected while locked, without another
	// counter increment.
	failuresBefore := len(fx.lockouts.failures)
	_, err = fx.service.Authenticate(ctx, loginInput("s3cret!"))
	if !errors.As(err, &lockedErr) {
		t.Fatalf("expected AccountLockedError while locked, got %v", err)
	}
	if len(fx.lockouts.failures) != failuresBefore {
		t.Fatal("locked account recorded an extra failure")
	}
}

func TestAuthenticateLockAgesOut(t *testing.T) {
	user := activeUser(t, "s3cret!")
	lockedAt := time.Date(2025, 3, 10, 11, 15, 0, 0, time.UTC)
	user.FailCount = 5
	user.LockedAt = &lockedAt

	fx := newAuthFixture(t, AuthConfig{LockoutThreshold: 5, LockoutDuration: 30 * time.Minute}, user)

	// The fixture clock reads 12:00, 45 minutes past the lock.
	pair, err := fx.service.Authenticate(context.Background(), loginInput("s3cret!"))
	if err != nil {
		t.Fatalf("expected aged-out lock to clear, got %v", err)
	}
	if pair.AccessToken == "" {
		t.Fatal("expected token pair after lock aged out")
	}

	refreshed, err := fx.users.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if refreshed.FailCount != 0 || refreshed.LockedAt != nil {
		t.Fatalf("expected counter and lock cleared together, got %+v", refreshed)
	}
}

func TestAuthenticateAuditFailureIsNonFatal(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))
	fx.audit.attemptErr = errors.New("broker down")

	if _, err := fx.service.Authenticate(context.Background(), loginInput("s3cret!")); err != nil {
		t.Fatalf("audit failure must not fail authentication: %v", err)
	}
}

func TestLogoutBlacklistsBothTokens(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))
	ctx := context.Background()

	pair, err := fx.service.Authenticate(ctx, loginInput("s3cret!"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	recorded, err := fx.service.Logout(ctx, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !recorded {
		t.Fatal("expected logout to record blacklist entries")
	}

	for _, token := range []string{pair.AccessToken, pair.RefreshToken} {
		blacklisted, err := fx.blacklist.IsBlacklisted(ctx, token)
		if err != nil {
			t.Fatalf("is blacklisted: %v", err)
		}
		if !blacklisted {
			t.Fatal("token not blacklisted after logout")
		}
	}

	if _, err := fx.service.ParseAccessToken(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected blacklisted access token to be rejected, got %v", err)
	}
}

func TestLogoutTwiceIsIdempotent(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))
	ctx := context.Background()

	pair, err := fx.service.Authenticate(ctx, loginInput("s3cret!"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if _, err := fx.service.Logout(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("first logout: %v", err)
	}

	recorded, err := fx.service.Logout(ctx, pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("second logout must not fail: %v", err)
	}
	if recorded {
		t.Fatal("second logout recorded new entries")
	}
}

func TestLogoutSkipsInvalidTokens(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))

	recorded, err := fx.service.Logout(context.Background(), "garbage", "")
	if err != nil {
		t.Fatalf("logout with invalid tokens: %v", err)
	}
	if recorded {
		t.Fatal("invalid tokens must not produce blacklist entries")
	}
}

func TestRefreshTokenHappyPath(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))
	ctx := context.Background()

	pair, err := fx.service.Authenticate(ctx, loginInput("s3cret!"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	fresh, err := fx.service.RefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		t.Fatal("expected a full new pair")
	}

	// Rotation is off by default: the old refresh token stays usable.
	if _, err := fx.service.RefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("old refresh token rejected without rotation: %v", err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{RotateRefreshTokens: true}, activeUser(t, "s3cret!"))
	ctx := context.Background()

	pair, err := fx.service.Authenticate(ctx, loginInput("s3cret!"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if _, err := fx.service.RefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if _, err := fx.service.RefreshToken(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected rotated refresh token to be rejected, got %v", err)
	}
}

func TestRefreshTokenRejectsBlacklisted(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))
	ctx := context.Background()

	pair, err := fx.service.Authenticate(ctx, loginInput("s3cret!"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if _, err := fx.service.Logout(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := fx.service.RefreshToken(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))
	ctx := context.Background()

	pair, err := fx.service.Authenticate(ctx, loginInput("s3cret!"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if _, err := fx.service.RefreshToken(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected access token to be rejected as refresh, got %v", err)
	}
}

func TestRefreshTokenRejectsDisabledUser(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))
	ctx := context.Background()

	pair, err := fx.service.Authenticate(ctx, loginInput("s3cret!"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	fx.users.mu.Lock()
	fx.users.users["user-1"].Status = domain.UserStatusDisabled
	fx.users.mu.Unlock()

	if _, err := fx.service.RefreshToken(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected disabled user refresh to fail, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "old-secret"))
	ctx := context.Background()

	const replacement = "kT9#mansion-Yacht"

	if err := fx.service.ChangePassword(ctx, "user-1", "wrong", replacement); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrong current password to be rejected, got %v", err)
	}

	if err := fx.service.ChangePassword(ctx, "user-1", "old-secret", replacement); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if len(fx.users.credentialLog) != 1 {
		t.Fatalf("expected one credential update, got %d", len(fx.users.credentialLog))
	}

	if _, err := fx.service.Authenticate(ctx, loginInput("old-secret")); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := fx.service.Authenticate(ctx, loginInput(replacement)); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestChangePasswordEnforcesPolicy(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "old-secret"))
	ctx := context.Background()

	cases := []struct {
		name        string
		newPassword string
	}{
		{"trivial", "1"},
		{"single class", "abcdefghijkl"},
		{"dictionary", "Password123!"},
		{"derived from username", "Alice#2025alice"},
		{"unchanged", "old-secret"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := fx.service.ChangePassword(ctx, "user-1", "old-secret", tc.newPassword)
			if !errors.Is(err, ErrWeakPassword) {
				t.Fatalf("expected ErrWeakPassword, got %v", err)
			}

			var weak *WeakPasswordError
			if !errors.As(err, &weak) || weak.Reason == "" {
				t.Fatalf("expected a policy reason, got %v", err)
			}
		})
	}

	if len(fx.users.credentialLog) != 0 {
		t.Fatalf("expected no credential updates, got %d", len(fx.users.credentialLog))
	}
}

func TestInternalFailuresAreRecorded(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))
	fx.users.findErr = errors.New("connection refused")

	if _, err := fx.service.Authenticate(context.Background(), loginInput("s3cret!")); !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}

	if len(fx.errAudit.records) != 1 {
		t.Fatalf("expected one error audit record, got %d", len(fx.errAudit.records))
	}
	record := fx.errAudit.records[0]
	if record.Source != "authenticate" {
		t.Fatalf("unexpected error record %+v", record)
	}
	if record.UserName != "alice" {
		t.Fatalf("expected user name on error record, got %q", record.UserName)
	}
	if record.ErrorType != "infrastructure" {
		t.Fatalf("expected infrastructure error type, got %q", record.ErrorType)
	}
	if record.Stack == "" {
		t.Fatal("expected a stack capture on the error record")
	}
}

func TestPurgeExpiredBlacklist(t *testing.T) {
	fx := newAuthFixture(t, AuthConfig{}, activeUser(t, "s3cret!"))
	ctx := context.Background()

	if err := fx.blacklist.Add(ctx, domain.BlacklistEntry{
		Token:    "dying-token",
		ExpireAt: fx.now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("seed blacklist: %v", err)
	}

	// The service clock sits at fx.now, before the expiry.
	removed, err := fx.service.PurgeExpiredBlacklist(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing to purge yet, got %d", removed)
	}
}

var _ port.UserRepository = (*fakeUserRepo)(nil)
var _ port.LockoutRepository = (*fakeLockoutRepo)(nil)
var _ port.LoginAuditEmitter = (*fakeAuditEmitter)(nil)
var _ port.ErrorAuditEmitter = (*fakeErrorAudit)(nil)
