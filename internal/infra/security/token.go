package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oakmund/admin-iam/internal/core/domain"
)

var (
	// ErrEmptySigningKey is returned when an issuer is constructed without
	// key material.
	ErrEmptySigningKey = errors.New("token: signing key must not be empty")
)

// AccessTokenClaims is the typed claim set carried by both token artifacts.
// TokenType distinguishes access from refresh tokens so one can never be
// presented in place of the other.
type AccessTokenClaims struct {
	UserID    string `json:"uid"`
	TenantID  string `json:"tid,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 token pairs.
type TokenIssuer struct {
	signingKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer constructs an issuer. TTLs fall back to 15 minutes and 7
// days when non-positive.
func NewTokenIssuer(signingKey, issuer string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if signingKey == "" {
		return nil, ErrEmptySigningKey
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &TokenIssuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock overrides the internal clock for deterministic testing.
func (ti *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	if now != nil {
		ti.now = now
	}
	return ti
}

// AccessTTL returns the configured access token lifetime.
func (ti *TokenIssuer) AccessTTL() time.Duration {
	return ti.accessTTL
}

// IssueTokenPair signs a fresh access/refresh pair for the user. The two
// artifacts carry independent jtis and expirations.
func (ti *TokenIssuer) IssueTokenPair(user *domain.User) (domain.TokenPair, error) {
	issuedAt := ti.now().UTC()
	accessExpires := issuedAt.Add(ti.accessTTL)
	refreshExpires := issuedAt.Add(ti.refreshTTL)

	accessToken, err := ti.sign(user, string(domain.TokenTypeAccess), issuedAt, accessExpires)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refreshToken, err := ti.sign(user, string(domain.TokenTypeRefresh), issuedAt, refreshExpires)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		UserID:           user.ID,
		IssuedAt:         issuedAt,
		AccessExpiresAt:  accessExpires,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

func (ti *TokenIssuer) sign(user *domain.User, tokenType string, issuedAt, expiresAt time.Time) (string, error) {
	claims := AccessTokenClaims{
		UserID:    user.ID,
		TenantID:  user.TenantID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ti.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.signingKey)
}

// Validate parses and verifies a token of the expected type. Any failure,
// whether structural, cryptographic or temporal, yields (nil, false); callers
// cannot distinguish the reason.
func (ti *TokenIssuer) Validate(token string, refresh bool) (*AccessTokenClaims, bool) {
	if token == "" {
		return nil, false
	}

	claims := &AccessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.signingKey, nil
	}, jwt.WithTimeFunc(ti.now))
	if err != nil || !parsed.Valid {
		return nil, false
	}

	expected := string(domain.TokenTypeAccess)
	if refresh {
		expected = string(domain.TokenTypeRefresh)
	}
	if claims.TokenType != expected {
		return nil, false
	}

	return claims, true
}
