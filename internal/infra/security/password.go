package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrEmptyPassword is returned when a hash or verify call receives an
	// empty password.
	ErrEmptyPassword = errors.New("pbkdf2: password must not be empty")
	// ErrEmptySalt is returned when a hash or verify call receives an empty
	// salt.
	ErrEmptySalt = errors.New("pbkdf2: salt must not be empty")
	// ErrEmptyHash is returned when a verify call receives an empty
	// expected hash.
	ErrEmptyHash = errors.New("pbkdf2: expected hash must not be empty")

	errInvalidPBKDF2Config = errors.New("pbkdf2: invalid configuration")
)

// PBKDF2Config defines tunable parameters for PBKDF2-HMAC-SHA256 password
// hashing.
type PBKDF2Config struct {
	Iterations int
	SaltLength int
	KeyLength  int
}

var (
	defaultPBKDF2Config = PBKDF2Config{
		Iterations: 10000,
		SaltLength: 16,
		KeyLength:  32,
	}

	activePBKDF2Config = defaultPBKDF2Config
	pbkdf2ConfigMu     sync.RWMutex
)

// DefaultPBKDF2Config returns the library default hashing configuration.
func DefaultPBKDF2Config() PBKDF2Config {
	return defaultPBKDF2Config
}

// CurrentPBKDF2Config returns the currently active hashing configuration.
func CurrentPBKDF2Config() PBKDF2Config {
	pbkdf2ConfigMu.RLock()
	defer pbkdf2ConfigMu.RUnlock()
	return activePBKDF2Config
}

// ConfigurePBKDF2 sets the active hashing configuration after validation.
func ConfigurePBKDF2(cfg PBKDF2Config) error {
	if err := validatePBKDF2Config(cfg); err != nil {
		return err
	}

	pbkdf2ConfigMu.Lock()
	activePBKDF2Config = cfg
	pbkdf2ConfigMu.Unlock()
	return nil
}

func validatePBKDF2Config(cfg PBKDF2Config) error {
	if cfg.Iterations < 1000 {
		return fmt.Errorf("%w: iterations must be at least 1000", errInvalidPBKDF2Config)
	}
	if cfg.SaltLength < 8 {
		return fmt.Errorf("%w: salt length must be at least 8 bytes", errInvalidPBKDF2Config)
	}
	if cfg.KeyLength < 16 {
		return fmt.Errorf("%w: key length must be at least 16 bytes", errInvalidPBKDF2Config)
	}
	return nil
}

// GenerateSalt produces a random salt of the given byte length, base64
// encoded. A non-positive length falls back to the active configuration.
func GenerateSalt(length int) (string, error) {
	if length <= 0 {
		length = CurrentPBKDF2Config().SaltLength
	}

	salt := make([]byte, length)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("pbkdf2: generate salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(salt), nil
}

// HashPassword derives a PBKDF2-HMAC-SHA256 key from the password and salt.
// The same inputs always produce the same output; empty inputs are rejected
// rather than defaulted.
func HashPassword(password, salt string, iterations, keyLength int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if salt == "" {
		return "", ErrEmptySalt
	}
	if iterations <= 0 {
		iterations = CurrentPBKDF2Config().Iterations
	}
	if keyLength <= 0 {
		keyLength = CurrentPBKDF2Config().KeyLength
	}

	sum := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha256.New)
	return base64.RawStdEncoding.EncodeToString(sum), nil
}

// VerifyPassword recomputes the hash for the candidate password and compares
// it against the stored value in constant time.
func VerifyPassword(password, salt, expected string, iterations, keyLength int) (bool, error) {
	if password == "" {
		return false, ErrEmptyPassword
	}
	if salt == "" {
		return false, ErrEmptySalt
	}
	if expected == "" {
		return false, ErrEmptyHash
	}

	computed, err := HashPassword(password, salt, iterations, keyLength)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) == 1, nil
}

// GenerateHashAndSalt produces a fresh salt and the corresponding hash using
// the active configuration. Hash, salt and iteration count travel together.
func GenerateHashAndSalt(password string) (hash, salt string, iterations int, err error) {
	if password == "" {
		return "", "", 0, ErrEmptyPassword
	}

	cfg := CurrentPBKDF2Config()

	salt, err = GenerateSalt(cfg.SaltLength)
	if err != nil {
		return "", "", 0, err
	}

	hash, err = HashPassword(password, salt, cfg.Iterations, cfg.KeyLength)
	if err != nil {
		return "", "", 0, err
	}

	return hash, salt, cfg.Iterations, nil
}
