package security

import (
	"fmt"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

const (
	minPasswordLength   = 10
	minCharacterClasses = 3
	minStrengthScore    = 3
)

// PasswordPolicyError describes a single policy violation. Code is stable for
// programmatic handling; Message is safe to show the caller.
type PasswordPolicyError struct {
	Code    string
	Message string
}

func (e *PasswordPolicyError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// PasswordRule checks one aspect of the password policy.
type PasswordRule func(password string) error

// PasswordValidator runs rules in order and stops at the first violation.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator builds a validator from the given rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	return &PasswordValidator{rules: append([]PasswordRule(nil), rules...)}
}

// DefaultPasswordValidator enforces the service policy: minimum length,
// character variety and a zxcvbn strength floor. userInputs (username, email)
// are fed to zxcvbn so credentials derived from them score low.
func DefaultPasswordValidator(userInputs ...string) *PasswordValidator {
	return NewPasswordValidator(
		MinLengthRule(minPasswordLength),
		CharacterClassesRule(minCharacterClasses),
		StrengthRule(minStrengthScore, userInputs...),
	)
}

// NewCredentialChangeValidator is the policy applied when an existing
// credential is replaced: the service defaults plus a rule rejecting the
// password being replaced.
func NewCredentialChangeValidator(currentPassword string, userInputs ...string) *PasswordValidator {
	return NewPasswordValidator(
		DifferentFromRule(currentPassword),
		MinLengthRule(minPasswordLength),
		CharacterClassesRule(minCharacterClasses),
		StrengthRule(minStrengthScore, userInputs...),
	)
}

// Validate returns the first violated rule's error, or nil.
func (v *PasswordValidator) Validate(password string) error {
	if v == nil {
		return fmt.Errorf("password validator not configured")
	}
	for _, rule := range v.rules {
		if err := rule(password); err != nil {
			return err
		}
	}
	return nil
}

// MinLengthRule requires at least min runes.
func MinLengthRule(min int) PasswordRule {
	return func(password string) error {
		if len([]rune(password)) < min {
			return &PasswordPolicyError{
				Code:    "min_length",
				Message: fmt.Sprintf("password must be at least %d characters long", min),
			}
		}
		return nil
	}
}

// CharacterClassesRule requires characters from at least min of the four
// classes: upper, lower, digit, symbol.
func CharacterClassesRule(min int) PasswordRule {
	return func(password string) error {
		if min <= 0 {
			return nil
		}

		seen := map[string]bool{}
		for _, r := range password {
			switch {
			case unicode.IsUpper(r):
				seen["upper"] = true
			case unicode.IsLower(r):
				seen["lower"] = true
			case unicode.IsDigit(r):
				seen["digit"] = true
			case unicode.IsSymbol(r) || unicode.IsPunct(r):
				seen["symbol"] = true
			}
		}

		if len(seen) < min {
			return &PasswordPolicyError{
				Code:    "character_classes",
				Message: fmt.Sprintf("password must mix at least %d character types", min),
			}
		}
		return nil
	}
}

// DifferentFromRule rejects a password equal to the comparator, typically the
// credential being replaced.
func DifferentFromRule(comparator string) PasswordRule {
	return func(password string) error {
		if password == comparator {
			return &PasswordPolicyError{
				Code:    "unchanged",
				Message: "new password must differ from the current one",
			}
		}
		return nil
	}
}

// StrengthRule enforces a minimum zxcvbn score. Scores cap at 4.
func StrengthRule(minScore int, userInputs ...string) PasswordRule {
	return func(password string) error {
		if minScore <= 0 {
			return nil
		}
		if minScore > 4 {
			minScore = 4
		}

		if zxcvbn.PasswordStrength(password, userInputs).Score >= minScore {
			return nil
		}

		return &PasswordPolicyError{
			Code:    "weak_password",
			Message: "password is too easy to guess, choose a stronger one",
		}
	}
}
