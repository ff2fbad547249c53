package security

import (
	"errors"
	"testing"
)

func policyCode(t *testing.T, err error) string {
	t.Helper()
	var perr *PasswordPolicyError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PasswordPolicyError, got %v", err)
	}
	return perr.Code
}

func TestDefaultPasswordValidatorAcceptsStrongPassword(t *testing.T) {
	v := DefaultPasswordValidator("alice", "alice@example.com")

	if err := v.Validate("kT9#mansion-Yacht"); err != nil {
		t.Fatalf("expected strong password to pass, got %v", err)
	}
}

func TestDefaultPasswordValidatorRejectsShort(t *testing.T) {
	v := DefaultPasswordValidator()

	err := v.Validate("1")
	if err == nil {
		t.Fatal("expected short password to be rejected")
	}
	if code := policyCode(t, err); code != "min_length" {
		t.Fatalf("expected min_length violation, got %q", code)
	}
}

func TestDefaultPasswordValidatorRejectsSingleClass(t *testing.T) {
	v := DefaultPasswordValidator()

	err := v.Validate("abcdefghijkl")
	if err == nil {
		t.Fatal("expected single-class password to be rejected")
	}
	if code := policyCode(t, err); code != "character_classes" {
		t.Fatalf("expected character_classes violation, got %q", code)
	}
}

func TestDefaultPasswordValidatorRejectsGuessable(t *testing.T) {
	v := DefaultPasswordValidator()

	err := v.Validate("Password123!")
	if err == nil {
		t.Fatal("expected dictionary-based password to be rejected")
	}
	if code := policyCode(t, err); code != "weak_password" {
		t.Fatalf("expected weak_password violation, got %q", code)
	}
}

func TestStrengthRuleUsesUserInputs(t *testing.T) {
	rule := StrengthRule(3, "montgomery.burns", "burns@example.com")

	if err := rule("Montgomery.Burns#1"); err == nil {
		t.Fatal("expected password derived from user inputs to score low")
	}
}

func TestDifferentFromRule(t *testing.T) {
	rule := DifferentFromRule("current secret")

	if err := rule("current secret"); err == nil {
		t.Fatal("expected unchanged password to be rejected")
	}
	if err := rule("another secret"); err != nil {
		t.Fatalf("expected changed password to pass, got %v", err)
	}
}
