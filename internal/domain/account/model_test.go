package account

import (
	"testing"
	"time"
)

// TestValidate verifies account validation rules.
func TestValidate(t *testing.T) {
	a := Account{ID: "1", Email: "asha@example.com", Role: RoleCustomer}
	if err := a.Validate(); err != nil {
		t.Errorf("expected valid account, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Account)
		want   error
	}{
		{"emptyEmail", func(a *Account) { a.Email = "" }, ErrEmptyEmail},
		{"noAt", func(a *Account) { a.Email = "asha.example.com" }, ErrInvalidEmail},
		{"badRole", func(a *Account) { a.Role = "owner" }, ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Account{ID: "1", Email: "asha@example.com", Role: RoleCustomer}
			tt.mutate(&a)
			if err := a.Validate(); err != tt.want {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

// TestSetAndCheckPassword verifies bcrypt round trip and rejection rules.
func TestSetAndCheckPassword(t *testing.T) {
	var a Account
	if err := a.SetPassword("short"); err != ErrPasswordTooShort {
		t.Errorf("got %v, want ErrPasswordTooShort", err)
	}
	if err := a.SetPassword(""); err != ErrEmptyPassword {
		t.Errorf("got %v, want ErrEmptyPassword", err)
	}
	if err := a.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if err := a.CheckPassword("correct horse battery"); err != nil {
		t.Errorf("expected matching password, got %v", err)
	}
	if err := a.CheckPassword("wrong"); err != ErrWrongPassword {
		t.Errorf("got %v, want ErrWrongPassword", err)
	}
}

// TestCheckPassword_EmptyHash verifies an unset hash never matches.
func TestCheckPassword_EmptyHash(t *testing.T) {
	var a Account
	if err := a.CheckPassword("anything"); err != ErrWrongPassword {
		t.Errorf("got %v, want ErrWrongPassword", err)
	}
}

// TestLockout verifies the failed-login lockout threshold.
func TestLockout(t *testing.T) {
	var a Account
	for i := 0; i < 4; i++ {
		a.RecordFailedLogin()
	}
	if a.IsLocked() {
		t.Error("locked before fifth failure")
	}
	a.RecordFailedLogin()
	if !a.IsLocked() {
		t.Error("expected lock after five failures")
	}
	a.ResetFailedLogins()
	if a.IsLocked() || a.FailedLogins != 0 {
		t.Error("expected reset to clear the lock")
	}
}

// TestIsLocked_Expired verifies a past lock no longer applies.
func TestIsLocked_Expired(t *testing.T) {
	a := Account{LockedUntil: time.Now().Add(-time.Minute)}
	if a.IsLocked() {
		t.Error("expired lock still reported as locked")
	}
}
