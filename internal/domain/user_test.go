package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	validEmail := "learner@example.com"
	validPassword := "correct-horse-battery"

	user, err := NewUser(validEmail, "Ada", validPassword)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if user.Email != validEmail {
		t.Errorf("Expected email %s, got %s", validEmail, user.Email)
	}
	if user.Password != validPassword {
		t.Errorf("Expected plaintext password to be kept until hashing")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}

	if _, err = NewUser("", "", validPassword); err != ErrEmptyEmail {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}
	if _, err = NewUser("invalidemail", "", validPassword); err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}
	if _, err = NewUser("Ada <ada@example.com>", "", validPassword); err != ErrInvalidEmail {
		t.Errorf("Expected error %v for display-name address, got %v", ErrInvalidEmail, err)
	}
	if _, err = NewUser(validEmail, "", ""); err != ErrEmptyPassword {
		t.Errorf("Expected error %v, got %v", ErrEmptyPassword, err)
	}
}

func TestUserValidate(t *testing.T) {
	base := func() User {
		return User{
			ID:             uuid.New(),
			Email:          "learner@example.com",
			HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
		}
	}

	tests := []struct {
		name    string
		mutate  func(u *User)
		wantErr error
	}{
		{"valid stored user", func(u *User) {}, nil},
		{"missing id", func(u *User) { u.ID = uuid.Nil }, ErrEmptyUserID},
		{"short password", func(u *User) { u.Password = "short" }, ErrPasswordTooShort},
		{"long password", func(u *User) { u.Password = strings.Repeat("x", 73) }, ErrPasswordTooLong},
		{"no password or hash", func(u *User) { u.HashedPassword = "" }, ErrEmptyPassword},
		{"display name too long", func(u *User) { u.DisplayName = strings.Repeat("n", 65) }, ErrDisplayNameTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := base()
			tc.mutate(&u)
			if err := u.Validate(); err != tc.wantErr {
				t.Errorf("Expected error %v, got %v", tc.wantErr, err)
			}
		})
	}
}
