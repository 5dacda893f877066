package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// LockedOutRole cannot log in, so no state is ever created for it.
const LockedOutRole = "locked_out"

var ErrUserNotFound = errors.New("user not found")

type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Type     string `json:"type"`
}

type Users []User

func LoadUsers(path string) (Users, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	var users Users
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users in %s: %w", path, err)
	}
	return users, nil
}

func (u Users) Find(role string) (User, error) {
	for _, user := range u {
		if user.Type == role {
			return user, nil
		}
	}
	return User{}, fmt.Errorf("%w: no user with role %q", ErrUserNotFound, role)
}
