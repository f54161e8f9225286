// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxUsernameLen  = 30
	DefaultUsername = "Anonymous"
)

// ConnID identifies one live transport connection.
type ConnID string

type User struct {
	ID       ConnID    `json:"sid"`
	Username string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// UserDTO is the public view used in user lists.
type UserDTO struct {
	Name string `json:"name"`
	SID  ConnID `json:"sid"`
}

// NormalizeName trims the proposed name and falls back to DefaultUsername
// when the result is empty or longer than MaxUsernameLen characters.
func NormalizeName(proposed string) string {
	name := strings.TrimSpace(proposed)
	if name == "" || utf8.RuneCountInString(name) > MaxUsernameLen {
		return DefaultUsername
	}
	return name
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id ConnID, proposed string, joinedAt time.Time) *User {
	return &User{ID: id, Username: NormalizeName(proposed), JoinedAt: joinedAt}
}

func (u *User) DTO() UserDTO {
	return UserDTO{Name: u.Username, SID: u.ID}
}
