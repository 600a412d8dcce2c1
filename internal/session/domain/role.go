package domain

import (
	"errors"
	"strings"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

var ErrUnknownRole = errors.New("domain: unknown role")

// ParseRole accepts any casing of the three known roles.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

func (r Role) String() string { return string(r) }
