package authsdk

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MinNameLength     = 3
	MinPasswordLength = 6
	MaxPasswordLength = 128

	requiredReason = "required"
)

// Validate returns field errors, or nil when the request is acceptable.
func (l LoginRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(l.Email) == "" {
		errs["email"] = requiredReason
	}
	if l.Password == "" {
		errs["password"] = requiredReason
	}
	return nilIfEmpty(errs)
}

func (r RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateName(errs, "name", r.Name)
	validateEmail(errs, "email", r.Email)
	validatePassword(errs, "password", r.Password, MinPasswordLength)
	return nilIfEmpty(errs)
}

func (b BootstrapRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateName(errs, "admin_name", b.AdminName)
	validateEmail(errs, "admin_email", b.AdminEmail)
	validatePassword(errs, "admin_password", b.AdminPassword, 8)
	return nilIfEmpty(errs)
}

func validateName(errs map[string]string, field, name string) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		errs[field] = requiredReason
	case utf8.RuneCountInString(name) < MinNameLength:
		errs[field] = "too short (min 3)"
	case utf8.RuneCountInString(name) > 64:
		errs[field] = "too long (max 64)"
	}
}

func validateEmail(errs map[string]string, field, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs[field] = requiredReason
		return
	}
	// Bare addresses only, no display names
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		errs[field] = "invalid email address"
	}
}

func validatePassword(errs map[string]string, field, pw string, minLen int) {
	switch {
	case pw == "":
		errs[field] = requiredReason
	case len(pw) < minLen:
		errs[field] = "too short"
	case len(pw) > MaxPasswordLength:
		errs[field] = "too long (max 128)"
	}
}

func nilIfEmpty(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
