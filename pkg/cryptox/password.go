package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrMismatch      = errors.New("cryptox: password does not match")
	ErrInvalidFormat = errors.New("cryptox: invalid hash format")
)

// Hasher hashes and checks passwords with Argon2id and a server-side pepper.
// Hashes are PHC strings: $argon2id$v=19$m=X,t=Y,p=Z$salt$hash
type Hasher struct {
	pepper string
	dummy  string
}

// NewHasher builds a Hasher. The pepper may be empty in tests.
func NewHasher(pepper string) (*Hasher, error) {
	h := &Hasher{pepper: pepper}

	// Hash of a random value, compared against when the user is unknown so a
	// miss costs the same as a wrong password.
	dummy, err := h.Hash(MustGenerateToken(TokenSize128))
	if err != nil {
		return nil, err
	}
	h.dummy = dummy

	return h, nil
}

// Hash generates a PHC-format Argon2id hash string including salt and parameters.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	sum := argon2.IDKey([]byte(password+h.pepper), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify compares a plaintext password against a PHC-style Argon2id hash.
// It returns nil on a match, ErrMismatch on a wrong password and
// ErrInvalidFormat (wrapped) when the stored hash cannot be read.
func (h *Hasher) Verify(password, encoded string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return fmt.Errorf("%w: expected 6 parts", ErrInvalidFormat)
	}
	if parts[1] != "argon2id" {
		return fmt.Errorf("%w: not argon2id", ErrInvalidFormat)
	}
	if parts[2] != "v=19" {
		return fmt.Errorf("%w: wrong version", ErrInvalidFormat)
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %v", ErrInvalidFormat, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %v", ErrInvalidFormat, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return fmt.Errorf("%w: hash", ErrInvalidFormat)
	}

	got := argon2.IDKey(
		[]byte(password+h.pepper),
		salt,
		iters,
		mem,
		par,
		uint32(len(want)), // #nosec G115 - bounded by the decoded hash
	)

	if subtle.ConstantTimeCompare(got, want) == 1 {
		return nil
	}
	return ErrMismatch
}

// Burn spends the same effort as a real Verify and always fails. Call it when
// the account does not exist.
func (h *Hasher) Burn(password string) error {
	_ = h.Verify(password, h.dummy)
	return ErrMismatch
}
