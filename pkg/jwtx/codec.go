package jwtx

import (
	"bytes"
	"errors"
	"time"
)

var (
	ErrMissingSecret = errors.New("jwtx: missing signing secret")
	ErrSharedSecret  = errors.New("jwtx: access and refresh secrets must differ")
	ErrUnknownKind   = errors.New("jwtx: unknown token kind")
	ErrInvalidTTL    = errors.New("jwtx: ttl must be positive")
)

// Codec signs and verifies HS256 session tokens. Each Kind has its own
// secret so a token of one kind never verifies as the other.
//
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	secrets map[Kind][]byte
	issuer  string
	now     func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithIssuer sets the "iss" claim on signed tokens and requires it on verify.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) { c.issuer = issuer }
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a codec from the two injected secrets. There is no
// fallback secret, both must be present and they must not be equal.
func NewCodec(accessSecret, refreshSecret []byte, opts ...CodecOption) (*Codec, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, ErrMissingSecret
	}
	if bytes.Equal(accessSecret, refreshSecret) {
		return nil, ErrSharedSecret
	}

	c := &Codec{
		secrets: map[Kind][]byte{
			KindAccess:  bytes.Clone(accessSecret),
			KindRefresh: bytes.Clone(refreshSecret),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Now returns the codec's notion of the current time.
func (c *Codec) Now() time.Time { return c.now() }

// Issuer returns the configured issuer, possibly empty.
func (c *Codec) Issuer() string { return c.issuer }

func (c *Codec) secret(kind Kind) ([]byte, error) {
	s, ok := c.secrets[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return s, nil
}
