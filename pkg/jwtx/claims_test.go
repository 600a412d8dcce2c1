package jwtx_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/examania/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("access-secret-for-tests-only-0001")
	refreshSecret = []byte("refresh-secret-for-tests-only-002")
)

// testClock is a settable clock shared with the codec.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0).UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCodec(t *testing.T, clock *testClock, opts ...jwtx.CodecOption) *jwtx.Codec {
	t.Helper()
	opts = append(opts, jwtx.WithClock(clock.Now))
	c, err := jwtx.NewCodec(accessSecret, refreshSecret, opts...)
	require.NoError(t, err)
	return c
}

func TestNewCodec(t *testing.T) {
	t.Run("missing access secret", func(t *testing.T) {
		_, err := jwtx.NewCodec(nil, refreshSecret)
		require.ErrorIs(t, err, jwtx.ErrMissingSecret)
	})

	t.Run("missing refresh secret", func(t *testing.T) {
		_, err := jwtx.NewCodec(accessSecret, []byte{})
		require.ErrorIs(t, err, jwtx.ErrMissingSecret)
	})

	t.Run("same secret for both kinds", func(t *testing.T) {
		_, err := jwtx.NewCodec(accessSecret, accessSecret)
		require.ErrorIs(t, err, jwtx.ErrSharedSecret)
	})
}

func TestSignVerifyRoundTrip(t *testing.T) {
	clock := newTestClock()
	c := newCodec(t, clock, jwtx.WithIssuer("examania"))

	in := jwtx.NewClaims("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", "maria@examania.com", "Maria", "TEACHER")

	token, err := c.Sign(jwtx.KindAccess, in, 15*time.Minute)
	require.NoError(t, err)

	out, err := c.Verify(jwtx.KindAccess, token)
	require.NoError(t, err)

	require.Equal(t, in.Subject, out.Subject)
	require.Equal(t, "maria@examania.com", out.Email)
	require.Equal(t, "Maria", out.Name)
	require.Equal(t, "TEACHER", out.Role)
	require.Equal(t, jwtx.KindAccess, out.Use)
	require.Equal(t, "examania", out.Issuer)
	require.Equal(t, clock.Now(), out.IssuedAt.Time.UTC())
	require.Equal(t, clock.Now().Add(15*time.Minute), out.Expiry().UTC())
	require.NotEmpty(t, out.ID)
}

func TestRefreshClaimsAreMinimised(t *testing.T) {
	c := newCodec(t, newTestClock())

	in := jwtx.NewClaims("user-1", "juan@examania.com", "Juan", "TEACHER")
	token, err := c.Sign(jwtx.KindRefresh, in, 7*24*time.Hour)
	require.NoError(t, err)

	out, err := c.Verify(jwtx.KindRefresh, token)
	require.NoError(t, err)
	require.Equal(t, "user-1", out.Subject)
	require.Equal(t, "juan@examania.com", out.Email)
	require.Empty(t, out.Name)
	require.Empty(t, out.Role)

	// The payload itself must not mention them either
	raw, err := c.DecodeUnsafe(token)
	require.NoError(t, err)
	require.Empty(t, raw.Name)
	require.Empty(t, raw.Role)
}

func TestKindsAreSeparated(t *testing.T) {
	c := newCodec(t, newTestClock())
	claims := jwtx.NewClaims("user-1", "a@b.co", "A", "STUDENT")

	access, err := c.Sign(jwtx.KindAccess, claims, time.Minute)
	require.NoError(t, err)
	refresh, err := c.Sign(jwtx.KindRefresh, claims, time.Hour)
	require.NoError(t, err)

	_, err = c.Verify(jwtx.KindRefresh, access)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)

	_, err = c.Verify(jwtx.KindAccess, refresh)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestKindClaimMustMatch(t *testing.T) {
	// A token signed with the access secret but claiming to be a refresh
	// token must still be rejected as an access token.
	claims := jwtx.NewClaims("user-1", "a@b.co", "", "")
	claims.Use = jwtx.KindRefresh
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(accessSecret)
	require.NoError(t, err)

	c, err := jwtx.NewCodec(accessSecret, refreshSecret)
	require.NoError(t, err)

	_, err = c.Verify(jwtx.KindAccess, forged)
	require.ErrorIs(t, err, jwtx.ErrKindMismatch)
}

func TestExpiryIsInclusive(t *testing.T) {
	clock := newTestClock()
	c := newCodec(t, clock)

	token, err := c.Sign(jwtx.KindAccess, jwtx.NewClaims("user-1", "a@b.co", "A", "ADMIN"), time.Minute)
	require.NoError(t, err)

	t.Run("one second before expiry", func(t *testing.T) {
		clock.Advance(59 * time.Second)
		_, err := c.Verify(jwtx.KindAccess, token)
		require.NoError(t, err)
	})

	t.Run("exactly at expiry", func(t *testing.T) {
		clock.Advance(time.Second)
		_, err := c.Verify(jwtx.KindAccess, token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("decode still works once expired", func(t *testing.T) {
		clock.Advance(time.Hour)
		claims, err := c.DecodeUnsafe(token)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
	})
}

func TestVerifyFailures(t *testing.T) {
	c := newCodec(t, newTestClock(), jwtx.WithIssuer("examania"))

	good, err := c.Sign(jwtx.KindAccess, jwtx.NewClaims("user-1", "a@b.co", "A", "ADMIN"), time.Minute)
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	other, err := jwtx.NewCodec([]byte("other-access"), []byte("other-refresh"), jwtx.WithIssuer("examania"))
	require.NoError(t, err)
	foreign, err := other.Sign(jwtx.KindAccess, jwtx.NewClaims("user-1", "a@b.co", "A", "ADMIN"), time.Hour)
	require.NoError(t, err)

	noIssuer, err := jwtx.NewCodec(accessSecret, refreshSecret)
	require.NoError(t, err)
	wrongIssuer, err := noIssuer.Sign(jwtx.KindAccess, jwtx.NewClaims("user-1", "a@b.co", "A", "ADMIN"), time.Hour)
	require.NoError(t, err)

	otherIssuer, err := jwtx.NewCodec(accessSecret, refreshSecret, jwtx.WithIssuer("someone-else"))
	require.NoError(t, err)
	foreignIssuer, err := otherIssuer.Sign(jwtx.KindAccess, jwtx.NewClaims("user-1", "a@b.co", "A", "ADMIN"), time.Hour)
	require.NoError(t, err)

	bare := jwtx.NewClaims("user-1", "a@b.co", "", "")
	bare.Use = jwtx.KindAccess
	noIssuerNoExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, bare).SignedString(accessSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", jwtx.ErrMalformed},
		{"garbage", "not-a-token", jwtx.ErrMalformed},
		{"two segments", parts[0] + "." + parts[1], jwtx.ErrMalformed},
		{"tampered signature", tampered, jwtx.ErrInvalidSig},
		{"signed with another secret", foreign, jwtx.ErrInvalidSig},
		{"missing issuer", wrongIssuer, jwtx.ErrIssuer},
		{"other issuer", foreignIssuer, jwtx.ErrIssuer},
		{"missing issuer and expiry", noIssuerNoExpiry, jwtx.ErrInvalidClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Verify(jwtx.KindAccess, tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := jwtx.NewClaims("user-1", "a@b.co", "", "")
	claims.Use = jwtx.KindAccess
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(accessSecret)
	require.NoError(t, err)

	c, err := jwtx.NewCodec(accessSecret, refreshSecret)
	require.NoError(t, err)

	_, err = c.Verify(jwtx.KindAccess, unsigned)
	require.Error(t, err)

	_, err = c.Verify(jwtx.KindAccess, hs512)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	claims := jwtx.NewClaims("user-1", "a@b.co", "", "")
	claims.Use = jwtx.KindAccess
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(accessSecret)
	require.NoError(t, err)

	c, err := jwtx.NewCodec(accessSecret, refreshSecret)
	require.NoError(t, err)

	_, err = c.Verify(jwtx.KindAccess, token)
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}

func TestSignRejectsBadInput(t *testing.T) {
	c := newCodec(t, newTestClock())

	_, err := c.Sign(jwtx.Kind("id"), jwtx.Claims{}, time.Minute)
	require.ErrorIs(t, err, jwtx.ErrUnknownKind)

	_, err = c.Sign(jwtx.KindAccess, jwtx.Claims{}, 0)
	require.ErrorIs(t, err, jwtx.ErrInvalidTTL)

	_, err = c.Verify(jwtx.Kind("id"), "x.y.z")
	require.ErrorIs(t, err, jwtx.ErrUnknownKind)
}

func TestDecodeUnsafeMalformed(t *testing.T) {
	c := newCodec(t, newTestClock())

	_, err := c.DecodeUnsafe("definitely.not.jwt")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestJTIIsFreshPerToken(t *testing.T) {
	c := newCodec(t, newTestClock())
	claims := jwtx.NewClaims("user-1", "a@b.co", "A", "ADMIN")

	first, err := c.Sign(jwtx.KindAccess, claims, time.Minute)
	require.NoError(t, err)
	second, err := c.Sign(jwtx.KindAccess, claims, time.Minute)
	require.NoError(t, err)

	a, err := c.DecodeUnsafe(first)
	require.NoError(t, err)
	b, err := c.DecodeUnsafe(second)
	require.NoError(t, err)
	require.Len(t, a.ID, 22)
	require.NotEqual(t, a.ID, b.ID)
}
