package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/internal/session/service"
	"github.com/aussiebroadwan/examania/pkg/cryptox"
	"github.com/aussiebroadwan/examania/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Unix(1_700_000_000, 0).UTC()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCodec(t *testing.T, c *clock) *jwtx.Codec {
	t.Helper()
	codec, err := jwtx.NewCodec(
		[]byte("service-access-secret"),
		[]byte("service-refresh-secret"),
		jwtx.WithIssuer("examania"),
		jwtx.WithClock(c.Now),
	)
	require.NoError(t, err)
	return codec
}

// memDirectory is an in-memory UserDirectory. failures makes the next n
// FindByID calls fail with a store error.
type memDirectory struct {
	mu       sync.Mutex
	users    map[string]domain.User
	failures int
	calls    atomic.Int32
}

var errStoreDown = errors.New("database is locked")

func newMemDirectory(users ...domain.User) *memDirectory {
	d := &memDirectory{users: map[string]domain.User{}}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *memDirectory) FindByID(ctx context.Context, id string) (domain.User, error) {
	d.calls.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failures > 0 {
		d.failures--
		return domain.User{}, errStoreDown
	}
	u, ok := d.users[id]
	if !ok {
		return domain.User{}, service.ErrUserNotFound
	}
	return u, nil
}

func (d *memDirectory) FindByEmail(_ context.Context, email string) (domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == domain.NormalizeEmail(email) {
			return u, nil
		}
	}
	return domain.User{}, service.ErrUserNotFound
}

func (d *memDirectory) Create(_ context.Context, u domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.users {
		if existing.Email == u.Email {
			return service.ErrEmailTaken
		}
	}
	d.users[u.ID] = u
	return nil
}

func (d *memDirectory) set(u domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *memDirectory) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, id)
}

func (d *memDirectory) failNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = n
}

// plainCredentials stores passwords as "plain:<pw>" and counts burns.
type plainCredentials struct {
	burns atomic.Int32
}

func (p *plainCredentials) Hash(pw string) (string, error) { return "plain:" + pw, nil }

func (p *plainCredentials) Verify(pw, encoded string) error {
	if !strings.HasPrefix(encoded, "plain:") {
		return cryptox.ErrInvalidFormat
	}
	if encoded != "plain:"+pw {
		return cryptox.ErrMismatch
	}
	return nil
}

func (p *plainCredentials) Burn(string) error {
	p.burns.Add(1)
	return cryptox.ErrMismatch
}

type recordingObserver struct {
	mu            sync.Mutex
	renewals      []string
	logins        []string
	registrations []string
}

func (r *recordingObserver) ObserveRenewal(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renewals = append(r.renewals, outcome)
}

func (r *recordingObserver) ObserveLogin(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins = append(r.logins, outcome)
}

func (r *recordingObserver) ObserveRegistration(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, outcome)
}

var maria = domain.User{
	ID:           "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV",
	Email:        "maria@examania.com",
	Name:         "Maria",
	PasswordHash: "plain:secreto1",
	Role:         domain.RoleTeacher,
}
