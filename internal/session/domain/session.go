package domain

// CredentialPair is what login and registration hand back.
type CredentialPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionState is derived per request from the presented credentials. Nothing
// about it is stored server side.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateFresh
	StateExpiringSoon
	StateRefreshOnly
	StateInvalid
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateFresh:
		return "fresh"
	case StateExpiringSoon:
		return "expiring_soon"
	case StateRefreshOnly:
		return "refresh_only"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Authenticated reports whether the state lets a user past a protected route.
func (s SessionState) Authenticated() bool {
	return s == StateFresh || s == StateExpiringSoon || s == StateRefreshOnly
}
