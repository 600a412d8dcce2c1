package authsdk

// ============================================================================
// Auth API
// ============================================================================

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" example:"maria@examania.com"`
	Password string `json:"password" example:"secreto1"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" example:"María López"`
	Email    string `json:"email" example:"maria@examania.com"`
	Password string `json:"password" example:"secreto1"`
}

// User is the identity the session currently carries.
type User struct {
	ID    string `json:"id" example:"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"`
	Email string `json:"email" example:"maria@examania.com"`
	Name  string `json:"name,omitempty" example:"María López"`
	Role  string `json:"role,omitempty" example:"TEACHER"`
}

// SessionResponse is returned by login, register, refresh and session.
// The tokens themselves travel only as HttpOnly cookies.
type SessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

// ============================================================================
// Bootstrap
// ============================================================================

// BootstrapRequest creates the first administrator.
type BootstrapRequest struct {
	AdminEmail    string `json:"admin_email" example:"admin@examania.com"`
	AdminName     string `json:"admin_name" example:"Administrador"`
	AdminPassword string `json:"admin_password" example:"change-me-now"`
}

type BootstrapResponse struct {
	AdminID string `json:"admin_id"`
}

// ============================================================================
// Errors
// ============================================================================

// ErrorResponse is the JSON shape of an APIError.
type ErrorResponse struct {
	Error            string `json:"error" example:"invalid_credentials"`
	ErrorDescription string `json:"error_description" example:"invalid email or password"`
}

// ValidationErrorResponse lists the rejected fields.
type ValidationErrorResponse struct {
	Code    string            `json:"code" example:"validation_error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is served by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}
