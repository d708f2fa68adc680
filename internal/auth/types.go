// Package auth provides operator authentication: bcrypt password checks and
// HS256 session tokens.
package auth

// State represents how authentication is configured.
type State int

const (
	// StateConfigured means a signing key and at least one user are set.
	StateConfigured State = iota
	// StateMissing means no signing key or no users are configured.
	StateMissing
	// StateInvalid means configuration is present but unusable.
	StateInvalid
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateMissing:
		return "missing"
	default:
		return "invalid"
	}
}

// Status describes the authentication configuration.
type Status struct {
	State   State
	Summary string   // Brief one-line summary
	Users   int      // Number of usable operator accounts
	Invalid []string // Users whose stored hash is not a bcrypt hash
}

// Credentials are submitted by an operator at login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
