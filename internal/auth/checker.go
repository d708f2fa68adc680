package auth

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/agentstation/venuemap/pkg/constants"
	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/state"
)

// MinKeyLength is the shortest accepted signing key.
const MinKeyLength = 16

// Checker verifies operator passwords and issues session tokens.
type Checker struct {
	key   []byte
	users map[string]string // username -> bcrypt hash
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Checker) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		if now != nil {
			c.now = now
		}
	}
}

// NewChecker creates a checker for the given signing key and users.
func NewChecker(signingKey string, users map[string]string, opts ...Option) *Checker {
	c := &Checker{
		key:   []byte(signingKey),
		users: make(map[string]string, len(users)),
		ttl:   constants.SessionTTL,
		now:   time.Now,
	}
	for name, hash := range users {
		c.users[strings.TrimSpace(name)] = strings.TrimSpace(hash)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HashPassword returns a bcrypt hash suitable for the auth_users setting.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.NewValidationError("password", "", "cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.WrapResource("hash", "password", "", err)
	}
	return string(hash), nil
}

// Status checks the configuration locally.
func (c *Checker) Status() *Status {
	if len(c.key) == 0 || len(c.users) == 0 {
		return &Status{State: StateMissing, Summary: "Set auth_signing_key and auth_users to enable operator login"}
	}
	if len(c.key) < MinKeyLength {
		return &Status{State: StateInvalid, Summary: fmt.Sprintf("Signing key must be at least %d bytes", MinKeyLength)}
	}

	s := &Status{}
	for name, hash := range c.users {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			s.Invalid = append(s.Invalid, name)
			continue
		}
		s.Users++
	}
	sort.Strings(s.Invalid)

	switch {
	case s.Users == 0:
		s.State = StateInvalid
		s.Summary = "No user has a valid bcrypt hash"
	case len(s.Invalid) > 0:
		s.State = StateConfigured
		s.Summary = fmt.Sprintf("%d users, %d with invalid hashes", s.Users, len(s.Invalid))
	default:
		s.State = StateConfigured
		s.Summary = fmt.Sprintf("%d users", s.Users)
	}
	return s
}

// Enabled reports whether logins can succeed.
func (c *Checker) Enabled() bool {
	return c.Status().State == StateConfigured
}

// Login checks the credentials and issues a session.
func (c *Checker) Login(creds Credentials) (*state.Session, error) {
	if !c.Enabled() {
		return nil, &errors.ConfigError{Component: "auth", Message: "operator login is not configured"}
	}
	hash, ok := c.users[creds.Username]
	if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)) != nil {
		return nil, &errors.AuthenticationError{
			User:    creds.Username,
			Method:  "password",
			Message: "invalid username or password",
		}
	}
	return c.Issue(creds.Username)
}

// Issue signs a session token for user.
func (c *Checker) Issue(user string) (*state.Session, error) {
	expires := c.now().Add(c.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user,
		"exp":      expires.Unix(),
		"iat":      c.now().Unix(),
	})
	signed, err := token.SignedString(c.key)
	if err != nil {
		return nil, errors.WrapResource("sign", "token", user, err)
	}
	return &state.Session{User: user, Token: signed, ExpiresAt: expires.UTC().Truncate(time.Second)}, nil
}

// Verify parses a token and returns the user it was issued to.
func (c *Checker) Verify(tokenString string) (string, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return "", &errors.AuthenticationError{Method: "token", Message: "missing token"}
	}

	claims := jwt.MapClaims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.key, nil
	})
	if err != nil || !token.Valid {
		return "", &errors.AuthenticationError{Method: "token", Message: "invalid token", Err: err}
	}

	// expiry is checked against the injected clock
	if !claims.VerifyExpiresAt(c.now().Unix(), true) {
		return "", &errors.AuthenticationError{Method: "token", Message: "token expired"}
	}
	user, _ := claims["username"].(string)
	if _, ok := c.users[user]; !ok {
		return "", &errors.AuthenticationError{User: user, Method: "token", Message: "unknown user"}
	}
	return user, nil
}
