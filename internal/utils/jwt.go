package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tuntikone/workforce-backend/internal/model"
)

// Claims is the identity a verified token proves: the subject email and
// the role claim baked in at issue time.
type Claims struct {
	Subject string
	Role    model.Role
}

// Token is a signed JWT together with its absolute expiry.
type Token struct {
	Value string
	Exp   time.Time
}

var (
	// ErrTokenInvalid covers bad signatures, unexpected signing methods
	// and structurally malformed tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when the signature checks out but the
	// encoded expiry has passed. A token is expired at the exact expiry
	// instant.
	ErrTokenExpired = errors.New("token expired")
)

// TokenCodec signs and verifies HS256 JWTs carrying (subject, role,
// expiry). The signing secret and both TTLs are fixed at construction;
// changing the secret invalidates every outstanding token at once.
// Access and refresh tokens use the same scheme and differ only in TTL.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec builds a codec from the configured secret and TTLs.
func NewTokenCodec(secret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccess signs a short-lived access token for the subject. Access
// tokens are self-contained: verification never touches storage.
func (c *TokenCodec) IssueAccess(email string, role model.Role) (Token, error) {
	return c.sign(email, role, c.accessTTL)
}

// IssueRefresh signs a refresh token. The caller must persist it; the
// signature alone does not make a refresh token valid.
func (c *TokenCodec) IssueRefresh(email string, role model.Role) (Token, error) {
	return c.sign(email, role, c.refreshTTL)
}

func (c *TokenCodec) sign(email string, role model.Role, ttl time.Duration) (Token, error) {
	now := c.now()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  email,
		"role": string(role),
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, Exp: exp}, nil
}

// Verify checks signature and expiry and returns the embedded claims.
// A leading "Bearer " marker is tolerated and stripped first.
func (c *TokenCodec) Verify(presented string) (Claims, error) {
	raw := StripBearer(presented)
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	sub, _ := mc["sub"].(string)
	role := model.Role(stringClaim(mc, "role"))
	if sub == "" || !role.Valid() {
		return Claims{}, ErrTokenInvalid
	}
	return Claims{Subject: sub, Role: role}, nil
}

// StripBearer removes an optional "Bearer " prefix and surrounding
// whitespace from a presented token.
func StripBearer(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Bearer ")
	return strings.TrimSpace(s)
}

func stringClaim(mc jwt.MapClaims, key string) string {
	v, _ := mc[key].(string)
	return v
}
