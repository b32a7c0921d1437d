package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// ErrUnusableToken is returned for every way a session token can fail to
// decode: bad encoding, bad JSON, wrong algorithm, expiry, or missing claim
// fields. Callers must refuse to proceed; partial claims are never valid.
var ErrUnusableToken = errors.New("unusable session token")

const issuer = "talentwire"

// Claims are the signature-verified fields carried by a session token.
// This is the only claims type accepted where tenant routing doubles as an
// authorization gate.
type Claims struct {
	OrgID      string `json:"org"`
	EmployeeID string `json:"emp"`
	Username   string `json:"username"`
	RoleName   string `json:"role"`
	jwt.RegisteredClaims
}

// UnverifiedClaims are claims read out of a token payload without checking
// its signature. They are a parse result, not an authentication result, and
// must never drive authorization decisions.
type UnverifiedClaims struct {
	OrgID      string
	EmployeeID string
	Username   string
	RoleName   string
}

// IssueToken creates a signed session JWT for the given claims.
// The secret must be at least 32 bytes for HMAC-SHA256.
func IssueToken(secret []byte, claims *Claims, ttl time.Duration) (string, error) {
	if len(secret) < 32 {
		return "", fmt.Errorf("session secret must be at least 32 bytes")
	}

	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.EmployeeID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken parses and verifies a session token, returning its claims.
// All failure modes collapse into ErrUnusableToken; the detail is logged at
// debug level server-side only.
func VerifyToken(secret []byte, tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		log.Debug().Err(err).Msg("session token parse error")
		return nil, ErrUnusableToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrUnusableToken
	}

	if claims.OrgID == "" || claims.EmployeeID == "" || claims.Username == "" {
		log.Debug().Msg("session token missing required claims")
		return nil, ErrUnusableToken
	}

	return claims, nil
}

// ParseUnverified decodes a token payload without verifying its signature.
// This mirrors the plain base64-split decode used on non-authorization paths,
// for example pre-filling a login form with the last known username.
func ParseUnverified(tokenStr string) (*UnverifiedClaims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		log.Debug().Err(err).Msg("unverified token parse error")
		return nil, ErrUnusableToken
	}

	if claims.OrgID == "" || claims.EmployeeID == "" || claims.Username == "" {
		return nil, ErrUnusableToken
	}

	return &UnverifiedClaims{
		OrgID:      claims.OrgID,
		EmployeeID: claims.EmployeeID,
		Username:   claims.Username,
		RoleName:   claims.RoleName,
	}, nil
}
