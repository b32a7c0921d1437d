package session

import (
	"net/http"
	"time"
)

// CookieName is the cookie carrying the session token.
const CookieName = "tw_session"

// TokenFromRequest extracts the raw session token from the request cookie.
// Returns ErrUnusableToken if the cookie is absent or empty.
func TokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrUnusableToken
	}
	return cookie.Value, nil
}

// NewCookie builds the session cookie for a signed token.
func NewCookie(token string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds an expired session cookie used on logout.
func ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
