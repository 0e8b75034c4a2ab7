package token

import (
	"net/http"
	"time"
)

// DefaultCookieName is the cookie that carries the session token
const DefaultCookieName = "auth_token"

// NewCookie builds the session cookie for value. Secure is set outside local
// development, and the cookie never outlives the token. It is not HttpOnly:
// the client reads it to build the Bearer header.
func NewCookie(name, value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(Lifetime / time.Second),
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ExpiredCookie builds a cookie that instructs the client to delete name.
func ExpiredCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
