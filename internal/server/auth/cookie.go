package auth

import (
	"net/http"
	"time"
)

// CookieName is the session marker cookie.
const CookieName = "admin_session"

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// normalize applies safe defaults without breaking callers
func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// NewSessionCookie builds the HTTP-only cookie carrying s.
func NewSessionCookie(s Session, opts CookieOptions) *http.Cookie {
	opts = opts.normalize()
	return &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     opts.Path,
		Expires:  s.ExpiresAt,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
}

// ClearSessionCookie builds a cookie that removes the session marker.
func ClearSessionCookie(opts CookieOptions) *http.Cookie {
	opts = opts.normalize()
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     opts.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
}
