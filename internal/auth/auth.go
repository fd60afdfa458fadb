// Package auth provides session-based authentication: user sessions held
// in memory, bcrypt password hashing, and the middlewares guarding the
// member and admin surfaces.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName    = "mysite_session"
	SessionExpiry = 24 * time.Hour
)

type contextKey string

const sessionContextKey contextKey = "session"

// Session is one logged-in user.
type Session struct {
	UserID       int
	IsAdmin      bool
	IsClubMember bool
	Expiry       time.Time
}

// Auth manages the in-memory session store.
type Auth struct {
	sessions map[string]Session
	mu       sync.RWMutex
}

// New creates a new Auth instance
func New() *Auth {
	return &Auth{sessions: make(map[string]Session)}
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// StartSession creates a session for the user and returns its token.
func (a *Auth) StartSession(userID int, isAdmin, isClubMember bool) string {
	token := generateToken()
	a.mu.Lock()
	a.sessions[token] = Session{
		UserID:       userID,
		IsAdmin:      isAdmin,
		IsClubMember: isClubMember,
		Expiry:       time.Now().Add(SessionExpiry),
	}
	a.mu.Unlock()
	return token
}

// Logout invalidates a session token
func (a *Auth) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// Validate returns the session for a token, if it exists and has not
// expired.
func (a *Auth) Validate(token string) (Session, bool) {
	a.mu.RLock()
	session, exists := a.sessions[token]
	a.mu.RUnlock()

	if !exists {
		return Session{}, false
	}
	if time.Now().After(session.Expiry) {
		a.mu.Lock()
		delete(a.sessions, token)
		a.mu.Unlock()
		return Session{}, false
	}
	return session, true
}

// SessionFromRequest extracts and validates the session cookie.
func (a *Auth) SessionFromRequest(r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Session{}, false
	}
	return a.Validate(cookie.Value)
}

// FromContext returns the session attached by the middlewares.
func FromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// RequireUser middleware guards member API endpoints (returns 401).
// The session lands in the request context.
func (a *Auth) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := a.SessionFromRequest(r)
		if !ok {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, session)))
	})
}

// RequireAdmin middleware guards admin API endpoints (401 when not
// logged in, 403 when logged in without the admin flag).
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := a.SessionFromRequest(r)
		if !ok {
			unauthorized(w)
			return
		}
		if !session.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"code":"FORBIDDEN","error":"Admin access required"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, session)))
	})
}

// RequireClubMember middleware guards the inventory endpoints (401 when
// not logged in, 403 without the club-member flag). Admins pass.
func (a *Auth) RequireClubMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := a.SessionFromRequest(r)
		if !ok {
			unauthorized(w)
			return
		}
		if !session.IsClubMember && !session.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"code":"FORBIDDEN","error":"Club membership required"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, session)))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - please log in"}`))
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateToken creates a random session token
func generateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
