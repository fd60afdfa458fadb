package handlers

import (
	"net/http"
	"strings"

	"github.com/TheIgorMC/mysite/internal/auth"
	"github.com/TheIgorMC/mysite/internal/repository"
)

// handleRegister creates a new account. The first account ever created
// becomes an admin so a fresh install is immediately manageable.
func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Password == "" {
		respondError(w, BadRequest("Username and password are required"))
		return
	}
	if len(req.Password) < 8 {
		respondError(w, BadRequest("Password must be at least 8 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	existing, err := h.Repo.ListUsers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Repo.CreateUser(r.Context(), req.Username, req.Email, hash, req.FirstName, req.LastName)
	if err != nil {
		if err == repository.ErrDuplicate {
			respondError(w, Conflict("Username already taken"))
			return
		}
		respondError(w, err)
		return
	}

	isAdmin := len(existing) == 0
	if isAdmin {
		if err := h.Repo.UpdateUserFlags(r.Context(), int(id), true, true); err != nil {
			respondError(w, err)
			return
		}
		h.Log.Info("first account registered as admin", "username", req.Username)
	}

	token := h.Auth.StartSession(int(id), isAdmin, isAdmin)
	auth.SetSessionCookie(w, token)
	respondCreated(w, map[string]interface{}{"id": id, "username": req.Username, "is_admin": isAdmin})
}

// handleLogin validates credentials and starts a session.
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, hash, err := h.Repo.GetUserByUsername(r.Context(), req.Username)
	if err == repository.ErrNotFound || (err == nil && !auth.CheckPassword(hash, req.Password)) {
		// same answer for unknown user and wrong password
		respondError(w, Unauthorized("Invalid username or password"))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	token := h.Auth.StartSession(user.ID, user.IsAdmin, user.IsClubMember)
	auth.SetSessionCookie(w, token)
	h.Log.Info("user logged in", "username", user.Username)
	respondOK(w, user)
}

// handleLogout invalidates the session.
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.Auth.Logout(cookie.Value)
	}
	auth.ClearSessionCookie(w)
	respondSuccess(w, "Logged out")
}

// handleMe returns the logged-in account.
func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	user, err := h.Repo.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, user)
}

// handleUpdateMe changes the notification email of the logged-in
// account.
func (h *Handlers) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, BadRequest("A valid email is required"))
		return
	}

	session, _ := auth.FromContext(r.Context())
	if err := h.Repo.UpdateUserEmail(r.Context(), session.UserID, req.Email); err != nil {
		respondError(w, err)
		return
	}
	user, err := h.Repo.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, user)
}
