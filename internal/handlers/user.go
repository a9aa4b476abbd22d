// internal/handlers/user.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/e-moran/debugduel/internal/auth"
	"github.com/e-moran/debugduel/internal/common"
	"github.com/e-moran/debugduel/internal/models"
)

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserHandler registers a new user with the initial rating. Usernames
// are unique and case-sensitive.
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.Logger.Errorf("failed to hash password: %v", err)
		http.Error(w, "error creating user", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: req.Username,
		Password: hash,
		Rating:   models.InitialRating,
	}
	err = s.Store.Update(r.Context(), func(st *models.State) error {
		if st.UserByName(req.Username) != nil {
			return common.ErrUsernameTaken
		}
		st.Users[user.ID] = user
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := *user
	out.Password = ""
	writeJSON(w, http.StatusCreated, out)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// LoginHandler verifies the credentials and returns a JWT, also set as the
// auth_token cookie.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	var user models.User
	err := s.Store.View(r.Context(), func(st *models.State) error {
		u := st.UserByName(req.Username)
		if u == nil {
			return common.ErrUserNotFound
		}
		user = *u
		return nil
	})
	if err != nil {
		s.Logger.Warnf("login failed for %q: %v", req.Username, err)
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	match, err := auth.VerifyPassword(req.Password, user.Password)
	if err != nil || !match {
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		s.Logger.Errorf("failed to create jwt: %v", err)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   auth.TOKEN_EXPIRE_TIME_SEC,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// MeHandler returns the authenticated user's profile.
func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var user models.User
	err := s.Store.View(r.Context(), func(st *models.State) error {
		u, ok := st.Users[userID]
		if !ok {
			return common.ErrUserNotFound
		}
		user = *u
		return nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}
