package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"

	derrs "github.com/daybook-app/daybook/internal/errors"
	"github.com/daybook-app/daybook/internal/serverutil"
)

const sessionCookieName = "daybook_session"

// The signed-in user as the external auth provider reported them.
type sessionState struct {
	UserID        string
	Email         string
	EmailVerified bool
}

// Fetches the current session tied to the request.
func session(r *http.Request, secureCookie *securecookie.SecureCookie) sessionState {
	cookie, err := r.Cookie(sessionCookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return sessionState{}
	}
	if err != nil {
		slog.Error("error fetching cookie", "err", err)
		return sessionState{}
	}

	value := sessionState{}
	err = secureCookie.Decode(sessionCookieName, cookie.Value, &value)
	if err != nil {
		slog.Error("error decoding cookie", "err", err)
		return sessionState{}
	}

	return value
}

// Sets the session on the request.
func setSession(w http.ResponseWriter, secureCookie *securecookie.SecureCookie, https bool, sess sessionState) {
	encoded, err := secureCookie.Encode(sessionCookieName, sess)
	if err != nil {
		slog.Error("error encoding cookie", "err", err)
		return
	}

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		Secure:   https,
		HttpOnly: true,
	}
	http.SetCookie(w, cookie)
}

func requireSessionMiddleware(sc *securecookie.SecureCookie) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := session(r, sc)
			if state.UserID == "" {
				http.Error(w, "Unauthenticated", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type loginRequest struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Establishes the session for a user the auth provider already verified.
// Sign-in and sign-up themselves live outside this process.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return derrs.E(err, http.StatusBadRequest)
	}
	if body.UserID == "" {
		return derrs.E("user_id is required", http.StatusBadRequest,
			derrs.Detail{Field: "user_id", Error: "missing"})
	}

	setSession(w, s.secureCookie, s.httpsCookies, sessionState{
		UserID:        body.UserID,
		Email:         body.Email,
		EmailVerified: body.EmailVerified,
	})

	return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) getLogout(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.httpsCookies,
		HttpOnly: true,
	})

	return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
}

// Viewer is the structured data about the current user in the frontend.
type Viewer struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) error {
	sess := session(r, s.secureCookie)
	if sess.UserID == "" {
		return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
	}

	return serverutil.WriteJSON(w, http.StatusOK, Viewer{
		UserID:        sess.UserID,
		Email:         sess.Email,
		EmailVerified: sess.EmailVerified,
	})
}
