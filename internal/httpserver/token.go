package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errUnauthorized = errors.New("missing or invalid session token")

// ctxGameKey is the context key for the game id taken from the session token.
type ctxGameKey struct{}

// signSession creates an HS256 JWT naming gameID, valid for SessionTTL.
func (s *Server) signSession(gameID string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.opts.SessionTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"gid": gameID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	})
	ss, err := t.SignedString([]byte(s.opts.SessionSecret))
	return ss, exp, err
}

// parseSession validates a token and returns its game id.
func (s *Server) parseSession(token string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.SessionSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !t.Valid {
		return "", errUnauthorized
	}
	gid, _ := claims["gid"].(string)
	if gid == "" {
		return "", errUnauthorized
	}
	return gid, nil
}

// requireSession enforces a valid session token and injects the game id
// into the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := s.bearerOrCookie(r)
		if tok == "" {
			writeError(w, errUnauthorized)
			return
		}
		gid, err := s.parseSession(tok)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxGameKey{}, gid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// gameIDFrom returns the game id placed by requireSession.
func gameIDFrom(ctx context.Context) string {
	gid, _ := ctx.Value(ctxGameKey{}).(string)
	return gid
}

// setSessionCookie writes the session token cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.opts.Production {
		sameSite = http.SameSiteNoneMode // required for cross-site use when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Production,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from the Authorization header or the session cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}
