package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"clinic-booking/internal/domain"
)

const (
	sessionCookie  = "session"
	flashCookie    = "flash"
	userContextKey = "currentUser"
)

var errBadSession = errors.New("invalid session token")

type sessionClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

func makeSessionToken(userID int64, secret string, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseSessionToken(raw, secret string) (*sessionClaims, error) {
	tok, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadSession
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*sessionClaims)
	if !ok || !tok.Valid {
		return nil, errBadSession
	}
	return claims, nil
}

// requireAuth resolves the session cookie into a user and stores it in the
// request context. Anonymous requests are redirected to the login page.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(sessionCookie)
		if err != nil || raw == "" {
			h.redirectToLogin(c)
			return
		}

		claims, err := parseSessionToken(raw, h.jwtSecret)
		if err != nil {
			h.clearSession(c)
			h.redirectToLogin(c)
			return
		}

		user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			h.clearSession(c)
			h.redirectToLogin(c)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func (h *Handler) redirectToLogin(c *gin.Context) {
	h.setFlash(c, "danger", "Please log in to access this page.")
	c.Redirect(http.StatusSeeOther, "/login")
	c.Abort()
}

func (h *Handler) establishSession(c *gin.Context, user *domain.User) error {
	token, err := makeSessionToken(user.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		return err
	}
	c.SetCookie(sessionCookie, token, int(h.tokenTTL.Seconds()), "/", "", false, true)
	return nil
}

func (h *Handler) clearSession(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

// setFlash stores a one-shot message for the next page load, mirroring the
// usual redirect-with-flash form flow.
func (h *Handler) setFlash(c *gin.Context, level, message string) {
	c.SetCookie(flashCookie, level+"|"+message, 60, "/", "", false, true)
}

func (h *Handler) popFlash(c *gin.Context) gin.H {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)

	level, message, ok := strings.Cut(raw, "|")
	if !ok {
		level, message = "info", raw
	}
	return gin.H{"level": level, "message": message}
}
