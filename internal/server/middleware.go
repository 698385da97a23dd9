package server

import (
	"net/http"
	"strings"

	"github.com/careerpilot/backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const userIDKey = "user_id"

// Auth verifies session tokens minted by the identity provider. The server
// never issues tokens itself; it only checks the shared-secret signature
// and reads the subject and role claims.
type Auth struct {
	jwtSecret  []byte
	syncSecret string
}

func NewAuth(cfg config.AuthConfig) *Auth {
	return &Auth{jwtSecret: []byte(cfg.JWTSecret), syncSecret: cfg.SyncSecret}
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequireUser rejects requests without a valid session and stores the
// caller's user id on the request context.
func (a *Auth) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.parseToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: apiError{Message: err.Error()}})
			return
		}
		c.Set(userIDKey, claims.Subject)
		c.Next()
	}
}

// RequireAdmin admits either an admin session or the shared sync secret
// used by scheduled external triggers.
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.syncSecret != "" && c.GetHeader("X-Sync-Secret") == a.syncSecret {
			c.Next()
			return
		}

		claims, err := a.parseToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Error: apiError{Message: err.Error()}})
			return
		}
		if claims.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, errorEnvelope{Error: apiError{Message: "admin role required"}})
			return
		}
		c.Set(userIDKey, claims.Subject)
		c.Next()
	}
}

func (a *Auth) parseToken(c *gin.Context) (*sessionClaims, error) {

	header := c.GetHeader("Authorization")
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return nil, errors.New("missing or invalid token")
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(header[7:], claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.New("missing or invalid token")
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("missing or invalid token")
	}

	return claims, nil
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
