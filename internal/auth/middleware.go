package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxClaimsKey = "auth_claims"
	CookieName   = "token"
	HeaderToken  = "x-access-token"
)

var (
	errNoToken = errors.New("no token provided")
	errRevoked = errors.New("token revoked")
)

// VersionSource reports the current token version of a user.
type VersionSource interface {
	GetTokenVersion(ctx context.Context, userID string) (int, error)
}

// Authenticator validates session tokens for pages and API calls.
type Authenticator struct {
	Tokens   TokenService
	Versions VersionSource
}

func NewAuthenticator(tokens TokenService, versions VersionSource) *Authenticator {
	return &Authenticator{Tokens: tokens, Versions: versions}
}

// RequirePage only looks at the session cookie and sends the browser to the
// login page when it is missing or stale.
func (a *Authenticator) RequirePage() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(CookieName)
		claims, err := a.validate(c, raw)
		if err != nil {
			c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(sanitizeRedirectPath(c.Request.URL.RequestURI())))
			c.Abort()
			return
		}
		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// RequireAPI accepts the session cookie, an x-access-token header or a bearer
// token, in that order.
func (a *Authenticator) RequireAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := requestToken(c)
		if raw == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "no token provided"})
			c.Abort()
			return
		}
		claims, err := a.validate(c, raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

func (a *Authenticator) validate(c *gin.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, errNoToken
	}
	claims, err := a.Tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	if a.Versions != nil {
		current, err := a.Versions.GetTokenVersion(c.Request.Context(), claims.UserID)
		if err != nil {
			return nil, err
		}
		if current != claims.TokenVersion {
			return nil, errRevoked
		}
	}
	return claims, nil
}

func requestToken(c *gin.Context) string {
	if v, err := c.Cookie(CookieName); err == nil && v != "" {
		return v
	}
	if v := strings.TrimSpace(c.GetHeader(HeaderToken)); v != "" {
		return v
	}
	return bearerToken(c)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("bearer "):])
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

func isLocalPath(path string) bool {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return false
	}
	return !strings.Contains(path, "://") && !strings.Contains(path, "\\")
}

// sanitizeRedirectPath keeps post-login redirects on this host.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}
