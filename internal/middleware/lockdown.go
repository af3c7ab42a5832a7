package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/seb_exam_gate/internal/hooks"
	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/models"
)

const identityKey = "lockdown_identity"

// Lockdown attaches the request identity the engine works on. publicBaseURL
// overrides the home URL derived from the request, which matters behind
// proxies because SEB hashes the URL it actually requested.
func Lockdown(publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := lockdown.RequestIdentity{
			HomeURL:             HomeURL(c, publicBaseURL),
			RequestPath:         c.Request.URL.RequestURI(),
			SuppliedFingerprint: strings.TrimSpace(c.GetHeader(lockdown.RequestHashHeader)),
		}
		if uVal, ok := c.Get("user"); ok {
			user := uVal.(models.User)
			id.Username = user.Username
			id.IsStaff = user.Role == models.RoleAdmin
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// Identity returns the identity set by Lockdown.
func Identity(c *gin.Context) lockdown.RequestIdentity {
	if v, ok := c.Get(identityKey); ok {
		return v.(lockdown.RequestIdentity)
	}
	return lockdown.RequestIdentity{}
}

// HomeURL is scheme://host of the request unless publicBaseURL is set.
func HomeURL(c *gin.Context, publicBaseURL string) string {
	if publicBaseURL != "" {
		return publicBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}

// Gate runs the hooks registered on point and turns a redirect verdict into
// a 303. Store failures abort with 503; no admission is guessed.
func Gate(reg *hooks.Registry, point string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := reg.Run(c.Request.Context(), point, Identity(c))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, lockdown.ErrStoreUnavailable) {
				status = http.StatusServiceUnavailable
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		switch v.Kind {
		case lockdown.Redirect:
			c.Redirect(http.StatusSeeOther, v.Location)
			c.Abort()
		case lockdown.Deny:
			reason := lockdown.ErrFingerprintMismatch
			if v.Reason != nil {
				reason = v.Reason
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": reason.Error()})
		default:
			c.Next()
		}
	}
}
