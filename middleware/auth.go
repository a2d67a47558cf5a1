package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NIN31/hdattendance/services"
	"github.com/NIN31/hdattendance/utils"
)

const (
	// AdminCookieName carries the signed admin session token.
	AdminCookieName = "admin_token"
	// ContextAdminSessionKey stores the verified *services.AdminSession in the gin context.
	ContextAdminSessionKey = "admin_session"
	// ContextAdminTokenKey stores the raw session token.
	ContextAdminTokenKey = "admin_token"
)

// LoadAdminSession verifies the admin cookie when one is sent and exposes the
// session to later handlers. Requests without a valid cookie continue anonymously.
func LoadAdminSession(auth *services.AdminAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(AdminCookieName)
		if err != nil || token == "" {
			ctx.Next()
			return
		}
		session, err := auth.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			utils.Logger.Debug("admin cookie rejected", zap.Error(err))
			ClearAdminCookie(ctx)
			ctx.Next()
			return
		}
		ctx.Set(ContextAdminSessionKey, session)
		ctx.Set(ContextAdminTokenKey, token)
		ctx.Next()
	}
}

// AdminRequired stops anonymous requests before they reach the handler and
// sends them to the login page.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if CurrentAdmin(ctx) == nil {
			utils.AddFlash(ctx, "You must log in to access this page.")
			ctx.Redirect(http.StatusFound, "/login")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// CurrentAdmin returns the verified session, or nil for anonymous requests.
func CurrentAdmin(ctx *gin.Context) *services.AdminSession {
	v, ok := ctx.Get(ContextAdminSessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*services.AdminSession)
	return s
}

// SetAdminCookie stores the session token for maxAge seconds.
func SetAdminCookie(ctx *gin.Context, token string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(AdminCookieName, token, maxAge, "/", "", isSecure(ctx), true)
}

// ClearAdminCookie expires the session cookie.
func ClearAdminCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(AdminCookieName, "", -1, "/", "", isSecure(ctx), true)
}

func isSecure(ctx *gin.Context) bool {
	return ctx.Request.TLS != nil || ctx.GetHeader("X-Forwarded-Proto") == "https"
}
