package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NIN31/hdattendance/middleware"
	"github.com/NIN31/hdattendance/services"
	"github.com/NIN31/hdattendance/utils"
)

// AuthController handles admin login and logout.
type AuthController struct {
	auth *services.AdminAuth
}

// NewAuthController creates a new controller instance.
func NewAuthController(auth *services.AdminAuth) *AuthController {
	return &AuthController{auth: auth}
}

// LoginForm renders the login page, skipping it for an active session.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	if middleware.CurrentAdmin(ctx) != nil {
		ctx.Redirect(http.StatusFound, "/admin")
		return
	}
	utils.Page(ctx, http.StatusOK, "login.html", nil)
}

// Login checks the credential pair and opens a session cookie.
func (a *AuthController) Login(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	password := ctx.PostForm("password")

	token, session, err := a.auth.Login(username, password)
	if err != nil {
		utils.AddFlash(ctx, "Invalid credentials. Please try again.")
		utils.Page(ctx, http.StatusUnauthorized, "login.html", nil)
		return
	}
	middleware.SetAdminCookie(ctx, token, int(a.auth.TTL().Seconds()))
	ctx.Set(middleware.ContextAdminSessionKey, session)
	ctx.Redirect(http.StatusFound, "/admin")
}

// Logout revokes the session and returns to the login page.
func (a *AuthController) Logout(ctx *gin.Context) {
	a.auth.Logout(ctx.Request.Context(), middleware.CurrentAdmin(ctx))
	middleware.ClearAdminCookie(ctx)
	utils.AddFlash(ctx, "You have been logged out.")
	ctx.Redirect(http.StatusFound, "/login")
}
