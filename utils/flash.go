package utils

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookieName = "flash"
	flashContextKey = "flash.pending"
)

// AddFlash queues a one-time message for the next rendered page, surviving one redirect.
func AddFlash(ctx *gin.Context, msg string) {
	pending := append(currentFlashes(ctx), msg)
	ctx.Set(flashContextKey, pending)
	writeFlashCookie(ctx, pending)
}

// PopFlashes returns the queued messages and clears them.
func PopFlashes(ctx *gin.Context) []string {
	msgs := currentFlashes(ctx)
	ctx.Set(flashContextKey, []string{})
	if len(msgs) > 0 {
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(flashCookieName, "", -1, "/", "", false, true)
	}
	return msgs
}

// currentFlashes prefers this request's state and falls back to the incoming cookie.
func currentFlashes(ctx *gin.Context) []string {
	if v, ok := ctx.Get(flashContextKey); ok {
		list, _ := v.([]string)
		return list
	}
	if raw, err := ctx.Cookie(flashCookieName); err == nil && raw != "" {
		return decodeFlashes(raw)
	}
	return nil
}

func writeFlashCookie(ctx *gin.Context, msgs []string) {
	b, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(flashCookieName, base64.RawURLEncoding.EncodeToString(b), 300, "/", "", false, true)
}

func decodeFlashes(raw string) []string {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var msgs []string
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil
	}
	return msgs
}
