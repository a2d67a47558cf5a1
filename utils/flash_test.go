package utils

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestFlash_SurvivesRedirect carries messages across one request boundary.
func TestFlash_SurvivesRedirect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/set", func(c *gin.Context) {
		AddFlash(c, "first")
		AddFlash(c, "second")
		c.Status(http.StatusFound)
	})
	r.GET("/get", func(c *gin.Context) {
		c.JSON(http.StatusOK, PopFlashes(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/set", nil))
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no flash cookie set")
	}

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(cookies[len(cookies)-1])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got, want := w.Body.String(), `["first","second"]`; got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

// TestPopFlashes_ClearsPending returns nothing the second time within a request.
func TestPopFlashes_ClearsPending(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	AddFlash(c, "hello")
	if got := PopFlashes(c); !reflect.DeepEqual(got, []string{"hello"}) {
		t.Fatalf("PopFlashes = %v", got)
	}
	if got := PopFlashes(c); len(got) != 0 {
		t.Fatalf("second PopFlashes = %v", got)
	}
}
