package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	call := func(configured, supplied string) *httptest.ResponseRecorder {
		r := gin.New()
		r.POST("/track", APIKeyAuth(configured), func(c *gin.Context) {
			c.Status(http.StatusAccepted)
		})

		req := httptest.NewRequest(http.MethodPost, "/track", nil)
		if supplied != "" {
			req.Header.Set("X-API-Key", supplied)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	Convey("APIKeyAuth", t, func() {
		Convey("passes a matching key through", func() {
			So(call("secret", "secret").Code, ShouldEqual, http.StatusAccepted)
		})

		Convey("rejects a wrong key", func() {
			w := call("secret", "nope")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(w.Body.String(), ShouldContainSubstring, "Invalid or missing API key")
		})

		Convey("rejects a missing header", func() {
			So(call("secret", "").Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("rejects everything when no key is configured", func() {
			So(call("", "anything").Code, ShouldEqual, http.StatusUnauthorized)
			So(call("", "").Code, ShouldEqual, http.StatusUnauthorized)
		})
	})
}
