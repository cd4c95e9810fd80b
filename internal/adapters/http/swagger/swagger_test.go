package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given the docs routes are registered", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		convey.Convey("When the docs page is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/api-docs", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then it should serve the ReDoc page", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldContainSubstring, "text/html")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc")
			})
		})

		convey.Convey("When the spec is requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then it should serve the embedded spec", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldContainSubstring, "yaml")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "EcoQuest Live API")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/observations")
			})
		})

		convey.Convey("When registering with a nil mux", func() {
			convey.So(func() { Register(context.Background(), nil) }, convey.ShouldPanic)
		})
	})
}
