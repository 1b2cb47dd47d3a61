package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tipset/internal/config"
	"github.com/okian/tipset/pkg/logger"
)

const tips = `## Ann
1. A
2. B
3. C

## Ben
1. B
2. A
3. C
`

func TestServerWiring(t *testing.T) {
	convey.Convey("Given a config pointing at a predictions file", t, func() {
		path := filepath.Join(t.TempDir(), "tips.md")
		convey.So(os.WriteFile(path, []byte(tips), 0o600), convey.ShouldBeNil)

		cfg := config.New()
		cfg.PredictionsPath = path
		cfg.RefreshInterval = 0

		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		mux := newMux(context.Background(), svc, cfg.Title)

		convey.Convey("Then the API serves a consensus-only report", func() {
			deadline := time.Now().Add(5 * time.Second)
			var w *httptest.ResponseRecorder
			for time.Now().Before(deadline) {
				w = httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/consensus", http.NoBody))
				if w.Code == http.StatusOK {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"mode":"consensus_only"`)

			w = httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaderboard", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("And the docs and metrics routes are mounted", func() {
			for _, path := range []string{"/openapi.yaml", "/healthz", "/stats"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}
