package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tipset/internal/adapters/http/api"
	"github.com/okian/tipset/internal/adapters/mq/queue"
	"github.com/okian/tipset/internal/adapters/repository"
	service "github.com/okian/tipset/internal/app"
	"github.com/okian/tipset/internal/domain/model"
	"github.com/okian/tipset/internal/domain/report"
	"github.com/okian/tipset/internal/domain/types"
)

type mockDependencies struct {
	snap       *repository.Snapshot
	reportErr  error
	lbErr      error
	refreshErr error
	lastLimit  int
	lastKey    string
	refreshes  int
}

func (m *mockDependencies) Report(ctx context.Context) (*repository.Snapshot, error) {
	if m.reportErr != nil {
		return nil, m.reportErr
	}
	return m.snap, nil
}

func (m *mockDependencies) meta() types.Meta {
	return types.Meta{Version: m.snap.Version, Mode: string(m.snap.Report.Mode)}
}

func (m *mockDependencies) Leaderboard(ctx context.Context, n int) (types.LeaderboardView, error) {
	m.lastLimit = n
	if m.lbErr != nil {
		return types.LeaderboardView{}, m.lbErr
	}
	return types.LeaderboardView{
		Meta:    m.meta(),
		Total:   len(m.snap.Report.Leaderboard),
		Entries: m.snap.Report.Leaderboard.Top(n),
	}, nil
}

func (m *mockDependencies) Participant(ctx context.Context, name string) (types.ParticipantView, error) {
	p, ok := m.snap.Report.Predictions.Find(name)
	if !ok {
		return types.ParticipantView{}, repository.ErrNotFound
	}
	view := types.ParticipantView{Meta: m.meta(), Prediction: p}
	if e, ok := m.snap.Report.Leaderboard.Find(name); ok {
		view.Entry = &e
	}
	return view, nil
}

func (m *mockDependencies) Consensus(ctx context.Context) (types.ConsensusView, error) {
	if m.reportErr != nil {
		return types.ConsensusView{}, m.reportErr
	}
	return types.ConsensusView{Meta: m.meta(), Entries: m.snap.Report.Consensus}, nil
}

func (m *mockDependencies) Insights(ctx context.Context) (types.InsightsView, error) {
	if m.reportErr != nil {
		return types.InsightsView{}, m.reportErr
	}
	return types.InsightsView{Meta: m.meta(), FunStats: m.snap.Report.FunStats}, nil
}

func (m *mockDependencies) Refresh(ctx context.Context, reason, key string) (queue.Job, error) {
	m.lastKey = key
	if m.refreshErr != nil {
		return queue.Job{}, m.refreshErr
	}
	m.refreshes++
	return queue.Job{ID: "job-1", Reason: reason, RequestedAt: time.Now()}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func liveSnapshot() *repository.Snapshot {
	r := report.Compute(report.Input{
		Predictions: model.PredictionSet{
			{Participant: "Ann", Items: []string{"A", "B", "C"}},
			{Participant: "Ben", Items: []string{"C", "B", "A"}},
		},
		Standings: model.StandingsFromOrder([]string{"A", "B", "C"}),
	})
	return &repository.Snapshot{Version: 7, PublishedAt: time.Now(), Report: r}
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	stats := &mockStatsProvider{stats: map[string]interface{}{"started": true}}
	api.NewServer(deps, stats, "Test League").Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{snap: liveSnapshot()})

		Convey("Health serves Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Stats serves the provider's map", func() {
			w := do(mux, http.MethodGet, "/stats", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Wrong methods are not found", func() {
			So(do(mux, http.MethodPost, "/leaderboard", nil).Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/refresh", nil).Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodDelete, "/report", nil).Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestReportHandler(t *testing.T) {
	Convey("Given a published report", t, func() {
		mux := newMux(&mockDependencies{snap: liveSnapshot()})

		Convey("JSON is the default format", func() {
			w := do(mux, http.MethodGet, "/report", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Header().Get("X-Report-Version"), ShouldEqual, "7")

			var doc map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &doc), ShouldBeNil)
			So(doc["mode"], ShouldEqual, "live")
		})

		Convey("Markdown carries the configured title", func() {
			w := do(mux, http.MethodGet, "/report?format=markdown", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "text/markdown")
			So(w.Body.String(), ShouldContainSubstring, "Test League")
		})

		Convey("HTML renders a page", func() {
			w := do(mux, http.MethodGet, "/report?format=html", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "text/html")
			So(w.Body.String(), ShouldContainSubstring, "<table")
		})

		Convey("Unknown formats are bad requests", func() {
			w := do(mux, http.MethodGet, "/report?format=pdf", nil)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "bad_request")
		})
	})

	Convey("Given no report yet", t, func() {
		mux := newMux(&mockDependencies{reportErr: service.ErrNotReady})

		Convey("Reads are unavailable", func() {
			w := do(mux, http.MethodGet, "/report", nil)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeError(w)["code"], ShouldEqual, "not_ready")

			w = do(mux, http.MethodGet, "/consensus", nil)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given a scored report", t, func() {
		deps := &mockDependencies{snap: liveSnapshot()}
		mux := newMux(deps)

		Convey("A limit pages the entries", func() {
			w := do(mux, http.MethodGet, "/leaderboard?limit=1", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 1)

			var view types.LeaderboardView
			So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
			So(view.Total, ShouldEqual, 2)
			So(len(view.Entries), ShouldEqual, 1)
			So(view.Entries[0].Participant, ShouldEqual, "Ann")
		})

		Convey("A missing limit uses the default", func() {
			w := do(mux, http.MethodGet, "/leaderboard", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 10)
		})

		Convey("Malformed limits are rejected", func() {
			for _, q := range []string{"abc", "0", "-3"} {
				w := do(mux, http.MethodGet, "/leaderboard?limit="+q, nil)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("Limits above the cap are rejected", func() {
			deps.lbErr = repository.ErrInvalidLimit
			w := do(mux, http.MethodGet, "/leaderboard?limit=5000", nil)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a report without scoring", t, func() {
		mux := newMux(&mockDependencies{snap: liveSnapshot(), lbErr: repository.ErrScoringUnavailable})

		Convey("The leaderboard is a 404 with a distinct code", func() {
			w := do(mux, http.MethodGet, "/leaderboard?limit=3", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "scoring_unavailable")
		})
	})
}

func TestParticipantHandler(t *testing.T) {
	Convey("Given a scored report", t, func() {
		mux := newMux(&mockDependencies{snap: liveSnapshot()})

		Convey("A known participant returns prediction and entry", func() {
			w := do(mux, http.MethodGet, "/participants/Ben", nil)
			So(w.Code, ShouldEqual, http.StatusOK)

			var view types.ParticipantView
			So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
			So(view.Prediction.Participant, ShouldEqual, "Ben")
			So(view.Entry, ShouldNotBeNil)
			So(view.Entry.Rank, ShouldEqual, 2)
		})

		Convey("Escaped names are decoded", func() {
			w := do(mux, http.MethodGet, "/participants/An%6E", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Unknown participants are not found", func() {
			w := do(mux, http.MethodGet, "/participants/Nobody", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(w)["code"], ShouldEqual, "not_found")
		})

		Convey("Empty or nested names are bad requests", func() {
			So(do(mux, http.MethodGet, "/participants/", nil).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/participants/a/b", nil).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestViewHandler(t *testing.T) {
	Convey("Given a published report", t, func() {
		mux := newMux(&mockDependencies{snap: liveSnapshot()})

		Convey("Consensus lists every item", func() {
			w := do(mux, http.MethodGet, "/consensus", nil)
			So(w.Code, ShouldEqual, http.StatusOK)

			var view types.ConsensusView
			So(json.Unmarshal(w.Body.Bytes(), &view), ShouldBeNil)
			So(view.Version, ShouldEqual, uint64(7))
			So(len(view.Entries), ShouldEqual, 3)
		})

		Convey("Insights carry fun stats", func() {
			w := do(mux, http.MethodGet, "/insights", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"fun_stats"`)
		})
	})
}

func TestRefreshHandler(t *testing.T) {
	Convey("Given a refresh endpoint", t, func() {
		deps := &mockDependencies{snap: liveSnapshot()}
		mux := newMux(deps)

		Convey("A refresh is accepted with a job id", func() {
			w := do(mux, http.MethodPost, "/refresh", map[string]string{api.IdempotencyHeader: " k1 "})
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.lastKey, ShouldEqual, "k1")

			var ack types.RefreshAck
			So(json.Unmarshal(w.Body.Bytes(), &ack), ShouldBeNil)
			So(ack.Status, ShouldEqual, "accepted")
			So(ack.JobID, ShouldEqual, "job-1")
			So(ack.Reason, ShouldEqual, queue.ReasonManual)
		})

		Convey("A duplicate key is acknowledged without a new job", func() {
			deps.refreshErr = service.ErrDuplicateRequest
			w := do(mux, http.MethodPost, "/refresh", map[string]string{api.IdempotencyHeader: "k1"})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
		})

		Convey("A full queue is backpressure", func() {
			deps.refreshErr = service.ErrBackpressure
			w := do(mux, http.MethodPost, "/refresh", nil)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decodeError(w)["code"], ShouldEqual, "backpressure")
		})

		Convey("A stopped service is unavailable", func() {
			deps.refreshErr = service.ErrNotStarted
			w := do(mux, http.MethodPost, "/refresh", nil)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given op-tagged errors", t, func() {
		cause := errors.New("boom")

		Convey("Kinds and causes are both visible to errors.Is", func() {
			err := api.WrapKind("api.x", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.x: bad request: boom")
		})

		Convey("NewKind and Wrap format their parts", func() {
			So(api.NewKind("api.y", api.ErrBackpressure).Error(), ShouldEqual, "api.y: backpressure")
			So(api.Wrap("api.z", cause).Error(), ShouldEqual, "api.z: boom")
			So(strings.HasPrefix(api.Wrap("api.z", cause).Error(), "api.z"), ShouldBeTrue)
		})
	})
}
