package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tipset/internal/adapters/repository"
	"github.com/okian/tipset/internal/adapters/source/predictions"
	"github.com/okian/tipset/internal/adapters/source/standings"
	service "github.com/okian/tipset/internal/app"
	"github.com/okian/tipset/internal/domain/model"
	"github.com/okian/tipset/internal/domain/report"
	"github.com/okian/tipset/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var (
	tips = predictions.Static{
		{Participant: "Ann", Items: []string{"A", "B", "C", "D"}},
		{Participant: "Ben", Items: []string{"B", "A", "C", "D"}},
		{Participant: "Cat", Items: []string{"A", "C", "B", "D"}},
	}
	table = standings.Static(model.StandingsFromOrder([]string{"A", "B", "C", "D"}))
)

type brokenStandings struct{}

func (brokenStandings) Fetch(context.Context) ([]model.Standing, error) {
	return nil, errors.New("upstream down")
}

func waitReady(svc *service.Service) *repository.Snapshot {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap, err := svc.Report(context.Background()); err == nil {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func TestService_Start(t *testing.T) {
	Convey("Given a service without sources", t, func() {
		svc := service.New()

		Convey("Start refuses to run", func() {
			So(svc.Start(context.Background()), ShouldEqual, service.ErrMissingSource)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given an unknown tie break policy", t, func() {
		svc := service.New(
			service.WithPredictionSource(tips),
			service.WithStandingsSource(table),
			service.WithTieBreakPolicy("coin"),
		)

		Convey("Start reports it", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, service.ErrUnknownTiePolicy), ShouldBeTrue)
		})
	})

	Convey("Given a service with sources", t, func() {
		svc := service.New(
			service.WithPredictionSource(tips),
			service.WithStandingsSource(table),
			service.WithRefreshInterval(0),
		)
		defer svc.Stop()

		Convey("Reads fail before the first refresh lands", func() {
			_, err := svc.Consensus(context.Background())
			So(err, ShouldEqual, service.ErrNotReady)
		})

		Convey("When started, the startup refresh publishes a live report", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			So(svc.Start(ctx), ShouldBeNil)
			cancel() // the service must outlive the start context

			snap := waitReady(svc)
			So(snap, ShouldNotBeNil)
			So(snap.Version, ShouldEqual, uint64(1))
			So(snap.Report.Mode, ShouldEqual, report.ModeLive)

			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["participants"], ShouldEqual, 3)
			So(stats["mode"], ShouldEqual, "live")
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(
			service.WithPredictionSource(tips),
			service.WithStandingsSource(table),
		)
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it is marked as stopped and refuses refreshes", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				_, err := svc.Refresh(context.Background(), "", "")
				So(err, ShouldEqual, service.ErrNotStarted)
			})

			Convey("And stopping again is a no-op", func() {
				svc.Stop()
			})
		})
	})
}

func TestService_Reads(t *testing.T) {
	Convey("Given a service with a published live report", t, func() {
		svc := service.New(
			service.WithPredictionSource(tips),
			service.WithStandingsSource(table),
			service.WithMaxLeaderboardLimit(10),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		So(waitReady(svc), ShouldNotBeNil)
		ctx := context.Background()

		Convey("Leaderboard pages the ranking", func() {
			view, err := svc.Leaderboard(ctx, 2)
			So(err, ShouldBeNil)
			So(view.Total, ShouldEqual, 3)
			So(len(view.Entries), ShouldEqual, 2)
			So(view.Entries[0].Participant, ShouldEqual, "Ann")
			So(view.Entries[0].Rank, ShouldEqual, 1)
			So(view.Mode, ShouldEqual, "live")
		})

		Convey("Leaderboard rejects limits outside the cap", func() {
			_, err := svc.Leaderboard(ctx, 0)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			_, err = svc.Leaderboard(ctx, 11)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("Participant returns the prediction with its entry", func() {
			view, err := svc.Participant(ctx, "Ben")
			So(err, ShouldBeNil)
			So(view.Prediction.Items, ShouldResemble, []string{"B", "A", "C", "D"})
			So(view.Entry, ShouldNotBeNil)
			So(view.Entry.Record.TotalError, ShouldEqual, 2)
			So(view.Entry.Record.Score, ShouldEqual, 6)
		})

		Convey("Unknown participants are not found", func() {
			_, err := svc.Participant(ctx, "Nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Consensus and insights come from the same snapshot", func() {
			cons, err := svc.Consensus(ctx)
			So(err, ShouldBeNil)
			So(cons.Entries[0].Item, ShouldEqual, "A")

			ins, err := svc.Insights(ctx)
			So(err, ShouldBeNil)
			So(ins.Version, ShouldEqual, cons.Version)
			So(len(ins.FunStats), ShouldBeGreaterThan, 0)
		})
	})
}

func TestService_Refresh(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(
			service.WithPredictionSource(tips),
			service.WithStandingsSource(table),
			service.WithRefreshInterval(0),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		So(waitReady(svc), ShouldNotBeNil)
		ctx := context.Background()

		Convey("A manual refresh publishes a new version", func() {
			job, err := svc.Refresh(ctx, "", "")
			So(err, ShouldBeNil)
			So(job.ID, ShouldNotBeEmpty)
			So(job.Reason, ShouldEqual, "manual")

			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) && svc.GetStats()["version"] != uint64(2) {
				time.Sleep(10 * time.Millisecond)
			}
			So(svc.GetStats()["version"], ShouldEqual, uint64(2))
		})

		Convey("A repeated idempotency key is rejected", func() {
			_, err := svc.Refresh(ctx, "manual", "key-1")
			So(err, ShouldBeNil)
			_, err = svc.Refresh(ctx, "manual", "key-1")
			So(err, ShouldEqual, service.ErrDuplicateRequest)
		})
	})

	Convey("Given a queue that only holds one job and a slow source", t, func() {
		release := make(chan struct{})
		svc := service.New(
			service.WithPredictionSource(blockingPredictions{release: release}),
			service.WithStandingsSource(table),
			service.WithRefreshInterval(0),
			service.WithQueueSize(1),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		defer close(release)
		ctx := context.Background()

		Convey("Extra refreshes are refused and their keys released", func() {
			var err error
			for i := 0; i < 3 && err == nil; i++ {
				_, err = svc.Refresh(ctx, "manual", "")
			}
			So(err, ShouldEqual, service.ErrBackpressure)

			_, err = svc.Refresh(ctx, "manual", "retry-me")
			So(err, ShouldEqual, service.ErrBackpressure)
			_, err = svc.Refresh(ctx, "manual", "retry-me")
			So(err, ShouldEqual, service.ErrBackpressure)
		})
	})
}

type blockingPredictions struct{ release chan struct{} }

func (b blockingPredictions) Load(ctx context.Context) (model.PredictionSet, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return tips.Load(ctx)
}

func TestService_Degraded(t *testing.T) {
	Convey("Given standings that cannot be fetched", t, func() {
		svc := service.New(
			service.WithPredictionSource(tips),
			service.WithStandingsSource(brokenStandings{}),
			service.WithRefreshInterval(0),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		snap := waitReady(svc)
		So(snap, ShouldNotBeNil)
		ctx := context.Background()

		Convey("The report is consensus only and the leaderboard unavailable", func() {
			So(snap.Report.Mode, ShouldEqual, report.ModeConsensusOnly)
			_, err := svc.Leaderboard(ctx, 5)
			So(errors.Is(err, repository.ErrScoringUnavailable), ShouldBeTrue)

			view, err := svc.Participant(ctx, "Ann")
			So(err, ShouldBeNil)
			So(view.Entry, ShouldBeNil)
		})
	})

	Convey("Given the consensus fallback", t, func() {
		svc := service.New(
			service.WithPredictionSource(tips),
			service.WithStandingsSource(brokenStandings{}),
			service.WithRefreshInterval(0),
			service.WithConsensusFallback(true),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		snap := waitReady(svc)
		So(snap, ShouldNotBeNil)

		Convey("Predictions are scored against the consensus", func() {
			So(snap.Report.Mode, ShouldEqual, report.ModeConsensusReference)
			view, err := svc.Leaderboard(context.Background(), 3)
			So(err, ShouldBeNil)
			So(view.Entries[0].Participant, ShouldEqual, "Ann")
		})
	})
}
