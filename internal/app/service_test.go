package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/haeun-oh/rushgate/internal/adapters/kv"
	"github.com/haeun-oh/rushgate/internal/adapters/repository"
	service "github.com/haeun-oh/rushgate/internal/app"
	"github.com/haeun-oh/rushgate/internal/domain/model"
	"github.com/haeun-oh/rushgate/internal/fcfs"
	"github.com/haeun-oh/rushgate/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// newTestService wires a service against an in-process redis and a temp
// sqlite database, returning both for direct inspection.
func newTestService(t *testing.T, opts ...service.Option) (*service.Service, *repository.SQLiteStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := kv.NewRedisStoreFromClient(client)

	sqlite, err := repository.OpenSQLite(t.TempDir() + "/app.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	base := []service.Option{
		service.WithStore(store),
		service.WithRepositories(sqlite, sqlite, sqlite),
		service.WithAnswerPolicy("7", 1),
	}
	svc := service.New(append(base, opts...)...)
	t.Cleanup(svc.Stop)
	t.Cleanup(func() { _ = sqlite.Close() })
	return svc, sqlite
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a wired service", t, func() {
		svc, _ := newTestService(t)
		ctx := context.Background()

		Convey("Start is idempotent and Stop is safe to repeat", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()
			svc.Stop()
		})
	})
}

func TestServiceParticipation(t *testing.T) {
	Convey("Given a started service with one live event", t, func() {
		svc, sqlite := newTestService(t)
		ctx := context.Background()

		start := time.Now().Add(100 * time.Millisecond)
		def, err := sqlite.CreateEvent(ctx, model.EventDefinition{
			Name: "flash sale", StartTime: start, EndTime: start.Add(7 * time.Hour), Capacity: 2,
		})
		So(err, ShouldBeNil)

		// Start materializes immediately, then wait out the start gate.
		So(svc.Start(ctx), ShouldBeNil)
		time.Sleep(150 * time.Millisecond)

		Convey("A wrong answer short-circuits without touching admission state", func() {
			answerOK, won, err := svc.Participate(ctx, def.ExternalID, "alice", "9")
			So(err, ShouldBeNil)
			So(answerOK, ShouldBeFalse)
			So(won, ShouldBeFalse)

			seen, err := svc.HasParticipated(ctx, def.ExternalID, "alice")
			So(err, ShouldBeNil)
			So(seen, ShouldBeFalse)
		})

		Convey("A correct answer admits up to capacity", func() {
			for _, user := range []string{"alice", "bob"} {
				answerOK, won, err := svc.Participate(ctx, def.ExternalID, user, "7")
				So(err, ShouldBeNil)
				So(answerOK, ShouldBeTrue)
				So(won, ShouldBeTrue)
			}

			answerOK, won, err := svc.Participate(ctx, def.ExternalID, "carol", "7")
			So(err, ShouldBeNil)
			So(answerOK, ShouldBeTrue)
			So(won, ShouldBeFalse)

			Convey("and a retry reports the conflict", func() {
				_, _, err := svc.Participate(ctx, def.ExternalID, "alice", "7")
				So(errors.Is(err, fcfs.ErrAlreadyParticipated), ShouldBeTrue)
			})
		})

		Convey("The status projection reports progress after start", func() {
			info, err := svc.GetStatus(ctx, def.ExternalID)
			So(err, ShouldBeNil)
			So(info.Status, ShouldEqual, model.StatusProgress)
			So(info.StartTime.Unix(), ShouldEqual, start.Unix())
		})

		Convey("An unknown event is reported as not found", func() {
			_, _, err := svc.Participate(ctx, "missing", "alice", "7")
			So(errors.Is(err, fcfs.ErrEventNotFound), ShouldBeTrue)
		})
	})
}

func TestServiceListWinners(t *testing.T) {
	Convey("Given reconciled winners in durable storage", t, func() {
		svc, sqlite := newTestService(t)
		ctx := context.Background()

		start := time.Now().Add(-time.Hour)
		def, err := sqlite.CreateEvent(ctx, model.EventDefinition{
			Name: "done deal", StartTime: start, EndTime: start.Add(time.Hour), Capacity: 1,
		})
		So(err, ShouldBeNil)
		alice, err := sqlite.CreateUser(ctx, model.ParticipantIdentity{UserID: "alice", UserName: "Alice"})
		So(err, ShouldBeNil)
		So(sqlite.SaveAll(ctx, []model.WinningRecord{
			{EventSeq: def.Seq, UserSeq: alice.Seq, WinningTime: start.Add(time.Second)},
		}), ShouldBeNil)

		So(svc.Start(ctx), ShouldBeNil)

		Convey("ListWinners reads them back by external id", func() {
			records, err := svc.ListWinners(ctx, def.ExternalID)
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 1)
			So(records[0].UserID, ShouldEqual, "alice")
		})

		Convey("An unknown event id reports not found", func() {
			_, err := svc.ListWinners(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
