package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/haeun-oh/rushgate/internal/adapters/repository"
	"github.com/haeun-oh/rushgate/internal/domain/model"
)

func newTestDB(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.OpenSQLite(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteEvents(t *testing.T) {
	Convey("Given a sqlite store", t, func() {
		store := newTestDB(t)
		ctx := context.Background()
		base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

		Convey("Created events round-trip through FindBySeq", func() {
			def, err := store.CreateEvent(ctx, model.EventDefinition{
				Name:      "launch giveaway",
				StartTime: base,
				EndTime:   base.Add(7 * time.Hour),
				Capacity:  100,
				PrizeInfo: "coupon",
			})
			So(err, ShouldBeNil)
			So(def.Seq, ShouldBeGreaterThan, 0)
			So(def.ExternalID, ShouldNotBeEmpty)

			got, err := store.FindBySeq(ctx, def.Seq)
			So(err, ShouldBeNil)
			So(got.ExternalID, ShouldEqual, def.ExternalID)
			So(got.StartTime.Equal(base), ShouldBeTrue)
			So(got.Capacity, ShouldEqual, 100)
		})

		Convey("FindByExternalID resolves the minted external id", func() {
			def, err := store.CreateEvent(ctx, model.EventDefinition{
				Name: "by external id", StartTime: base, EndTime: base.Add(time.Hour), Capacity: 1,
			})
			So(err, ShouldBeNil)

			got, err := store.FindByExternalID(ctx, def.ExternalID)
			So(err, ShouldBeNil)
			So(got.Seq, ShouldEqual, def.Seq)
		})

		Convey("FindBySeq reports missing events", func() {
			_, err := store.FindBySeq(ctx, 9999)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			_, err = store.FindByExternalID(ctx, "no-such-id")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("FindUpcoming selects the half-open window", func() {
			mk := func(name string, start time.Time) {
				_, err := store.CreateEvent(ctx, model.EventDefinition{
					Name: name, StartTime: start, EndTime: start.Add(time.Hour), Capacity: 10,
				})
				So(err, ShouldBeNil)
			}
			mk("before", base.Add(-time.Hour))
			mk("at-start", base)
			mk("inside", base.Add(12*time.Hour))
			mk("at-end", base.Add(24*time.Hour))

			defs, err := store.FindUpcoming(ctx, base, base.Add(24*time.Hour))
			So(err, ShouldBeNil)
			So(len(defs), ShouldEqual, 2)
			So(defs[0].Name, ShouldEqual, "at-start")
			So(defs[1].Name, ShouldEqual, "inside")
		})
	})
}

func TestSQLiteUsersAndWinners(t *testing.T) {
	Convey("Given a sqlite store with users and an event", t, func() {
		store := newTestDB(t)
		ctx := context.Background()
		base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

		def, err := store.CreateEvent(ctx, model.EventDefinition{
			Name: "quiz", StartTime: base, EndTime: base.Add(time.Hour), Capacity: 3,
		})
		So(err, ShouldBeNil)

		alice, err := store.CreateUser(ctx, model.ParticipantIdentity{UserID: "alice", UserName: "Alice", Phone: "010-1111"})
		So(err, ShouldBeNil)
		bob, err := store.CreateUser(ctx, model.ParticipantIdentity{UserID: "bob", UserName: "Bob", Phone: "010-2222"})
		So(err, ShouldBeNil)

		Convey("ResolveMany returns known identities and skips unknown ids", func() {
			users, err := store.ResolveMany(ctx, []string{"alice", "bob", "ghost"})
			So(err, ShouldBeNil)
			So(len(users), ShouldEqual, 2)
		})

		Convey("ResolveMany with no ids is a no-op", func() {
			users, err := store.ResolveMany(ctx, nil)
			So(err, ShouldBeNil)
			So(users, ShouldBeNil)
		})

		Convey("SaveAll persists winners and is idempotent", func() {
			records := []model.WinningRecord{
				{EventSeq: def.Seq, UserSeq: alice.Seq, WinningTime: base.Add(time.Second)},
				{EventSeq: def.Seq, UserSeq: bob.Seq, WinningTime: base.Add(2 * time.Second)},
			}
			So(store.SaveAll(ctx, records), ShouldBeNil)
			// A reconciliation retry saves the same records again.
			So(store.SaveAll(ctx, records), ShouldBeNil)

			got, err := store.ListByEvent(ctx, def.Seq)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
			So(got[0].UserID, ShouldEqual, "alice")
			So(got[1].UserID, ShouldEqual, "bob")
			So(got[0].WinningTime.Before(got[1].WinningTime), ShouldBeTrue)
		})

		Convey("SaveAll with no records is a no-op", func() {
			So(store.SaveAll(ctx, nil), ShouldBeNil)
		})
	})
}
