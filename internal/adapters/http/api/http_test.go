package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/haeun-oh/rushgate/internal/adapters/http/api"
	"github.com/haeun-oh/rushgate/internal/domain/model"
	"github.com/haeun-oh/rushgate/internal/fcfs"
)

// stubDeps implements api.Dependencies with canned behavior per event id.
type stubDeps struct {
	participateErr error
	won            bool
	answerOK       bool
	status         model.StatusInfo
	statusErr      error
	participated   bool
	winners        []model.WinningRecord
	winnersErr     error

	gotEventID string
	gotUserID  string
	gotAnswer  string
}

func (s *stubDeps) Participate(_ context.Context, eventID, userID, answer string) (bool, bool, error) {
	s.gotEventID, s.gotUserID, s.gotAnswer = eventID, userID, answer
	if s.participateErr != nil {
		return false, false, s.participateErr
	}
	return s.answerOK, s.won, nil
}

func (s *stubDeps) GetStatus(_ context.Context, eventID string) (model.StatusInfo, error) {
	s.gotEventID = eventID
	return s.status, s.statusErr
}

func (s *stubDeps) HasParticipated(_ context.Context, eventID, userID string) (bool, error) {
	s.gotEventID, s.gotUserID = eventID, userID
	return s.participated, nil
}

func (s *stubDeps) ListWinners(_ context.Context, eventID string) ([]model.WinningRecord, error) {
	s.gotEventID = eventID
	return s.winners, s.winnersErr
}

func newTestMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func TestHandleParticipate(t *testing.T) {
	Convey("Given the participate route", t, func() {
		deps := &stubDeps{answerOK: true, won: true}
		mux := newTestMux(deps)

		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/events/fcfs/evt-1", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			return rec
		}

		Convey("A valid request reports the admission outcome", func() {
			rec := post(`{"user_id":"alice","answer":"2"}`)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var resp struct {
				AnswerResult bool `json:"answer_result"`
				IsWinner     bool `json:"is_winner"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.AnswerResult, ShouldBeTrue)
			So(resp.IsWinner, ShouldBeTrue)
			So(deps.gotEventID, ShouldEqual, "evt-1")
			So(deps.gotUserID, ShouldEqual, "alice")
			So(deps.gotAnswer, ShouldEqual, "2")
		})

		Convey("Malformed and incomplete bodies are rejected", func() {
			So(post(`{not json`).Code, ShouldEqual, http.StatusBadRequest)
			So(post(`{"answer":"2"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(post(`{"user_id":"alice"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("The error taxonomy maps onto HTTP statuses", func() {
			cases := []struct {
				err  error
				code int
			}{
				{fcfs.ErrEventNotFound, http.StatusNotFound},
				{fcfs.ErrInvalidEventTime, http.StatusBadRequest},
				{fcfs.ErrAlreadyParticipated, http.StatusConflict},
				{fcfs.ErrUnavailable, http.StatusServiceUnavailable},
			}
			for _, tc := range cases {
				deps.participateErr = tc.err
				rec := post(`{"user_id":"alice","answer":"2"}`)
				So(rec.Code, ShouldEqual, tc.code)
			}
		})

		Convey("GET on the participate route is not routed", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events/fcfs/evt-1", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestHandleInfo(t *testing.T) {
	Convey("Given the info route", t, func() {
		start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
		deps := &stubDeps{status: model.StatusInfo{StartTime: start, Status: model.StatusCountdown}}
		mux := newTestMux(deps)

		Convey("The status projection is returned as JSON", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events/fcfs/evt-9/info", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
			var resp struct {
				StartTime time.Time `json:"event_start_time"`
				Status    string    `json:"event_status"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Status, ShouldEqual, model.StatusCountdown)
			So(resp.StartTime.Equal(start), ShouldBeTrue)
			So(deps.gotEventID, ShouldEqual, "evt-9")
		})

		Convey("An unknown event maps to 404", func() {
			deps.statusErr = fcfs.ErrEventNotFound
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events/fcfs/missing/info", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandleParticipated(t *testing.T) {
	Convey("Given the participated route", t, func() {
		deps := &stubDeps{participated: true}
		mux := newTestMux(deps)

		Convey("The probe echoes set membership", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events/fcfs/evt-2/participated?user_id=alice", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
			var resp struct {
				Participated bool `json:"participated"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Participated, ShouldBeTrue)
			So(deps.gotUserID, ShouldEqual, "alice")
		})

		Convey("A missing user_id is rejected", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events/fcfs/evt-2/participated", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleWinners(t *testing.T) {
	Convey("Given the winners route", t, func() {
		when := time.Date(2026, 9, 1, 9, 0, 1, 0, time.UTC)
		deps := &stubDeps{winners: []model.WinningRecord{
			{UserID: "alice", UserName: "Alice", Phone: "010-1111", WinningTime: when},
		}}
		mux := newTestMux(deps)

		Convey("Reconciled winners are listed in order", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events/fcfs/evt-3/winners", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
			var resp []struct {
				UserID      string `json:"user_id"`
				UserName    string `json:"user_name"`
				WinningTime string `json:"winning_time"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(len(resp), ShouldEqual, 1)
			So(resp[0].UserID, ShouldEqual, "alice")
			So(resp[0].WinningTime, ShouldEqual, when.Format(time.RFC3339))
		})

		Convey("No winners yet reads as an empty list, not null", func() {
			deps.winners = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events/fcfs/evt-3/winners", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, "[]")
		})
	})
}
