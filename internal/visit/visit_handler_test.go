package visit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"carelink/internal/visit"
	visiterrors "carelink/internal/visit/errors"
	"carelink/internal/visitlog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	listFn        func(ctx context.Context, agencyID, carerID string, f visit.VisitFilter) (visit.CarerRosterResponse, error)
	getByIDFn     func(ctx context.Context, agencyID, id string) (visit.VisitResponse, error)
	clockInFn     func(ctx context.Context, agencyID, carerID, visitID string, req visit.ClockRequest) (visit.VisitResponse, error)
	clockOutFn    func(ctx context.Context, agencyID, carerID, visitID string, req visit.ClockRequest) (visit.VisitResponse, error)
	assignFn      func(ctx context.Context, agencyID, actorID, visitID string, req visit.AssignRequest) (visit.VisitResponse, error)
	assignBatchFn func(ctx context.Context, agencyID, actorID, visitID string, req visit.AssignBatchRequest) (visit.VisitResponse, error)
}

func (f *fakeService) ListCarerVisits(ctx context.Context, agencyID, carerID string, filter visit.VisitFilter) (visit.CarerRosterResponse, error) {
	return f.listFn(ctx, agencyID, carerID, filter)
}

func (f *fakeService) GetByID(ctx context.Context, agencyID, id string) (visit.VisitResponse, error) {
	return f.getByIDFn(ctx, agencyID, id)
}

func (f *fakeService) ClockIn(ctx context.Context, agencyID, carerID, visitID string, req visit.ClockRequest) (visit.VisitResponse, error) {
	return f.clockInFn(ctx, agencyID, carerID, visitID, req)
}

func (f *fakeService) ClockOut(ctx context.Context, agencyID, carerID, visitID string, req visit.ClockRequest) (visit.VisitResponse, error) {
	return f.clockOutFn(ctx, agencyID, carerID, visitID, req)
}

func (f *fakeService) Assign(ctx context.Context, agencyID, actorID, visitID string, req visit.AssignRequest) (visit.VisitResponse, error) {
	return f.assignFn(ctx, agencyID, actorID, visitID, req)
}

func (f *fakeService) AssignBatch(ctx context.Context, agencyID, actorID, visitID string, req visit.AssignBatchRequest) (visit.VisitResponse, error) {
	return f.assignBatchFn(ctx, agencyID, actorID, visitID, req)
}

type fakeLogService struct {
	listByVisitFn func(ctx context.Context, agencyID, visitID string) ([]visitlog.LogEntryResponse, error)
}

func (f *fakeLogService) Append(ctx context.Context, entry visitlog.AppendEntry) error { return nil }

func (f *fakeLogService) ListByVisit(ctx context.Context, agencyID, visitID string) ([]visitlog.LogEntryResponse, error) {
	return f.listByVisitFn(ctx, agencyID, visitID)
}

func TestHandler_ClockIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	agencyID := uuid.New().String()
	carerID := uuid.New().String()
	visitID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		svc := &fakeService{
			clockInFn: func(ctx context.Context, aid, cid, vid string, req visit.ClockRequest) (visit.VisitResponse, error) {
				assert.Equal(t, agencyID, aid)
				assert.Equal(t, carerID, cid)
				assert.Equal(t, visitID, vid)
				assert.Equal(t, "traffic-delay", *req.Reason)
				return visit.VisitResponse{ID: vid, Status: "IN_PROGRESS"}, nil
			},
		}
		h := visit.NewHandler(svc, &fakeLogService{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("agency_id", agencyID)
		c.Set("user_id", carerID)
		c.Params = gin.Params{{Key: "visitId", Value: visitID}}
		c.Request = httptest.NewRequest(http.MethodPost, "/clockin", strings.NewReader(`{"type":"late","reason":"traffic-delay"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.ClockIn(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "IN_PROGRESS")
	})

	t.Run("service error mapped to envelope", func(t *testing.T) {
		svc := &fakeService{
			clockInFn: func(ctx context.Context, aid, cid, vid string, req visit.ClockRequest) (visit.VisitResponse, error) {
				return visit.VisitResponse{}, visiterrors.ErrAnotherVisitRunning
			},
		}
		h := visit.NewHandler(svc, &fakeLogService{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("agency_id", agencyID)
		c.Set("user_id", carerID)
		c.Params = gin.Params{{Key: "visitId", Value: visitID}}
		c.Request = httptest.NewRequest(http.MethodPost, "/clockin", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.ClockIn(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "CONFLICT")
		assert.Contains(t, w.Body.String(), "another visit is already clocked in")
	})
}

func TestHandler_ListCarerVisits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	agencyID := uuid.New().String()
	carerID := uuid.New().String()

	t.Run("date filter parsed", func(t *testing.T) {
		svc := &fakeService{
			listFn: func(ctx context.Context, aid, cid string, f visit.VisitFilter) (visit.CarerRosterResponse, error) {
				assert.Equal(t, carerID, cid)
				assert.NotNil(t, f.Date)
				assert.Equal(t, "2025-03-10", f.Date.Format("2006-01-02"))
				return visit.CarerRosterResponse{}, nil
			},
		}
		h := visit.NewHandler(svc, &fakeLogService{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("agency_id", agencyID)
		c.Params = gin.Params{{Key: "userId", Value: carerID}}
		c.Request = httptest.NewRequest(http.MethodGet, "/visits?date=2025-03-10", nil)

		h.ListCarerVisits(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad day name rejected", func(t *testing.T) {
		h := visit.NewHandler(&fakeService{}, &fakeLogService{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("agency_id", agencyID)
		c.Params = gin.Params{{Key: "userId", Value: carerID}}
		c.Request = httptest.NewRequest(http.MethodGet, "/visits?day=Someday", nil)

		h.ListCarerVisits(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "invalid day name")
	})

	t.Run("weekday filter parsed", func(t *testing.T) {
		svc := &fakeService{
			listFn: func(ctx context.Context, aid, cid string, f visit.VisitFilter) (visit.CarerRosterResponse, error) {
				assert.NotNil(t, f.Day)
				assert.Equal(t, "Wednesday", f.Day.String())
				return visit.CarerRosterResponse{}, nil
			},
		}
		h := visit.NewHandler(svc, &fakeLogService{})

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("agency_id", agencyID)
		c.Params = gin.Params{{Key: "userId", Value: carerID}}
		c.Request = httptest.NewRequest(http.MethodGet, "/visits?day=wednesday", nil)

		h.ListCarerVisits(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandler_GetLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	agencyID := uuid.New().String()
	visitID := uuid.New().String()

	logs := &fakeLogService{
		listByVisitFn: func(ctx context.Context, aid, vid string) ([]visitlog.LogEntryResponse, error) {
			assert.Equal(t, agencyID, aid)
			assert.Equal(t, visitID, vid)
			return []visitlog.LogEntryResponse{
				{ID: uuid.NewString(), VisitID: vid, Action: visitlog.ActionClockIn, Message: "Clocked in on time at 9:00am"},
			}, nil
		},
	}
	h := visit.NewHandler(&fakeService{}, logs)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("agency_id", agencyID)
	c.Params = gin.Params{{Key: "visitId", Value: visitID}}
	c.Request = httptest.NewRequest(http.MethodGet, "/logs", nil)

	h.GetLogs(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Clocked in on time at 9:00am")
}
