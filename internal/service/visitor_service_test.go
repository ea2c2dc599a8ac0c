package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scsvmv/vms-api/internal/models"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
	"github.com/scsvmv/vms-api/pkg/mailer"
)

type profileReaderStub struct {
	profiles map[string]models.Profile
}

func (s *profileReaderStub) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := s.profiles[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

type visitorStoreStub struct {
	mu      sync.Mutex
	records map[string]models.VisitorRequest
	nextID  int
	taken   map[string]bool
}

func newVisitorStoreStub() *visitorStoreStub {
	return &visitorStoreStub{records: map[string]models.VisitorRequest{}, taken: map[string]bool{}}
}

func (s *visitorStoreStub) Create(ctx context.Context, v *models.VisitorRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if v.ID == "" {
		v.ID = "req-" + string(rune('0'+s.nextID))
	}
	if v.Status == "" {
		v.Status = models.StatusPending
	}
	v.CreatedAt = time.Now().UTC()
	s.records[v.ID] = *v
	return nil
}

func (s *visitorStoreStub) GetByID(ctx context.Context, id string) (*models.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (s *visitorStoreStub) GetByUID(ctx context.Context, uid string) (*models.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.VisitorUID != nil && *r.VisitorUID == uid {
			out := r
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *visitorStoreStub) UIDExists(ctx context.Context, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taken[uid], nil
}

func (s *visitorStoreStub) ListByDepartment(ctx context.Context, dept models.Department, status *models.VisitorStatus) ([]models.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.VisitorRequest
	for _, r := range s.records {
		if r.Department != dept {
			continue
		}
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *visitorStoreStub) ListAll(ctx context.Context) ([]models.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.VisitorRequest
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *visitorStoreStub) UpdateStatusIf(ctx context.Context, id string, expected models.VisitorStatus, change models.StatusChange) (*models.VisitorRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.Status != expected {
		return nil, sql.ErrNoRows
	}
	r.Status = change.Status
	if change.VisitorUID != nil {
		r.VisitorUID = change.VisitorUID
		s.taken[*change.VisitorUID] = true
	}
	if change.CheckInTime != nil {
		r.CheckInTime = change.CheckInTime
	}
	if change.CheckOutTime != nil {
		r.CheckOutTime = change.CheckOutTime
	}
	s.records[id] = r
	out := r
	return &out, nil
}

type dispatcherStub struct {
	mu         sync.Mutex
	dispatched []mailer.ApprovalNotice
	sent       []mailer.ApprovalNotice
	sendErr    error
}

func (d *dispatcherStub) Dispatch(notice mailer.ApprovalNotice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = append(d.dispatched, notice)
}

func (d *dispatcherStub) Send(ctx context.Context, notice mailer.ApprovalNotice) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sendErr != nil {
		return d.sendErr
	}
	d.sent = append(d.sent, notice)
	return nil
}

type cacheStub struct {
	invalidated int
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	return sql.ErrNoRows
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (c *cacheStub) Invalidate(ctx context.Context, pattern string) {
	c.invalidated++
}

func deptPtr(d models.Department) *models.Department { return &d }

func newVisitorFixture() (*VisitorService, *visitorStoreStub, *dispatcherStub) {
	store := newVisitorStoreStub()
	dispatcher := &dispatcherStub{}
	gate := NewAuthzGate(&profileReaderStub{profiles: map[string]models.Profile{
		"admin-cse": {ID: "admin-cse", Email: "cse@scsvmv.edu", Role: models.RoleDepartmentAdmin, Department: deptPtr(models.DeptCSE)},
		"admin-ece": {ID: "admin-ece", Email: "ece@scsvmv.edu", Role: models.RoleDepartmentAdmin, Department: deptPtr(models.DeptECE)},
		"guard-1":   {ID: "guard-1", Email: "gate@scsvmv.edu", Role: models.RoleSecurity},
		"root":      {ID: "root", Email: "root@scsvmv.edu", Role: models.RoleSuperAdmin},
	}})
	svc := NewVisitorService(store, gate, dispatcher, &cacheStub{}, time.Minute, nil, validator.New(), nil)
	return svc, store, dispatcher
}

func seedPending(t *testing.T, svc *VisitorService) *models.VisitorRequest {
	t.Helper()
	record, err := svc.Register(context.Background(), RegisterVisitorRequest{
		Name:       "Ravi Kumar",
		Phone:      "9876543210",
		Email:      "ravi@example.com",
		Purpose:    "project review",
		Department: models.DeptCSE,
		PhotoURL:   "http://localhost:8080/api/v1/photos/tok",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, record.Status)
	require.Nil(t, record.VisitorUID)
	return record
}

func TestFormatPassUID(t *testing.T) {
	assert.Equal(t, "SCSVMV1000J", FormatPassUID(1000, time.January))
	assert.Equal(t, "SCSVMV9999D", FormatPassUID(9999, time.December))
	assert.Equal(t, "SCSVMV4242Y", FormatPassUID(4242, time.May))
	assert.Len(t, FormatPassUID(1234, time.June), 11)
}

func TestRegisterRejectsUnknownDepartment(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	_, err := svc.Register(context.Background(), RegisterVisitorRequest{
		Name:       "X",
		Phone:      "9876543210",
		Email:      "x@example.com",
		Purpose:    "visit",
		Department: models.Department("PHYSICS"),
		PhotoURL:   "http://localhost/photo",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApproveAssignsUIDAndNotifies(t *testing.T) {
	svc, _, dispatcher := newVisitorFixture()
	record := seedPending(t, svc)

	updated, err := svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	require.NotNil(t, updated.VisitorUID)
	assert.Regexp(t, `^SCSVMV\d{4}[JFMAYULGSOND]$`, *updated.VisitorUID)

	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, "ravi@example.com", dispatcher.dispatched[0].To)
	assert.Equal(t, *updated.VisitorUID, dispatcher.dispatched[0].UID)
}

func TestApproveIsIdempotentlyRejected(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)

	first, err := svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), record.ID, "admin-cse")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)

	// The UID assigned by the first approval must survive the losing retry.
	current, err := svc.Get(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)
	require.NotNil(t, current.VisitorUID)
	assert.Equal(t, *first.VisitorUID, *current.VisitorUID)
}

func TestApproveRejectsForeignDepartment(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)

	_, err := svc.Approve(context.Background(), record.ID, "admin-ece")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestApproveRejectsSecurityRole(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)

	_, err := svc.Approve(context.Background(), record.ID, "guard-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestApproveRetriesTakenUID(t *testing.T) {
	svc, store, _ := newVisitorFixture()
	record := seedPending(t, svc)

	draws := []int{1111, 1111, 2222}
	svc.draw = func() int {
		d := draws[0]
		if len(draws) > 1 {
			draws = draws[1:]
		}
		return d
	}
	svc.now = func() time.Time { return time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC) }
	store.taken["SCSVMV1111M"] = true

	updated, err := svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)
	require.NotNil(t, updated.VisitorUID)
	assert.Equal(t, "SCSVMV2222M", *updated.VisitorUID)
}

func TestCheckInByScannedUID(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)
	approved, err := svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)

	updated, err := svc.CheckIn(context.Background(), *approved.VisitorUID, "guard-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedIn, updated.Status)
	require.NotNil(t, updated.CheckInTime)
	assert.Nil(t, updated.CheckOutTime)
}

func TestCheckInTwiceReportsAlreadyCheckedIn(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)
	_, err := svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), record.ID, "guard-1")
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), record.ID, "guard-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "already checked in")
}

func TestCheckInPendingVisitorRejected(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)

	_, err := svc.CheckIn(context.Background(), record.ID, "guard-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "not approved")
}

func TestCheckOutBeforeCheckInRejected(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)
	_, err := svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), record.ID, "guard-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "not checked in")
}

func TestCheckOutTwiceReportsAlreadyCheckedOut(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)
	_, err := svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), record.ID, "guard-1")
	require.NoError(t, err)
	_, err = svc.CheckOut(context.Background(), record.ID, "guard-1")
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), record.ID, "guard-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "already checked out")
}

func TestFullLifecycle(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)

	approved, err := svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)

	checkedIn, err := svc.CheckIn(context.Background(), *approved.VisitorUID, "guard-1")
	require.NoError(t, err)

	checkedOut, err := svc.CheckOut(context.Background(), record.ID, "guard-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedOut, checkedOut.Status)
	require.NotNil(t, checkedOut.CheckInTime)
	require.NotNil(t, checkedOut.CheckOutTime)
	assert.Equal(t, *approved.VisitorUID, *checkedOut.VisitorUID)
	assert.Equal(t, *checkedIn.CheckInTime, *checkedOut.CheckInTime)

	// A used pass cannot re-enter.
	_, err = svc.CheckIn(context.Background(), *approved.VisitorUID, "guard-1")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "already used")
}

func TestLookupByUIDRequiresSecurityRole(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)
	approved, err := svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)

	found, err := svc.LookupByUID(context.Background(), *approved.VisitorUID, "guard-1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)

	_, err = svc.LookupByUID(context.Background(), *approved.VisitorUID, "admin-cse")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestResendRequiresApproval(t *testing.T) {
	svc, _, dispatcher := newVisitorFixture()
	record := seedPending(t, svc)

	err := svc.Resend(context.Background(), record.ID, "admin-cse")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)

	require.NoError(t, svc.Resend(context.Background(), record.ID, "admin-cse"))
	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "ravi@example.com", dispatcher.sent[0].To)
}

func TestResendSurfacesSendFailure(t *testing.T) {
	svc, _, dispatcher := newVisitorFixture()
	record := seedPending(t, svc)
	_, err := svc.Approve(context.Background(), record.ID, "admin-cse")
	require.NoError(t, err)

	dispatcher.sendErr = assert.AnError
	err = svc.Resend(context.Background(), record.ID, "admin-cse")
	require.Error(t, err)
}

func TestListByDepartmentFiltersStatus(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	first := seedPending(t, svc)
	seedPending(t, svc)
	_, err := svc.Approve(context.Background(), first.ID, "admin-cse")
	require.NoError(t, err)

	pending := models.StatusPending
	list, err := svc.ListByDepartment(context.Background(), "admin-cse", &pending)
	require.NoError(t, err)
	require.Len(t, list, 1)

	all, err := svc.ListByDepartment(context.Background(), "admin-cse", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLogsRequireSuperAdmin(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	seedPending(t, svc)

	_, err := svc.Logs(context.Background(), "admin-cse")
	require.Error(t, err)

	logs, err := svc.Logs(context.Background(), "root")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestUnknownActorRejected(t *testing.T) {
	svc, _, _ := newVisitorFixture()
	record := seedPending(t, svc)

	_, err := svc.Approve(context.Background(), record.ID, "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.Approve(context.Background(), record.ID, "")
	require.Error(t, err)
}
