package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/jobdrop-api/internal/models"
)

func claims(id string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type userStub struct {
	mu          sync.Mutex
	users       map[string]*models.User
	employeeIDs map[string]string
}

func newUserStub(users ...*models.User) *userStub {
	s := &userStub{users: make(map[string]*models.User), employeeIDs: make(map[string]string)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *u
	return &copy, nil
}

func (s *userStub) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *userStub) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = "user-" + strings.Split(user.Email, "@")[0]
	}
	copy := *user
	s.users[user.ID] = &copy
	return nil
}

func (s *userStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.Status != nil && u.ApprovalStatus != *filter.Status {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *userStub) Decide(ctx context.Context, rec models.ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[rec.EntityID]
	if !ok || u.ApprovalStatus != models.AccountPendingApproval {
		return sql.ErrNoRows
	}
	u.ApprovalStatus = models.AccountStatusFor(rec.Status)
	reviewer, at := rec.ReviewerID, rec.ReviewedAt
	u.ApprovalDecidedBy = &reviewer
	u.ApprovalDecidedAt = &at
	return nil
}

func (s *userStub) StatusOf(ctx context.Context, id string) (models.ApprovalStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return u.ApprovalStatus.ApprovalStatus(), nil
}

func (s *userStub) EmployeeIDs(ctx context.Context, role models.UserRole) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []string{}
	for _, u := range s.users {
		if u.Role == role && u.EmployeeID != nil {
			ids = append(ids, *u.EmployeeID)
		}
	}
	return ids, nil
}

func (s *userStub) AssignEmployeeID(ctx context.Context, id, employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.EmployeeID != nil {
		return sql.ErrNoRows
	}
	u.EmployeeID = &employeeID
	return nil
}

type jobRepoStub struct {
	mu     sync.Mutex
	jobs   map[string]*models.Job
	filter models.JobFilter
	seq    int
}

func newJobRepoStub(jobs ...*models.Job) *jobRepoStub {
	s := &jobRepoStub{jobs: make(map[string]*models.Job)}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *jobRepoStub) Create(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", s.seq)
	}
	job.Status = models.ApprovalPending
	copy := *job
	s.jobs[job.ID] = &copy
	return nil
}

func (s *jobRepoStub) GetByID(ctx context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *j
	return &copy, nil
}

func (s *jobRepoStub) List(ctx context.Context, filter models.JobFilter) ([]models.Job, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
	out := []models.Job{}
	for _, j := range s.jobs {
		if filter.CreatedBy != "" && j.CreatedBy != filter.CreatedBy {
			continue
		}
		if !filter.IncludeDeleted && j.Deleted() {
			continue
		}
		out = append(out, *j)
	}
	return out, len(out), nil
}

func (s *jobRepoStub) ExistsByCustomerJobID(ctx context.Context, customerJobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.CustomerJobID == customerJobID {
			return true, nil
		}
	}
	return false, nil
}

func (s *jobRepoStub) SoftDelete(ctx context.Context, id, deletedBy string, note *string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.Deleted() {
		return sql.ErrNoRows
	}
	j.DeletedAt, j.DeletedBy, j.DeletionNote = &at, &deletedBy, note
	return nil
}

func (s *jobRepoStub) Restore(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || !j.Deleted() {
		return sql.ErrNoRows
	}
	j.DeletedAt, j.DeletedBy, j.DeletionNote = nil, nil, nil
	return nil
}

func (s *jobRepoStub) Decide(ctx context.Context, rec models.ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[rec.EntityID]
	if !ok || j.Deleted() || j.Status != models.ApprovalPending {
		return sql.ErrNoRows
	}
	reviewer, at := rec.ReviewerID, rec.ReviewedAt
	j.Status, j.ReviewedBy, j.ReviewedAt, j.ReviewNote = rec.Status, &reviewer, &at, rec.Note
	return nil
}

func (s *jobRepoStub) StatusOf(ctx context.Context, id string) (models.ApprovalStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.Deleted() {
		return "", sql.ErrNoRows
	}
	return j.Status, nil
}

type profileRepoStub struct {
	mu       sync.Mutex
	requests map[string]*models.ProfileUpdateRequest
	users    *userStub
	filter   models.ProfileRequestFilter
	applyErr error
}

func newProfileRepoStub(users *userStub) *profileRepoStub {
	return &profileRepoStub{requests: make(map[string]*models.ProfileUpdateRequest), users: users}
}

func (s *profileRepoStub) Create(ctx context.Context, req *models.ProfileUpdateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == "" {
		req.ID = fmt.Sprintf("req-%d", len(s.requests)+1)
	}
	req.Status = models.ApprovalPending
	copy := *req
	s.requests[req.ID] = &copy
	return nil
}

func (s *profileRepoStub) GetByID(ctx context.Context, id string) (*models.ProfileUpdateRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *r
	return &copy, nil
}

func (s *profileRepoStub) List(ctx context.Context, filter models.ProfileRequestFilter) ([]models.ProfileUpdateRequest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
	out := []models.ProfileUpdateRequest{}
	for _, r := range s.requests {
		if filter.RequestedBy != "" && r.RequestedBy != filter.RequestedBy {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (s *profileRepoStub) Decide(ctx context.Context, rec models.ReviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[rec.EntityID]
	if !ok || r.Status != models.ApprovalPending {
		return sql.ErrNoRows
	}
	reviewer, at := rec.ReviewerID, rec.ReviewedAt
	r.Status, r.DecidedBy, r.DecidedAt, r.DecisionNote = rec.Status, &reviewer, &at, rec.Note
	return nil
}

func (s *profileRepoStub) StatusOf(ctx context.Context, id string) (models.ApprovalStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return r.Status, nil
}

func (s *profileRepoStub) Apply(ctx context.Context, id string, at time.Time) (*models.ProfileUpdateRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyErr; err != nil {
		s.applyErr = nil
		return nil, err
	}
	r, ok := s.requests[id]
	if !ok || r.Status != models.ApprovalApproved || r.AppliedAt != nil {
		return nil, sql.ErrNoRows
	}
	s.users.mu.Lock()
	u := s.users.users[r.RequestedBy]
	for field, value := range r.ProposedChanges {
		switch field {
		case "first_name":
			u.FirstName = value
		case "last_name":
			u.LastName = value
		case "phone":
			u.Phone = value
		case "whatsapp_number":
			u.WhatsappNumber = value
		case "last_qualification":
			u.LastQualification = value
		case "profile_picture":
			u.ProfilePicture = value
		}
	}
	s.users.mu.Unlock()
	r.AppliedAt = &at
	copy := *r
	return &copy, nil
}

type emitterStub struct {
	mu     sync.Mutex
	events []models.ApprovalEvent
}

func (e *emitterStub) Emit(ctx context.Context, event models.ApprovalEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *emitterStub) types() []models.ApprovalEventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.ApprovalEventType, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Type
	}
	return out
}

type auditStub struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditStub) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.logs)
}

type holidayStub struct {
	days map[string]bool
	err  error
}

func (h *holidayStub) ExistsOn(ctx context.Context, days ...time.Time) (bool, error) {
	if h.err != nil {
		return false, h.err
	}
	for _, d := range days {
		if h.days[d.Format("2006-01-02")] {
			return true, nil
		}
	}
	return false, nil
}

func superAdmin(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", Role: models.RoleSuperAdmin, ApprovalStatus: models.AccountApproved}
}

func marketer(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", Role: models.RoleMarketing, ApprovalStatus: models.AccountApproved,
		Profile: models.Profile{FirstName: "Ann", LastName: "Miles", Phone: "555-0000"}}
}
