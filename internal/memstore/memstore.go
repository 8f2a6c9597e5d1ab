// Package memstore provides in-memory implementations of the persistence
// and cache interfaces consumed by the service layer. It mirrors the
// transactional guarantees of the PostgreSQL repositories with a single
// mutex and is used by tests.
package memstore

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/repository"
	"github.com/google/uuid"
)

type draftKey struct {
	scheduleID uuid.UUID
	userID     int
	position   int
}

// Store holds every table in memory.
type Store struct {
	mu sync.Mutex

	users      map[int]*model.User
	nextUserID int

	questions map[uuid.UUID]*model.ExamQuestion
	qOrder    []uuid.UUID

	schedules map[uuid.UUID]*model.ExamSchedule
	results   []model.ExamResult

	licenses      map[string]*model.License
	nextLicenseID int
	violations    []model.Violation

	drafts map[draftKey]int

	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:     make(map[int]*model.User),
		questions: make(map[uuid.UUID]*model.ExamQuestion),
		schedules: make(map[uuid.UUID]*model.ExamSchedule),
		licenses:  make(map[string]*model.License),
		drafts:    make(map[draftKey]int),
		now:       time.Now,
	}
}

// Users returns the user table.
func (s *Store) Users() *Users { return &Users{s} }

// Questions returns the question bank.
func (s *Store) Questions() *Questions { return &Questions{s} }

// Schedules returns the schedule table.
func (s *Store) Schedules() *Schedules { return &Schedules{s} }

// Results returns the result table.
func (s *Store) Results() *Results { return &Results{s} }

// Licenses returns the license ledger.
func (s *Store) Licenses() *Licenses { return &Licenses{s} }

// Drafts returns the autosave draft table.
func (s *Store) Drafts() *Drafts { return &Drafts{s} }

// ─── Users ─────────────────────────────────────────────────────────────

// Users implements the user store.
type Users struct{ s *Store }

// GetByID retrieves a user.
func (u *Users) GetByID(_ context.Context, id int) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func (u *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if strings.EqualFold(user.Email, email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Create inserts a user.
func (u *Users) Create(_ context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	u.s.nextUserID++
	user.ID = u.s.nextUserID
	user.CreatedAt = u.s.now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	u.s.users[user.ID] = &cp
	return nil
}

// SetActive toggles an account.
func (u *Users) SetActive(id int, active bool) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user, ok := u.s.users[id]; ok {
		user.Active = active
	}
}

// ─── Questions ─────────────────────────────────────────────────────────

// Questions implements the question store.
type Questions struct{ s *Store }

// GetByID retrieves a question, soft-deleted ones included.
func (q *Questions) GetByID(_ context.Context, id uuid.UUID) (*model.ExamQuestion, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	question, ok := q.s.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *question
	return &cp, nil
}

// ListByIDs retrieves questions in the order of ids, skipping unknown IDs.
func (q *Questions) ListByIDs(_ context.Context, ids []uuid.UUID) ([]model.ExamQuestion, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	out := make([]model.ExamQuestion, 0, len(ids))
	for _, id := range ids {
		if question, ok := q.s.questions[id]; ok {
			out = append(out, *question)
		}
	}
	return out, nil
}

func (q *Questions) liveIDs(examType model.ExamType) []uuid.UUID {
	var ids []uuid.UUID
	for _, id := range q.s.qOrder {
		question := q.s.questions[id]
		if question.ExamType == examType && question.DeletedAt == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// SampleIDs picks up to n random live IDs without replacement.
func (q *Questions) SampleIDs(_ context.Context, examType model.ExamType, n int) ([]uuid.UUID, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	ids := q.liveIDs(examType)
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

// PoolIDs returns up to n live IDs in creation order.
func (q *Questions) PoolIDs(_ context.Context, examType model.ExamType, n int) ([]uuid.UUID, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	ids := q.liveIDs(examType)
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

// List returns a filtered page of live questions, newest first.
func (q *Questions) List(_ context.Context, f model.QuestionFilter, limit, offset int) ([]model.ExamQuestion, int, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	var matched []model.ExamQuestion
	for i := len(q.s.qOrder) - 1; i >= 0; i-- {
		question := q.s.questions[q.s.qOrder[i]]
		if question.DeletedAt != nil ||
			(f.ExamType != "" && question.ExamType != f.ExamType) ||
			(f.Language != "" && question.Language != f.Language) ||
			(f.Category != "" && question.Category != f.Category) {
			continue
		}
		matched = append(matched, *question)
	}
	return page(matched, limit, offset), len(matched), nil
}

// Create inserts a question.
func (q *Questions) Create(_ context.Context, question *model.ExamQuestion) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	question.CreatedAt = q.s.now()
	question.UpdatedAt = question.CreatedAt
	cp := *question
	q.s.questions[question.ID] = &cp
	q.s.qOrder = append(q.s.qOrder, question.ID)
	return nil
}

// Update overwrites a live question.
func (q *Questions) Update(_ context.Context, question *model.ExamQuestion) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	existing, ok := q.s.questions[question.ID]
	if !ok || existing.DeletedAt != nil {
		return repository.ErrNotFound
	}
	question.CreatedAt = existing.CreatedAt
	question.UpdatedAt = q.s.now()
	cp := *question
	q.s.questions[question.ID] = &cp
	return nil
}

// SoftDelete removes a question from the delivery pool.
func (q *Questions) SoftDelete(_ context.Context, id uuid.UUID) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	existing, ok := q.s.questions[id]
	if !ok || existing.DeletedAt != nil {
		return repository.ErrNotFound
	}
	now := q.s.now()
	existing.DeletedAt = &now
	return nil
}

// ─── Schedules ─────────────────────────────────────────────────────────

// Schedules implements the schedule store.
type Schedules struct{ s *Store }

func copySchedule(sched *model.ExamSchedule) *model.ExamSchedule {
	cp := *sched
	if sched.QuestionIDs != nil {
		cp.QuestionIDs = append([]uuid.UUID(nil), sched.QuestionIDs...)
	}
	if sched.ExaminerID != nil {
		id := *sched.ExaminerID
		cp.ExaminerID = &id
	}
	return &cp
}

// GetByID retrieves a schedule.
func (r *Schedules) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSchedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sched, ok := r.s.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copySchedule(sched), nil
}

// Create inserts a schedule.
func (r *Schedules) Create(_ context.Context, sched *model.ExamSchedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sched.ID == uuid.Nil {
		sched.ID = uuid.New()
	}
	if sched.Status == "" {
		sched.Status = model.ScheduleStatusScheduled
	}
	sched.CreatedAt = r.s.now()
	sched.UpdatedAt = sched.CreatedAt
	r.s.schedules[sched.ID] = copySchedule(sched)
	return nil
}

func (r *Schedules) sorted(keep func(*model.ExamSchedule) bool, newestFirst bool) []model.ExamSchedule {
	var out []model.ExamSchedule
	for _, sched := range r.s.schedules {
		if keep(sched) {
			out = append(out, *copySchedule(sched))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ScheduledAt.After(out[j].ScheduledAt)
		}
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out
}

// ListByUser returns a user's schedules, newest first.
func (r *Schedules) ListByUser(_ context.Context, userID int) ([]model.ExamSchedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(s *model.ExamSchedule) bool { return s.UserID == userID }, true), nil
}

// List returns a filtered page of schedules, earliest first.
func (r *Schedules) List(_ context.Context, f model.ScheduleFilter, limit, offset int) ([]model.ExamSchedule, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := r.sorted(func(s *model.ExamSchedule) bool {
		return (f.Status == "" || s.Status == f.Status) && (f.ExamType == "" || s.ExamType == f.ExamType)
	}, false)
	return page(matched, limit, offset), len(matched), nil
}

// SetQuestionIDsIfEmpty stores ids unless a set is already stored and
// returns the stored set.
func (r *Schedules) SetQuestionIDsIfEmpty(_ context.Context, id uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sched, ok := r.s.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if sched.QuestionIDs == nil {
		sched.QuestionIDs = append([]uuid.UUID(nil), ids...)
		sched.UpdatedAt = r.s.now()
	}
	return append([]uuid.UUID(nil), sched.QuestionIDs...), nil
}

// UpdateStatus moves an open schedule to status.
func (r *Schedules) UpdateStatus(_ context.Context, id uuid.UUID, status model.ScheduleStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sched, ok := r.s.schedules[id]
	if !ok || sched.Status.Closed() {
		return repository.ErrStaleState
	}
	sched.Status = status
	sched.UpdatedAt = r.s.now()
	return nil
}

// ExpireOverdue expires open practical schedules scheduled before cutoff.
func (r *Schedules) ExpireOverdue(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, sched := range r.s.schedules {
		if sched.ExamType == model.ExamTypePractical && !sched.Status.Closed() && sched.ScheduledAt.Before(cutoff) {
			sched.Status = model.ScheduleStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *Schedules) loads() []model.ExaminerLoad {
	var loads []model.ExaminerLoad
	for _, u := range r.s.users {
		if u.Role != model.RoleExaminer || !u.Active {
			continue
		}
		count := 0
		for _, sched := range r.s.schedules {
			if sched.ExaminerID != nil && *sched.ExaminerID == u.ID &&
				sched.ExamType == model.ExamTypePractical &&
				(sched.Status == model.ScheduleStatusApproved || sched.Status == model.ScheduleStatusScheduled) {
				count++
			}
		}
		loads = append(loads, model.ExaminerLoad{ExaminerID: u.ID, Name: u.Name, Load: count})
	}
	sort.Slice(loads, func(i, j int) bool { return loads[i].ExaminerID < loads[j].ExaminerID })
	return loads
}

// ExaminerLoads returns the live workload of every active examiner.
func (r *Schedules) ExaminerLoads(_ context.Context) ([]model.ExaminerLoad, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.loads(), nil
}

// AssignExaminer runs choose and writes the assignment under the store lock.
func (r *Schedules) AssignExaminer(_ context.Context, id uuid.UUID, choose repository.AssignFunc) (*model.ExamSchedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sched, ok := r.s.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	examinerID, err := choose(copySchedule(sched), r.loads())
	if err != nil {
		return nil, err
	}
	if sched.Status != model.ScheduleStatusScheduled {
		return nil, repository.ErrStaleState
	}
	sched.Status = model.ScheduleStatusApproved
	sched.ExaminerID = &examinerID
	sched.UpdatedAt = r.s.now()
	return copySchedule(sched), nil
}

// ─── Results ───────────────────────────────────────────────────────────

// Results implements the result store.
type Results struct{ s *Store }

// Create persists a result, closing its schedule and numbering the attempt.
func (r *Results) Create(_ context.Context, res *model.ExamResult, closeStatus model.ScheduleStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if res.ScheduleID != nil {
		sched, ok := r.s.schedules[*res.ScheduleID]
		if !ok || sched.Status.Closed() {
			return repository.ErrStaleState
		}
		sched.Status = closeStatus
		sched.UpdatedAt = r.s.now()
		for k := range r.s.drafts {
			if k.scheduleID == *res.ScheduleID && k.userID == res.UserID {
				delete(r.s.drafts, k)
			}
		}
	}

	prior := 0
	for _, existing := range r.s.results {
		if existing.UserID == res.UserID {
			prior++
		}
	}
	res.Attempt = prior + 1
	res.ID = uuid.New()
	res.CreatedAt = r.s.now()
	r.s.results = append(r.s.results, *res)
	return nil
}

// ListByUser returns a user's results, newest first.
func (r *Results) ListByUser(_ context.Context, userID int) ([]model.ExamResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ExamResult
	for i := len(r.s.results) - 1; i >= 0; i-- {
		if r.s.results[i].UserID == userID {
			out = append(out, r.s.results[i])
		}
	}
	return out, nil
}

// ─── Licenses ──────────────────────────────────────────────────────────

// Licenses implements the license store.
type Licenses struct{ s *Store }

// Add inserts a license.
func (l *Licenses) Add(license *model.License) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.nextLicenseID++
	license.ID = l.s.nextLicenseID
	if license.Status == "" {
		license.Status = model.LicenseStatusValid
	}
	cp := *license
	l.s.licenses[license.LicenseNumber] = &cp
}

// GetDetail retrieves a license with its holder's name.
func (l *Licenses) GetDetail(_ context.Context, licenseNumber string) (*model.License, string, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	license, ok := l.s.licenses[licenseNumber]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	holder := ""
	if u, ok := l.s.users[license.UserID]; ok {
		holder = u.Name
	}
	cp := *license
	return &cp, holder, nil
}

// ListViolations returns a license's violations, newest first.
func (l *Licenses) ListViolations(_ context.Context, licenseID int) ([]model.Violation, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var out []model.Violation
	for _, v := range l.s.violations {
		if v.LicenseID == licenseID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out, nil
}

// RecordViolation appends v and applies the new balance atomically.
func (l *Licenses) RecordViolation(_ context.Context, licenseNumber string, v *model.Violation, points repository.PointsFunc) (*model.License, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	license, ok := l.s.licenses[licenseNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *license
	next, err := points(&cp)
	if err != nil {
		return nil, err
	}

	v.ID = uuid.New()
	v.LicenseID = license.ID
	v.UserID = license.UserID
	v.CreatedAt = l.s.now()
	l.s.violations = append(l.s.violations, *v)

	license.Points = next
	license.UpdatedAt = l.s.now()
	out := *license
	return &out, nil
}

// ─── Drafts ────────────────────────────────────────────────────────────

// Drafts implements the autosave draft store.
type Drafts struct{ s *Store }

// Upsert stores the latest answer for one position of an open schedule.
func (d *Drafts) Upsert(_ context.Context, scheduleID uuid.UUID, userID, position, answer int) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	sched, ok := d.s.schedules[scheduleID]
	if !ok || sched.UserID != userID || sched.Status.Closed() {
		return nil
	}
	d.s.drafts[draftKey{scheduleID, userID, position}] = answer
	return nil
}

// ListBySchedule returns the drafts as position → answer.
func (d *Drafts) ListBySchedule(_ context.Context, scheduleID uuid.UUID, userID int) (map[int]int, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	out := make(map[int]int)
	for k, v := range d.s.drafts {
		if k.scheduleID == scheduleID && k.userID == userID {
			out[k.position] = v
		}
	}
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
