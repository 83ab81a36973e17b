// Package memory is an in-process implementation of the bot's repositories
// for development and tests. It mirrors the Postgres semantics, including
// version checks on form updates and creation-order ids.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"attendbot/internal/model"
	"attendbot/internal/store"
)

// Store holds all tables in maps guarded by one mutex.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	students map[string]model.Student
	links    map[string]model.Link
	forms    map[string]model.FormState
	leaves   []model.LeaveRequest
	logs     []model.AttendanceLog
	nextID   int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		now:      time.Now,
		students: make(map[string]model.Student),
		links:    make(map[string]model.Link),
		forms:    make(map[string]model.FormState),
	}
}

// AddStudent provisions a roster row, assigning an id when empty.
func (s *Store) AddStudent(st model.Student) model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	s.students[st.ID] = st
	return st
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// ── students ──

func (s *Store) FindStudentByCode(_ context.Context, className, code string) (*model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.students {
		if st.ClassName == className && st.Code == code {
			st := st
			return &st, nil
		}
	}
	return nil, nil
}

func (s *Store) GetStudent(_ context.Context, id string) (*model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.students[id]; ok {
		return &st, nil
	}
	return nil, nil
}

func (s *Store) ListRoster(_ context.Context, className string) ([]model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.Student
	for _, st := range s.students {
		if st.ClassName == className {
			res = append(res, st)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Code < res[j].Code })
	return res, nil
}

// ── links ──

func (s *Store) UpsertLink(_ context.Context, link model.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if link.Role == "" {
		link.Role = "student"
	}
	now := s.now()
	if prev, ok := s.links[link.ChatUserID]; ok {
		link.CreatedAt = prev.CreatedAt
	} else {
		link.CreatedAt = now
	}
	link.UpdatedAt = now
	s.links[link.ChatUserID] = link
	return nil
}

func (s *Store) GetLink(_ context.Context, chatUserID string) (*model.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.links[chatUserID]; ok {
		return &l, nil
	}
	return nil, nil
}

// ── forms ──

func (s *Store) GetForm(_ context.Context, chatUserID string) (*model.FormState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.forms[chatUserID]; ok {
		return &st, nil
	}
	return nil, nil
}

func (s *Store) PutForm(_ context.Context, st model.FormState) (model.FormState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Version = 1
	if prev, ok := s.forms[st.ChatUserID]; ok {
		st.Version = prev.Version + 1
	}
	st.UpdatedAt = s.now()
	s.forms[st.ChatUserID] = st
	return st, nil
}

func (s *Store) UpdateForm(_ context.Context, st model.FormState) (model.FormState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.forms[st.ChatUserID]
	if !ok || prev.Version != st.Version {
		return model.FormState{}, store.ErrConflict
	}
	st.Version++
	st.UpdatedAt = s.now()
	s.forms[st.ChatUserID] = st
	return st, nil
}

func (s *Store) DeleteForm(_ context.Context, chatUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, chatUserID)
	return nil
}

// ── leave requests ──

func (s *Store) InsertLeave(_ context.Context, lr model.LeaveRequest) (model.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lr.ID = s.id()
	lr.CreatedAt = s.now()
	s.leaves = append(s.leaves, lr)
	return lr, nil
}

func (s *Store) LatestLeave(_ context.Context, studentID, date string, typ model.LeaveType) (*model.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.leaves) - 1; i >= 0; i-- {
		lr := s.leaves[i]
		if lr.StudentID != nil && *lr.StudentID == studentID && lr.LeaveDate == date && lr.Type == typ {
			return &lr, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateLeaveReason(_ context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.leaves {
		if s.leaves[i].ID == id {
			r := reason
			s.leaves[i].Reason = &r
		}
	}
	return nil
}

func (s *Store) LeavesBetween(_ context.Context, from, to string) ([]model.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.LeaveRequest
	for _, lr := range s.leaves {
		if lr.LeaveDate >= from && lr.LeaveDate <= to {
			res = append(res, lr)
		}
	}
	return res, nil
}

func (s *Store) StudentLeavesBetween(ctx context.Context, studentID, from, to string) ([]model.LeaveRequest, error) {
	all, _ := s.LeavesBetween(ctx, from, to)
	var res []model.LeaveRequest
	for _, lr := range all {
		if lr.StudentID != nil && *lr.StudentID == studentID {
			res = append(res, lr)
		}
	}
	return res, nil
}

// Leaves returns a copy of every stored leave request.
func (s *Store) Leaves() []model.LeaveRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.LeaveRequest(nil), s.leaves...)
}

// ── attendance logs ──

func (s *Store) InsertLog(_ context.Context, lg model.AttendanceLog) (model.AttendanceLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lg.ID = s.id()
	s.logs = append(s.logs, lg)
	return lg, nil
}

func (s *Store) LogsBetween(_ context.Context, start, end time.Time) ([]model.AttendanceLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.AttendanceLog
	for _, lg := range s.logs {
		if !lg.ScannedAt.Before(start) && lg.ScannedAt.Before(end) {
			res = append(res, lg)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].ScannedAt.Before(res[j].ScannedAt) })
	return res, nil
}

func (s *Store) StudentLogsBetween(ctx context.Context, studentID string, start, end time.Time) ([]model.AttendanceLog, error) {
	all, _ := s.LogsBetween(ctx, start, end)
	var res []model.AttendanceLog
	for _, lg := range all {
		if lg.StudentID == studentID {
			res = append(res, lg)
		}
	}
	return res, nil
}
