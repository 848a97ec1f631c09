package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/schoolbus-api/internal/models"
)

// MemoryStorage keeps every entity in process memory. It emulates the
// relational constraints of the durable schema so both backends agree.
type MemoryStorage struct {
	mu  sync.RWMutex
	now func() time.Time

	users         map[int64]models.User
	students      map[int64]models.Student
	buses         map[int64]models.Bus
	rounds        map[int64]models.BusRound
	roundStudents map[int64]models.RoundStudent
	locations     map[int64]models.Location
	notifications map[int64]models.Notification
	absences      map[int64]models.Absence
	activityLogs  map[int64]models.ActivityLog

	seq map[string]int64
}

// NewMemoryStorage returns an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[int64]models.User),
		students:      make(map[int64]models.Student),
		buses:         make(map[int64]models.Bus),
		rounds:        make(map[int64]models.BusRound),
		roundStudents: make(map[int64]models.RoundStudent),
		locations:     make(map[int64]models.Location),
		notifications: make(map[int64]models.Notification),
		absences:      make(map[int64]models.Absence),
		activityLogs:  make(map[int64]models.ActivityLog),
		seq:           make(map[string]int64),
	}
}

func (s *MemoryStorage) nextID(entity string) int64 {
	s.seq[entity]++
	return s.seq[entity]
}

// Ping always succeeds.
func (s *MemoryStorage) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStorage) Close() error { return nil }

// collect returns the values of m accepted by keep, ordered by id.
func collect[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, detach(m[id]))
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// detach deep-copies the pointer fields of a stored row so callers can never
// write through to the map.
func detach[T any](v T) T {
	var out any
	switch x := any(v).(type) {
	case models.User:
		x.Phone = copyString(x.Phone)
		out = x
	case models.Student:
		x.ParentID = copyID(x.ParentID)
		out = x
	case models.Bus:
		x.DriverID = copyID(x.DriverID)
		out = x
	case models.BusRound:
		x.BusID = copyID(x.BusID)
		out = x
	case models.RoundStudent:
		x.RoundID = copyID(x.RoundID)
		x.StudentID = copyID(x.StudentID)
		out = x
	case models.Location:
		x.BusID = copyID(x.BusID)
		out = x
	case models.Notification:
		x.RoundID = copyID(x.RoundID)
		x.BusID = copyID(x.BusID)
		x.StudentID = copyID(x.StudentID)
		x.SenderID = copyID(x.SenderID)
		x.RecipientID = copyID(x.RecipientID)
		out = x
	case models.Absence:
		x.StudentID = copyID(x.StudentID)
		x.Reason = copyString(x.Reason)
		x.ReportedBy = copyID(x.ReportedBy)
		out = x
	case models.ActivityLog:
		x.Details = append(types.JSONText(nil), x.Details...)
		x.UserID = copyID(x.UserID)
		out = x
	default:
		return v
	}
	return out.(T)
}

func detached[T any](v T) *T {
	d := detach(v)
	return &d
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameID(ref *int64, id int64) bool {
	return ref != nil && *ref == id
}

// refExists reports whether an optional reference points at a stored row.
func refExists[T any](m map[int64]T, ref models.OptionalID) bool {
	if !ref.Valid {
		return true
	}
	_, ok := m[ref.Value]
	return ok
}

func ptrRefExists[T any](m map[int64]T, ref *int64) bool {
	if ref == nil {
		return true
	}
	_, ok := m[*ref]
	return ok
}

// Users

func (s *MemoryStorage) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return detached(u), nil
}

func (s *MemoryStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return detached(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) ListUsers(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.users, func(u models.User) bool {
		return filter.Role == nil || u.Role == *filter.Role
	}), nil
}

func (s *MemoryStorage) usernameTaken(username string, except int64) bool {
	for id, u := range s.users {
		if id != except && u.Username == username {
			return true
		}
	}
	return false
}

func (s *MemoryStorage) CreateUser(_ context.Context, in models.NewUser) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernameTaken(in.Username, 0) {
		return nil, conflict("username")
	}
	u := models.User{
		ID:        s.nextID("users"),
		Username:  in.Username,
		Password:  in.Password,
		Email:     in.Email,
		FullName:  in.FullName,
		Phone:     copyString(in.Phone),
		Role:      in.Role,
		CreatedAt: s.now(),
	}
	s.users[u.ID] = u
	return detached(u), nil
}

func (s *MemoryStorage) UpdateUser(_ context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Username != nil {
		if s.usernameTaken(*patch.Username, id) {
			return nil, conflict("username")
		}
		u.Username = *patch.Username
	}
	if patch.Password != nil {
		u.Password = *patch.Password
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		if *patch.Phone == "" {
			u.Phone = nil
		} else {
			u.Phone = copyString(patch.Phone)
		}
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	s.users[id] = u
	return detached(u), nil
}

func (s *MemoryStorage) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return nil
	}
	delete(s.users, id)
	for k, st := range s.students {
		if sameID(st.ParentID, id) {
			st.ParentID = nil
			s.students[k] = st
		}
	}
	for k, b := range s.buses {
		if sameID(b.DriverID, id) {
			b.DriverID = nil
			s.buses[k] = b
		}
	}
	for k, n := range s.notifications {
		if sameID(n.SenderID, id) || sameID(n.RecipientID, id) {
			if sameID(n.SenderID, id) {
				n.SenderID = nil
			}
			if sameID(n.RecipientID, id) {
				n.RecipientID = nil
			}
			s.notifications[k] = n
		}
	}
	for k, a := range s.absences {
		if sameID(a.ReportedBy, id) {
			a.ReportedBy = nil
			s.absences[k] = a
		}
	}
	for k, l := range s.activityLogs {
		if sameID(l.UserID, id) {
			l.UserID = nil
			s.activityLogs[k] = l
		}
	}
	return nil
}

// Students

func (s *MemoryStorage) GetStudent(_ context.Context, id int64) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	return detached(st), nil
}

func (s *MemoryStorage) ListStudents(_ context.Context, filter models.StudentFilter) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.students, func(st models.Student) bool {
		return filter.ParentID == nil || sameID(st.ParentID, *filter.ParentID)
	}), nil
}

func (s *MemoryStorage) studentIDTaken(studentID string, except int64) bool {
	for id, st := range s.students {
		if id != except && st.StudentID == studentID {
			return true
		}
	}
	return false
}

func (s *MemoryStorage) CreateStudent(_ context.Context, in models.NewStudent) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.studentIDTaken(in.StudentID, 0) {
		return nil, conflict("studentId")
	}
	if !refExists(s.users, in.ParentID) {
		return nil, invalidRef("parentId")
	}
	st := models.Student{
		ID:        s.nextID("students"),
		StudentID: in.StudentID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Grade:     in.Grade,
		ParentID:  in.ParentID.Ptr(),
		CreatedAt: s.now(),
	}
	s.students[st.ID] = st
	return detached(st), nil
}

func (s *MemoryStorage) UpdateStudent(_ context.Context, id int64, patch models.StudentPatch) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.StudentID != nil && s.studentIDTaken(*patch.StudentID, id) {
		return nil, conflict("studentId")
	}
	if !refExists(s.users, patch.ParentID) {
		return nil, invalidRef("parentId")
	}
	if patch.StudentID != nil {
		st.StudentID = *patch.StudentID
	}
	if patch.FirstName != nil {
		st.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		st.LastName = *patch.LastName
	}
	if patch.Grade != nil {
		st.Grade = *patch.Grade
	}
	if patch.ParentID.Set {
		st.ParentID = patch.ParentID.Ptr()
	}
	s.students[id] = st
	return detached(st), nil
}

func (s *MemoryStorage) DeleteStudent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return nil
	}
	delete(s.students, id)
	for k, rs := range s.roundStudents {
		if sameID(rs.StudentID, id) {
			delete(s.roundStudents, k)
		}
	}
	for k, a := range s.absences {
		if sameID(a.StudentID, id) {
			delete(s.absences, k)
		}
	}
	for k, n := range s.notifications {
		if sameID(n.StudentID, id) {
			n.StudentID = nil
			s.notifications[k] = n
		}
	}
	return nil
}

// Buses

func (s *MemoryStorage) GetBus(_ context.Context, id int64) (*models.Bus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return detached(b), nil
}

func (s *MemoryStorage) ListBuses(context.Context) ([]models.Bus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.buses, nil), nil
}

func (s *MemoryStorage) busNumberTaken(number string, except int64) bool {
	for id, b := range s.buses {
		if id != except && b.BusNumber == number {
			return true
		}
	}
	return false
}

func (s *MemoryStorage) CreateBus(_ context.Context, in models.NewBus) (*models.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busNumberTaken(in.BusNumber, 0) {
		return nil, conflict("busNumber")
	}
	if !refExists(s.users, in.DriverID) {
		return nil, invalidRef("driverId")
	}
	b := models.Bus{
		ID:            s.nextID("buses"),
		BusNumber:     in.BusNumber,
		LicenseNumber: in.LicenseNumber,
		Capacity:      in.Capacity,
		DriverID:      in.DriverID.Ptr(),
		CreatedAt:     s.now(),
	}
	s.buses[b.ID] = b
	return detached(b), nil
}

func (s *MemoryStorage) UpdateBus(_ context.Context, id int64, patch models.BusPatch) (*models.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buses[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.BusNumber != nil && s.busNumberTaken(*patch.BusNumber, id) {
		return nil, conflict("busNumber")
	}
	if !refExists(s.users, patch.DriverID) {
		return nil, invalidRef("driverId")
	}
	if patch.BusNumber != nil {
		b.BusNumber = *patch.BusNumber
	}
	if patch.LicenseNumber != nil {
		b.LicenseNumber = *patch.LicenseNumber
	}
	if patch.Capacity != nil {
		b.Capacity = *patch.Capacity
	}
	if patch.DriverID.Set {
		b.DriverID = patch.DriverID.Ptr()
	}
	s.buses[id] = b
	return detached(b), nil
}

func (s *MemoryStorage) DeleteBus(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buses[id]; !ok {
		return nil
	}
	delete(s.buses, id)
	for k, r := range s.rounds {
		if sameID(r.BusID, id) {
			r.BusID = nil
			s.rounds[k] = r
		}
	}
	for k, l := range s.locations {
		if sameID(l.BusID, id) {
			delete(s.locations, k)
		}
	}
	for k, n := range s.notifications {
		if sameID(n.BusID, id) {
			n.BusID = nil
			s.notifications[k] = n
		}
	}
	return nil
}

// Bus rounds

func (s *MemoryStorage) GetBusRound(_ context.Context, id int64) (*models.BusRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return detached(r), nil
}

func (s *MemoryStorage) ListBusRounds(_ context.Context, filter models.BusRoundFilter) ([]models.BusRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.rounds, func(r models.BusRound) bool {
		if filter.Status != nil && r.Status != *filter.Status {
			return false
		}
		return filter.BusID == nil || sameID(r.BusID, *filter.BusID)
	}), nil
}

func (s *MemoryStorage) CreateBusRound(_ context.Context, in models.NewBusRound) (*models.BusRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !refExists(s.buses, in.BusID) {
		return nil, invalidRef("busId")
	}
	r := models.BusRound{
		ID:        s.nextID("bus_rounds"),
		Name:      in.Name,
		Type:      in.Type,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		BusID:     in.BusID.Ptr(),
		Status:    in.Status,
		CreatedAt: s.now(),
	}
	s.rounds[r.ID] = r
	return detached(r), nil
}

func (s *MemoryStorage) UpdateBusRound(_ context.Context, id int64, patch models.BusRoundPatch) (*models.BusRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !refExists(s.buses, patch.BusID) {
		return nil, invalidRef("busId")
	}
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.Type != nil {
		r.Type = *patch.Type
	}
	if patch.StartTime != nil {
		r.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		r.EndTime = *patch.EndTime
	}
	if patch.BusID.Set {
		r.BusID = patch.BusID.Ptr()
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	s.rounds[id] = r
	return detached(r), nil
}

func (s *MemoryStorage) DeleteBusRound(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[id]; !ok {
		return nil
	}
	delete(s.rounds, id)
	for k, rs := range s.roundStudents {
		if sameID(rs.RoundID, id) {
			delete(s.roundStudents, k)
		}
	}
	for k, n := range s.notifications {
		if sameID(n.RoundID, id) {
			n.RoundID = nil
			s.notifications[k] = n
		}
	}
	return nil
}

func (s *MemoryStorage) TransitionRound(_ context.Context, id int64, from []models.RoundStatus, to models.RoundStatus) (*models.BusRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	if len(from) > 0 {
		allowed := false
		for _, st := range from {
			if r.Status == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, ErrInvalidTransition
		}
	}
	r.Status = to
	s.rounds[id] = r
	return detached(r), nil
}

// Round students

func (s *MemoryStorage) ListRoundStudents(_ context.Context, roundID int64) ([]models.RoundStudent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := collect(s.roundStudents, func(rs models.RoundStudent) bool {
		return sameID(rs.RoundID, roundID)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *MemoryStorage) AssignStudentToRound(_ context.Context, in models.NewRoundStudent) (*models.RoundStudent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[in.RoundID]; !ok {
		return nil, invalidRef("roundId")
	}
	if _, ok := s.students[in.StudentID]; !ok {
		return nil, invalidRef("studentId")
	}
	for _, rs := range s.roundStudents {
		if sameID(rs.RoundID, in.RoundID) && sameID(rs.StudentID, in.StudentID) {
			return nil, conflict("studentId")
		}
	}
	order := 0
	if in.Order != nil {
		order = *in.Order
	}
	roundID, studentID := in.RoundID, in.StudentID
	rs := models.RoundStudent{
		ID:        s.nextID("round_students"),
		RoundID:   &roundID,
		StudentID: &studentID,
		Order:     order,
		CreatedAt: s.now(),
	}
	s.roundStudents[rs.ID] = rs
	return detached(rs), nil
}

func (s *MemoryStorage) RemoveStudentFromRound(_ context.Context, roundID, studentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, rs := range s.roundStudents {
		if sameID(rs.RoundID, roundID) && sameID(rs.StudentID, studentID) {
			delete(s.roundStudents, k)
		}
	}
	return nil
}

// Locations

func (s *MemoryStorage) RecordLocation(_ context.Context, in models.NewLocation) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buses[in.BusID]; !ok {
		return nil, invalidRef("busId")
	}
	busID := in.BusID
	l := models.Location{
		ID:        s.nextID("locations"),
		BusID:     &busID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Timestamp: s.now(),
	}
	s.locations[l.ID] = l
	return detached(l), nil
}

func (s *MemoryStorage) GetLatestBusLocation(_ context.Context, busID int64) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Location
	for _, l := range s.locations {
		if !sameID(l.BusID, busID) {
			continue
		}
		if latest == nil || newer(l.Timestamp, l.ID, latest.Timestamp, latest.ID) {
			l := l
			latest = &l
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return detached(*latest), nil
}

// newer orders rows by timestamp desc, then id desc.
func newer(ts time.Time, id int64, otherTS time.Time, otherID int64) bool {
	if !ts.Equal(otherTS) {
		return ts.After(otherTS)
	}
	return id > otherID
}

// Notifications

func (s *MemoryStorage) CreateNotification(_ context.Context, in models.NewNotification) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !refExists(s.rounds, in.RoundID):
		return nil, invalidRef("roundId")
	case !refExists(s.buses, in.BusID):
		return nil, invalidRef("busId")
	case !refExists(s.students, in.StudentID):
		return nil, invalidRef("studentId")
	case !refExists(s.users, in.SenderID):
		return nil, invalidRef("senderId")
	case !refExists(s.users, in.RecipientID):
		return nil, invalidRef("recipientId")
	}
	n := models.Notification{
		ID:          s.nextID("notifications"),
		Type:        in.Type,
		Message:     in.Message,
		RoundID:     in.RoundID.Ptr(),
		BusID:       in.BusID.Ptr(),
		StudentID:   in.StudentID.Ptr(),
		SenderID:    in.SenderID.Ptr(),
		RecipientID: in.RecipientID.Ptr(),
		Timestamp:   s.now(),
	}
	s.notifications[n.ID] = n
	return detached(n), nil
}

func (s *MemoryStorage) ListNotifications(_ context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.recentNotifications(func(n models.Notification) bool {
		if filter.RecipientID != nil && !sameID(n.RecipientID, *filter.RecipientID) {
			return false
		}
		return filter.Type == nil || n.Type == *filter.Type
	}, filter.Limit)
	return out, nil
}

func (s *MemoryStorage) recentNotifications(keep func(models.Notification) bool, limit int) []models.Notification {
	out := collect(s.notifications, keep)
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].Timestamp, out[i].ID, out[j].Timestamp, out[j].ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Absences

func (s *MemoryStorage) RecordAbsence(_ context.Context, in models.NewAbsence) (*models.Absence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[in.StudentID]; !ok {
		return nil, invalidRef("studentId")
	}
	if !refExists(s.users, in.ReportedBy) {
		return nil, invalidRef("reportedBy")
	}
	studentID := in.StudentID
	a := models.Absence{
		ID:         s.nextID("absences"),
		StudentID:  &studentID,
		Date:       in.Date,
		Reason:     copyString(in.Reason),
		ReportedBy: in.ReportedBy.Ptr(),
		CreatedAt:  s.now(),
	}
	s.absences[a.ID] = a
	return detached(a), nil
}

func (s *MemoryStorage) ListAbsences(_ context.Context, filter models.AbsenceFilter) ([]models.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.absences, func(a models.Absence) bool {
		if filter.StudentID != nil && !sameID(a.StudentID, *filter.StudentID) {
			return false
		}
		return filter.Date == "" || a.Date == filter.Date
	}), nil
}

// Activity logs

func (s *MemoryStorage) LogActivity(_ context.Context, in models.NewActivityLog) (*models.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ptrRefExists(s.users, in.UserID) {
		return nil, invalidRef("userId")
	}
	details := in.Details
	if len(details) == 0 {
		details = types.JSONText("{}")
	}
	l := models.ActivityLog{
		ID:        s.nextID("activity_logs"),
		Action:    in.Action,
		Details:   append(types.JSONText(nil), details...),
		UserID:    copyID(in.UserID),
		Timestamp: s.now(),
	}
	s.activityLogs[l.ID] = l
	return detached(l), nil
}

func (s *MemoryStorage) ListActivityLogs(_ context.Context, filter models.ActivityLogFilter) ([]models.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := collect(s.activityLogs, func(l models.ActivityLog) bool {
		if filter.UserID != nil && !sameID(l.UserID, *filter.UserID) {
			return false
		}
		return filter.Action == "" || l.Action == filter.Action
	})
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].Timestamp, out[i].ID, out[j].Timestamp, out[j].ID)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Dashboard

func (s *MemoryStorage) DashboardStats(_ context.Context, recent int) (*models.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &models.DashboardStats{
		TotalStudents: len(s.students),
		TotalBuses:    len(s.buses),
	}
	for _, u := range s.users {
		switch u.Role {
		case models.RoleParent:
			stats.TotalParents++
		case models.RoleDriver:
			stats.TotalDrivers++
		}
	}
	for _, r := range s.rounds {
		if r.Status == models.RoundInProgress {
			stats.ActiveRounds++
		}
	}
	stats.RecentNotifications = []models.Notification{}
	if recent > 0 {
		stats.RecentNotifications = s.recentNotifications(nil, recent)
	}
	return stats, nil
}
