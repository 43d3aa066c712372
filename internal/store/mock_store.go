// ABOUTME: Mock Store/AdminStore implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store and AdminStore implementation for testing.
type MockStore struct {
	mu            sync.RWMutex
	subjects      map[string]*Subject
	lessons       map[string]*Lesson
	questions     map[string]*PracticeQuestion
	students      map[string]*Student
	results       []*Result
	progress      map[string]*ProgressEntry // keyed by "studentID:lessonID"
	adminUsers    map[string]*AdminUser     // keyed by ID
	adminSessions map[string]*AdminSession
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		subjects:      make(map[string]*Subject),
		lessons:       make(map[string]*Lesson),
		questions:     make(map[string]*PracticeQuestion),
		students:      make(map[string]*Student),
		progress:      make(map[string]*ProgressEntry),
		adminUsers:    make(map[string]*AdminUser),
		adminSessions: make(map[string]*AdminSession),
	}
}

var (
	_ Store      = (*MockStore)(nil)
	_ AdminStore = (*MockStore)(nil)
)

// CreateSubject stores a new subject.
func (m *MockStore) CreateSubject(ctx context.Context, subject *Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if subject.ID == "" {
		subject.ID = uuid.New().String()
	}
	for _, existing := range m.subjects {
		if existing.Name == subject.Name {
			return ErrDuplicateSubject
		}
	}

	s := *subject
	m.subjects[s.ID] = &s
	return nil
}

// GetSubject retrieves a subject by ID.
func (m *MockStore) GetSubject(ctx context.Context, id string) (*Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subject, ok := m.subjects[id]
	if !ok {
		return nil, ErrNotFound
	}
	s := *subject
	return &s, nil
}

// ListSubjects returns all subjects ordered by name.
func (m *MockStore) ListSubjects(ctx context.Context) ([]*Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var subjects []*Subject
	for _, subject := range m.subjects {
		s := *subject
		subjects = append(subjects, &s)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

// UpdateSubject updates an existing subject.
func (m *MockStore) UpdateSubject(ctx context.Context, subject *Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subjects[subject.ID]; !ok {
		return ErrNotFound
	}
	s := *subject
	m.subjects[s.ID] = &s
	return nil
}

// DeleteSubject deletes a subject by ID.
func (m *MockStore) DeleteSubject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subjects[id]; !ok {
		return ErrNotFound
	}
	delete(m.subjects, id)
	return nil
}

// CreateLesson stores a new lesson.
func (m *MockStore) CreateLesson(ctx context.Context, lesson *Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lesson.ID == "" {
		lesson.ID = uuid.New().String()
	}
	l := *lesson
	m.lessons[l.ID] = &l
	return nil
}

// GetLesson retrieves a lesson by ID.
func (m *MockStore) GetLesson(ctx context.Context, id string) (*Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lesson, ok := m.lessons[id]
	if !ok {
		return nil, ErrNotFound
	}
	l := *lesson
	return &l, nil
}

// ListLessonsBySubject returns lessons for a subject in display order.
func (m *MockStore) ListLessonsBySubject(ctx context.Context, subjectID string) ([]*Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var lessons []*Lesson
	for _, lesson := range m.lessons {
		if lesson.SubjectID == subjectID {
			l := *lesson
			lessons = append(lessons, &l)
		}
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].OrderNum < lessons[j].OrderNum })
	return lessons, nil
}

// UpdateLesson updates an existing lesson.
func (m *MockStore) UpdateLesson(ctx context.Context, lesson *Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lessons[lesson.ID]; !ok {
		return ErrNotFound
	}
	l := *lesson
	m.lessons[l.ID] = &l
	return nil
}

// DeleteLesson deletes a lesson by ID.
func (m *MockStore) DeleteLesson(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lessons[id]; !ok {
		return ErrNotFound
	}
	delete(m.lessons, id)
	return nil
}

// CreatePracticeQuestion stores a new practice question.
func (m *MockStore) CreatePracticeQuestion(ctx context.Context, q *PracticeQuestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Difficulty == "" {
		q.Difficulty = DifficultyMedium
	}
	cp := *q
	m.questions[cp.ID] = &cp
	return nil
}

// GetPracticeQuestion retrieves a practice question by ID.
func (m *MockStore) GetPracticeQuestion(ctx context.Context, id string) (*PracticeQuestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

// ListPracticeQuestions returns questions, optionally filtered by subject.
func (m *MockStore) ListPracticeQuestions(ctx context.Context, subjectID string) ([]*PracticeQuestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var questions []*PracticeQuestion
	for _, q := range m.questions {
		if subjectID == "" || q.SubjectID == subjectID {
			cp := *q
			questions = append(questions, &cp)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].CreatedAt.After(questions[j].CreatedAt) })
	return questions, nil
}

// UpdatePracticeQuestion updates an existing practice question.
func (m *MockStore) UpdatePracticeQuestion(ctx context.Context, q *PracticeQuestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.questions[q.ID]; !ok {
		return ErrNotFound
	}
	cp := *q
	m.questions[cp.ID] = &cp
	return nil
}

// DeletePracticeQuestion deletes a practice question by ID.
func (m *MockStore) DeletePracticeQuestion(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.questions[id]; !ok {
		return ErrNotFound
	}
	delete(m.questions, id)
	return nil
}

// CreateStudent stores a new student.
func (m *MockStore) CreateStudent(ctx context.Context, student *Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if student.ID == "" {
		student.ID = uuid.New().String()
	}
	for _, existing := range m.students {
		if existing.Email == student.Email {
			return ErrStudentEmailExists
		}
	}
	s := *student
	m.students[s.ID] = &s
	return nil
}

// GetStudent retrieves a student by ID.
func (m *MockStore) GetStudent(ctx context.Context, id string) (*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	student, ok := m.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	s := *student
	return &s, nil
}

// GetStudentByEmail retrieves a student by email.
func (m *MockStore) GetStudentByEmail(ctx context.Context, email string) (*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, student := range m.students {
		if student.Email == email {
			s := *student
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

// ListStudents returns all students ordered by name.
func (m *MockStore) ListStudents(ctx context.Context) ([]*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var students []*Student
	for _, student := range m.students {
		s := *student
		students = append(students, &s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].FullName < students[j].FullName })
	return students, nil
}

// SaveResult records a result.
func (m *MockStore) SaveResult(ctx context.Context, result *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.AttemptDate.IsZero() {
		result.AttemptDate = time.Now()
	}
	r := *result
	m.results = append(m.results, &r)
	return nil
}

// ListResultsByStudent returns a student's results, newest first.
func (m *MockStore) ListResultsByStudent(ctx context.Context, studentID string, limit int) ([]*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*Result
	for _, result := range m.results {
		if result.StudentID == studentID {
			r := *result
			results = append(results, &r)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].AttemptDate.After(results[j].AttemptDate) })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListRecentResults returns the most recent results.
func (m *MockStore) ListRecentResults(ctx context.Context, limit int) ([]*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*Result, 0, len(m.results))
	for _, result := range m.results {
		r := *result
		results = append(results, &r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].AttemptDate.After(results[j].AttemptDate) })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SaveProgress records lesson completion.
func (m *MockStore) SaveProgress(ctx context.Context, entry *ProgressEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CompletedAt.IsZero() {
		entry.CompletedAt = time.Now()
	}
	e := *entry
	m.progress[e.StudentID+":"+e.LessonID] = &e
	return nil
}

// ListProgressByStudent returns a student's progress entries.
func (m *MockStore) ListProgressByStudent(ctx context.Context, studentID string) ([]*ProgressEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []*ProgressEntry
	for key, entry := range m.progress {
		if strings.HasPrefix(key, studentID+":") {
			e := *entry
			entries = append(entries, &e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CompletedAt.After(entries[j].CompletedAt) })
	return entries, nil
}

// GetAnalyticsSummary computes aggregates over the in-memory data.
func (m *MockStore) GetAnalyticsSummary(ctx context.Context) (*AnalyticsSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := &AnalyticsSummary{
		StudentCount:  len(m.students),
		SubjectCount:  len(m.subjects),
		LessonCount:   len(m.lessons),
		QuestionCount: len(m.questions),
		AttemptCount:  len(m.results),
	}

	var sum float64
	var n int
	for _, result := range m.results {
		if result.Total > 0 {
			sum += float64(result.Score) * 100.0 / float64(result.Total)
			n++
		}
	}
	if n > 0 {
		summary.AverageScorePct = sum / float64(n)
	}

	return summary, nil
}

// CreateAdminUser stores a new admin credential record.
func (m *MockStore) CreateAdminUser(ctx context.Context, user *AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.adminUsers {
		if existing.Email == user.Email {
			return ErrEmailExists
		}
	}
	u := *user
	m.adminUsers[u.ID] = &u
	return nil
}

// GetAdminUser retrieves an admin user by ID.
func (m *MockStore) GetAdminUser(ctx context.Context, id string) (*AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.adminUsers[id]
	if !ok {
		return nil, ErrAdminNotFound
	}
	u := *user
	return &u, nil
}

// GetAdminUserByEmail retrieves an admin user by email (exact match).
func (m *MockStore) GetAdminUserByEmail(ctx context.Context, email string) (*AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.adminUsers {
		if user.Email == email {
			u := *user
			return &u, nil
		}
	}
	return nil, ErrAdminNotFound
}

// UpdateAdminUserPassword updates an admin user's password hash.
func (m *MockStore) UpdateAdminUserPassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.adminUsers[id]
	if !ok {
		return ErrAdminNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

// ListAdminUsers returns all admin users, oldest first.
func (m *MockStore) ListAdminUsers(ctx context.Context) ([]*AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []*AdminUser
	for _, user := range m.adminUsers {
		u := *user
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

// CountAdminUsers returns the number of admin users.
func (m *MockStore) CountAdminUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.adminUsers), nil
}

// CreateAdminSession stores a new admin session.
func (m *MockStore) CreateAdminSession(ctx context.Context, session *AdminSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	m.adminSessions[s.ID] = &s
	return nil
}

// GetAdminSession retrieves a session by ID, treating expired as not found.
func (m *MockStore) GetAdminSession(ctx context.Context, id string) (*AdminSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.adminSessions[id]
	if !ok {
		return nil, ErrAdminSessionNotFound
	}
	if time.Now().After(session.ExpiresAt) {
		delete(m.adminSessions, id)
		return nil, ErrAdminSessionNotFound
	}
	s := *session
	return &s, nil
}

// DeleteAdminSession deletes a session by ID.
func (m *MockStore) DeleteAdminSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.adminSessions, id)
	return nil
}

// DeleteExpiredAdminSessions removes expired sessions.
func (m *MockStore) DeleteExpiredAdminSessions(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, session := range m.adminSessions {
		if now.After(session.ExpiresAt) {
			delete(m.adminSessions, id)
		}
	}
	return nil
}
