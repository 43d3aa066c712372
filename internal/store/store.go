// ABOUTME: Store interface and data types for quanta persistence
// ABOUTME: Defines Subject, Lesson, PracticeQuestion, Student structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateSubject is returned when trying to create a subject that already exists
var ErrDuplicateSubject = errors.New("subject already exists")

// Subject represents a course subject grouping lessons and practice questions
type Subject struct {
	ID           string
	Name         string
	Description  string
	Grade        string
	ThumbnailURL string
	CreatedAt    time.Time
}

// Lesson represents a single lesson within a subject.
// Content is markdown; EvaluationQuestions is a JSON-encoded question list.
type Lesson struct {
	ID                  string
	SubjectID           string
	Title               string
	Content             string
	Preview             string
	ThumbnailURL        string
	OrderNum            int
	EvaluationQuestions string // JSON array, empty if the lesson has no evaluation
	CreatedAt           time.Time
}

// Difficulty constants for practice questions
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// PracticeQuestion represents a standalone practice question for a subject
type PracticeQuestion struct {
	ID            string
	SubjectID     string
	Question      string
	Options       string // JSON array of answer options
	CorrectAnswer string
	Explanation   string
	Difficulty    string // "easy", "medium", "hard" (defaults to "medium")
	Topic         string
	CreatedAt     time.Time
}

// Student represents a student account on the platform
type Student struct {
	ID        string
	Email     string
	FullName  string
	Class     string
	CreatedAt time.Time
}

// Result represents a completed lesson evaluation attempt
type Result struct {
	ID          string
	StudentID   string
	SubjectID   string
	LessonID    string
	Score       int
	Total       int
	AttemptDate time.Time
}

// ProgressEntry represents a student's completion record for a lesson
type ProgressEntry struct {
	ID          string
	StudentID   string
	LessonID    string
	Score       *int
	CompletedAt time.Time
}

// AnalyticsSummary aggregates platform-wide stats for the admin dashboard
type AnalyticsSummary struct {
	StudentCount    int
	SubjectCount    int
	LessonCount     int
	QuestionCount   int
	AttemptCount    int
	AverageScorePct float64 // 0 when no attempts have been recorded
}

// Store defines the interface for content and student persistence
type Store interface {
	// Subjects
	CreateSubject(ctx context.Context, subject *Subject) error
	GetSubject(ctx context.Context, id string) (*Subject, error)
	ListSubjects(ctx context.Context) ([]*Subject, error)
	UpdateSubject(ctx context.Context, subject *Subject) error
	DeleteSubject(ctx context.Context, id string) error

	// Lessons
	CreateLesson(ctx context.Context, lesson *Lesson) error
	GetLesson(ctx context.Context, id string) (*Lesson, error)
	ListLessonsBySubject(ctx context.Context, subjectID string) ([]*Lesson, error)
	UpdateLesson(ctx context.Context, lesson *Lesson) error
	DeleteLesson(ctx context.Context, id string) error

	// Practice questions
	CreatePracticeQuestion(ctx context.Context, q *PracticeQuestion) error
	GetPracticeQuestion(ctx context.Context, id string) (*PracticeQuestion, error)
	ListPracticeQuestions(ctx context.Context, subjectID string) ([]*PracticeQuestion, error)
	UpdatePracticeQuestion(ctx context.Context, q *PracticeQuestion) error
	DeletePracticeQuestion(ctx context.Context, id string) error

	// Students
	CreateStudent(ctx context.Context, student *Student) error
	GetStudent(ctx context.Context, id string) (*Student, error)
	GetStudentByEmail(ctx context.Context, email string) (*Student, error)
	ListStudents(ctx context.Context) ([]*Student, error)

	// Results and progress
	SaveResult(ctx context.Context, result *Result) error
	ListResultsByStudent(ctx context.Context, studentID string, limit int) ([]*Result, error)
	ListRecentResults(ctx context.Context, limit int) ([]*Result, error)
	SaveProgress(ctx context.Context, entry *ProgressEntry) error
	ListProgressByStudent(ctx context.Context, studentID string) ([]*ProgressEntry, error)

	// Analytics
	GetAnalyticsSummary(ctx context.Context) (*AnalyticsSummary, error)
}
