// ABOUTME: SQLite store methods for students, results, progress, and analytics
// ABOUTME: Implements the student half of the Store interface

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrStudentEmailExists is returned when creating a student with a taken email.
var ErrStudentEmailExists = errors.New("student email already exists")

// CreateStudent creates a new student account. The ID is generated when empty.
func (s *SQLiteStore) CreateStudent(ctx context.Context, student *Student) error {
	if student.ID == "" {
		student.ID = uuid.New().String()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO students (id, email, full_name, class, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		student.ID,
		student.Email,
		student.FullName,
		student.Class,
		student.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrStudentEmailExists
		}
		return fmt.Errorf("inserting student: %w", err)
	}

	s.logger.Info("created student", "id", student.ID, "email", student.Email)
	return nil
}

// GetStudent retrieves a student by ID.
func (s *SQLiteStore) GetStudent(ctx context.Context, id string) (*Student, error) {
	query := `
		SELECT id, email, full_name, class, created_at
		FROM students
		WHERE id = ?
	`
	return s.scanStudent(s.db.QueryRowContext(ctx, query, id))
}

// GetStudentByEmail retrieves a student by email.
func (s *SQLiteStore) GetStudentByEmail(ctx context.Context, email string) (*Student, error) {
	query := `
		SELECT id, email, full_name, class, created_at
		FROM students
		WHERE email = ?
	`
	return s.scanStudent(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanStudent(row *sql.Row) (*Student, error) {
	var student Student
	var class sql.NullString
	var createdAtStr string

	err := row.Scan(
		&student.ID,
		&student.Email,
		&student.FullName,
		&class,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying student: %w", err)
	}

	student.Class = class.String
	student.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &student, nil
}

// ListStudents returns all students ordered by name.
func (s *SQLiteStore) ListStudents(ctx context.Context) ([]*Student, error) {
	query := `
		SELECT id, email, full_name, class, created_at
		FROM students
		ORDER BY full_name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying students: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var students []*Student
	for rows.Next() {
		var student Student
		var class sql.NullString
		var createdAtStr string

		if err := rows.Scan(&student.ID, &student.Email, &student.FullName, &class, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning student: %w", err)
		}

		student.Class = class.String
		student.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		students = append(students, &student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating students: %w", err)
	}

	return students, nil
}

// SaveResult records a completed lesson evaluation. The ID is generated when empty.
func (s *SQLiteStore) SaveResult(ctx context.Context, result *Result) error {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.AttemptDate.IsZero() {
		result.AttemptDate = time.Now()
	}

	query := `
		INSERT INTO results (id, student_id, subject_id, lesson_id, score, total, attempt_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		result.ID,
		result.StudentID,
		result.SubjectID,
		result.LessonID,
		result.Score,
		result.Total,
		result.AttemptDate.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}

	s.logger.Debug("saved result", "id", result.ID, "student_id", result.StudentID, "score", result.Score, "total", result.Total)
	return nil
}

// ListResultsByStudent returns a student's results, newest first.
func (s *SQLiteStore) ListResultsByStudent(ctx context.Context, studentID string, limit int) ([]*Result, error) {
	query := `
		SELECT id, student_id, subject_id, lesson_id, score, total, attempt_date
		FROM results
		WHERE student_id = ?
		ORDER BY attempt_date DESC
		LIMIT ?
	`
	return s.queryResults(ctx, query, studentID, limit)
}

// ListRecentResults returns the most recent results across all students.
func (s *SQLiteStore) ListRecentResults(ctx context.Context, limit int) ([]*Result, error) {
	query := `
		SELECT id, student_id, subject_id, lesson_id, score, total, attempt_date
		FROM results
		ORDER BY attempt_date DESC
		LIMIT ?
	`
	return s.queryResults(ctx, query, limit)
}

func (s *SQLiteStore) queryResults(ctx context.Context, query string, args ...any) ([]*Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Result
	for rows.Next() {
		var result Result
		var attemptDateStr string

		if err := rows.Scan(&result.ID, &result.StudentID, &result.SubjectID, &result.LessonID, &result.Score, &result.Total, &attemptDateStr); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}

		result.AttemptDate, err = time.Parse(time.RFC3339, attemptDateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing attempt_date: %w", err)
		}
		results = append(results, &result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}

	return results, nil
}

// SaveProgress records lesson completion for a student. Re-completing a lesson
// replaces the previous entry.
func (s *SQLiteStore) SaveProgress(ctx context.Context, entry *ProgressEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CompletedAt.IsZero() {
		entry.CompletedAt = time.Now()
	}

	query := `
		INSERT INTO student_progress (id, student_id, lesson_id, score, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(student_id, lesson_id) DO UPDATE SET
			score = excluded.score,
			completed_at = excluded.completed_at
	`

	var score any
	if entry.Score != nil {
		score = *entry.Score
	}

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.StudentID,
		entry.LessonID,
		score,
		entry.CompletedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting progress entry: %w", err)
	}

	return nil
}

// ListProgressByStudent returns a student's lesson completion records.
func (s *SQLiteStore) ListProgressByStudent(ctx context.Context, studentID string) ([]*ProgressEntry, error) {
	query := `
		SELECT id, student_id, lesson_id, score, completed_at
		FROM student_progress
		WHERE student_id = ?
		ORDER BY completed_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("querying progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*ProgressEntry
	for rows.Next() {
		var entry ProgressEntry
		var score sql.NullInt64
		var completedAtStr string

		if err := rows.Scan(&entry.ID, &entry.StudentID, &entry.LessonID, &score, &completedAtStr); err != nil {
			return nil, fmt.Errorf("scanning progress entry: %w", err)
		}

		if score.Valid {
			v := int(score.Int64)
			entry.Score = &v
		}
		entry.CompletedAt, err = time.Parse(time.RFC3339, completedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating progress entries: %w", err)
	}

	return entries, nil
}

// GetAnalyticsSummary computes platform-wide aggregates for the dashboard.
func (s *SQLiteStore) GetAnalyticsSummary(ctx context.Context) (*AnalyticsSummary, error) {
	var summary AnalyticsSummary

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM students`, &summary.StudentCount},
		{`SELECT COUNT(*) FROM subjects`, &summary.SubjectCount},
		{`SELECT COUNT(*) FROM lessons`, &summary.LessonCount},
		{`SELECT COUNT(*) FROM practice_questions`, &summary.QuestionCount},
		{`SELECT COUNT(*) FROM results`, &summary.AttemptCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("counting for analytics: %w", err)
		}
	}

	// Average percentage across attempts; guards against total = 0 rows
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT AVG(CAST(score AS REAL) * 100.0 / total) FROM results WHERE total > 0`,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("computing average score: %w", err)
	}
	summary.AverageScorePct = avg.Float64

	return &summary, nil
}
