// ABOUTME: SQLite store methods for subjects, lessons, and practice questions
// ABOUTME: Implements the content half of the Store interface

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// CreateSubject creates a new subject. The ID is generated when empty.
// Returns ErrDuplicateSubject if a subject with the same name exists.
func (s *SQLiteStore) CreateSubject(ctx context.Context, subject *Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.New().String()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO subjects (id, name, description, grade, thumbnail_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		subject.ID,
		subject.Name,
		subject.Description,
		subject.Grade,
		subject.ThumbnailURL,
		subject.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateSubject
		}
		return fmt.Errorf("inserting subject: %w", err)
	}

	s.logger.Debug("created subject", "id", subject.ID, "name", subject.Name)
	return nil
}

// GetSubject retrieves a subject by ID.
func (s *SQLiteStore) GetSubject(ctx context.Context, id string) (*Subject, error) {
	query := `
		SELECT id, name, description, grade, thumbnail_url, created_at
		FROM subjects
		WHERE id = ?
	`

	var subject Subject
	var description, grade, thumbnail sql.NullString
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&subject.ID,
		&subject.Name,
		&description,
		&grade,
		&thumbnail,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying subject: %w", err)
	}

	subject.Description = description.String
	subject.Grade = grade.String
	subject.ThumbnailURL = thumbnail.String
	subject.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &subject, nil
}

// ListSubjects returns all subjects ordered by name.
func (s *SQLiteStore) ListSubjects(ctx context.Context) ([]*Subject, error) {
	query := `
		SELECT id, name, description, grade, thumbnail_url, created_at
		FROM subjects
		ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying subjects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subjects []*Subject
	for rows.Next() {
		var subject Subject
		var description, grade, thumbnail sql.NullString
		var createdAtStr string

		if err := rows.Scan(&subject.ID, &subject.Name, &description, &grade, &thumbnail, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning subject: %w", err)
		}

		subject.Description = description.String
		subject.Grade = grade.String
		subject.ThumbnailURL = thumbnail.String
		subject.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		subjects = append(subjects, &subject)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subjects: %w", err)
	}

	return subjects, nil
}

// UpdateSubject updates an existing subject.
func (s *SQLiteStore) UpdateSubject(ctx context.Context, subject *Subject) error {
	query := `
		UPDATE subjects
		SET name = ?, description = ?, grade = ?, thumbnail_url = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		subject.Name,
		subject.Description,
		subject.Grade,
		subject.ThumbnailURL,
		subject.ID,
	)
	if err != nil {
		return fmt.Errorf("updating subject: %w", err)
	}

	return requireRowsAffected(result, "subject")
}

// DeleteSubject deletes a subject by ID.
func (s *SQLiteStore) DeleteSubject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting subject: %w", err)
	}
	return requireRowsAffected(result, "subject")
}

// CreateLesson creates a new lesson. The ID is generated when empty.
func (s *SQLiteStore) CreateLesson(ctx context.Context, lesson *Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.New().String()
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO lessons (id, subject_id, title, content, preview, thumbnail_url, order_num, evaluation_questions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		lesson.ID,
		lesson.SubjectID,
		lesson.Title,
		lesson.Content,
		lesson.Preview,
		lesson.ThumbnailURL,
		lesson.OrderNum,
		lesson.EvaluationQuestions,
		lesson.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting lesson: %w", err)
	}

	s.logger.Debug("created lesson", "id", lesson.ID, "subject_id", lesson.SubjectID, "title", lesson.Title)
	return nil
}

// GetLesson retrieves a lesson by ID.
func (s *SQLiteStore) GetLesson(ctx context.Context, id string) (*Lesson, error) {
	query := `
		SELECT id, subject_id, title, content, preview, thumbnail_url, order_num, evaluation_questions, created_at
		FROM lessons
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	lesson, err := scanLesson(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying lesson: %w", err)
	}
	return lesson, nil
}

// ListLessonsBySubject returns all lessons for a subject in display order.
func (s *SQLiteStore) ListLessonsBySubject(ctx context.Context, subjectID string) ([]*Lesson, error) {
	query := `
		SELECT id, subject_id, title, content, preview, thumbnail_url, order_num, evaluation_questions, created_at
		FROM lessons
		WHERE subject_id = ?
		ORDER BY order_num ASC
	`

	rows, err := s.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("querying lessons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lessons []*Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lessons: %w", err)
	}

	return lessons, nil
}

// scanLesson scans a lesson row using the given scan function.
func scanLesson(scan func(dest ...any) error) (*Lesson, error) {
	var lesson Lesson
	var preview, thumbnail, evaluation sql.NullString
	var createdAtStr string

	err := scan(
		&lesson.ID,
		&lesson.SubjectID,
		&lesson.Title,
		&lesson.Content,
		&preview,
		&thumbnail,
		&lesson.OrderNum,
		&evaluation,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	lesson.Preview = preview.String
	lesson.ThumbnailURL = thumbnail.String
	lesson.EvaluationQuestions = evaluation.String
	lesson.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &lesson, nil
}

// UpdateLesson updates an existing lesson.
func (s *SQLiteStore) UpdateLesson(ctx context.Context, lesson *Lesson) error {
	query := `
		UPDATE lessons
		SET subject_id = ?, title = ?, content = ?, preview = ?, thumbnail_url = ?, order_num = ?, evaluation_questions = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		lesson.SubjectID,
		lesson.Title,
		lesson.Content,
		lesson.Preview,
		lesson.ThumbnailURL,
		lesson.OrderNum,
		lesson.EvaluationQuestions,
		lesson.ID,
	)
	if err != nil {
		return fmt.Errorf("updating lesson: %w", err)
	}
	return requireRowsAffected(result, "lesson")
}

// DeleteLesson deletes a lesson by ID.
func (s *SQLiteStore) DeleteLesson(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting lesson: %w", err)
	}
	return requireRowsAffected(result, "lesson")
}

// CreatePracticeQuestion creates a new practice question. The ID is generated
// when empty; difficulty defaults to medium.
func (s *SQLiteStore) CreatePracticeQuestion(ctx context.Context, q *PracticeQuestion) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Difficulty == "" {
		q.Difficulty = DifficultyMedium
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO practice_questions (id, subject_id, question, options, correct_answer, explanation, difficulty, topic, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		q.ID,
		q.SubjectID,
		q.Question,
		q.Options,
		q.CorrectAnswer,
		q.Explanation,
		q.Difficulty,
		q.Topic,
		q.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting practice question: %w", err)
	}

	s.logger.Debug("created practice question", "id", q.ID, "subject_id", q.SubjectID)
	return nil
}

// GetPracticeQuestion retrieves a practice question by ID.
func (s *SQLiteStore) GetPracticeQuestion(ctx context.Context, id string) (*PracticeQuestion, error) {
	query := `
		SELECT id, subject_id, question, options, correct_answer, explanation, difficulty, topic, created_at
		FROM practice_questions
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	q, err := scanPracticeQuestion(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying practice question: %w", err)
	}
	return q, nil
}

// ListPracticeQuestions returns questions for a subject, newest first.
// An empty subjectID returns questions across all subjects.
func (s *SQLiteStore) ListPracticeQuestions(ctx context.Context, subjectID string) ([]*PracticeQuestion, error) {
	query := `
		SELECT id, subject_id, question, options, correct_answer, explanation, difficulty, topic, created_at
		FROM practice_questions
	`
	args := []any{}
	if subjectID != "" {
		query += ` WHERE subject_id = ?`
		args = append(args, subjectID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying practice questions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var questions []*PracticeQuestion
	for rows.Next() {
		q, err := scanPracticeQuestion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning practice question: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating practice questions: %w", err)
	}

	return questions, nil
}

// scanPracticeQuestion scans a practice question row using the given scan function.
func scanPracticeQuestion(scan func(dest ...any) error) (*PracticeQuestion, error) {
	var q PracticeQuestion
	var explanation, topic sql.NullString
	var createdAtStr string

	err := scan(
		&q.ID,
		&q.SubjectID,
		&q.Question,
		&q.Options,
		&q.CorrectAnswer,
		&explanation,
		&q.Difficulty,
		&topic,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	q.Explanation = explanation.String
	q.Topic = topic.String
	q.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &q, nil
}

// UpdatePracticeQuestion updates an existing practice question.
func (s *SQLiteStore) UpdatePracticeQuestion(ctx context.Context, q *PracticeQuestion) error {
	query := `
		UPDATE practice_questions
		SET subject_id = ?, question = ?, options = ?, correct_answer = ?, explanation = ?, difficulty = ?, topic = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		q.SubjectID,
		q.Question,
		q.Options,
		q.CorrectAnswer,
		q.Explanation,
		q.Difficulty,
		q.Topic,
		q.ID,
	)
	if err != nil {
		return fmt.Errorf("updating practice question: %w", err)
	}
	return requireRowsAffected(result, "practice question")
}

// DeletePracticeQuestion deletes a practice question by ID.
func (s *SQLiteStore) DeletePracticeQuestion(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM practice_questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting practice question: %w", err)
	}
	return requireRowsAffected(result, "practice question")
}

// requireRowsAffected maps zero affected rows to ErrNotFound.
func requireRowsAffected(result sql.Result, entity string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected for %s: %w", entity, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
