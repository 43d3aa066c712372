// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides content/student/admin persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store and AdminStore interfaces using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS subjects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			grade TEXT,
			thumbnail_url TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_subjects_name
			ON subjects(name);

		CREATE TABLE IF NOT EXISTS lessons (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			preview TEXT,
			thumbnail_url TEXT,
			order_num INTEGER NOT NULL,
			evaluation_questions TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (subject_id) REFERENCES subjects(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_lessons_subject
			ON lessons(subject_id, order_num);

		CREATE TABLE IF NOT EXISTS practice_questions (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			question TEXT NOT NULL,
			options TEXT NOT NULL,
			correct_answer TEXT NOT NULL,
			explanation TEXT,
			difficulty TEXT NOT NULL DEFAULT 'medium',
			topic TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (subject_id) REFERENCES subjects(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_practice_questions_subject
			ON practice_questions(subject_id);

		CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			full_name TEXT NOT NULL,
			class TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			lesson_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			attempt_date DATETIME NOT NULL,
			FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE,
			FOREIGN KEY (subject_id) REFERENCES subjects(id) ON DELETE CASCADE,
			FOREIGN KEY (lesson_id) REFERENCES lessons(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_results_student
			ON results(student_id, attempt_date);

		CREATE TABLE IF NOT EXISTS student_progress (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			lesson_id TEXT NOT NULL,
			score INTEGER,
			completed_at DATETIME NOT NULL,
			FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE,
			FOREIGN KEY (lesson_id) REFERENCES lessons(id) ON DELETE CASCADE
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_student_progress_lesson
			ON student_progress(student_id, lesson_id);

		CREATE TABLE IF NOT EXISTS admin_users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			full_name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'admin',
			password_hash TEXT,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS admin_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES admin_users(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_admin_sessions_expires
			ON admin_sessions(expires_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

// Ping verifies the database connection is alive
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

func isUniqueConstraintError(err error) bool {
	// SQLite returns "UNIQUE constraint failed" in the error message
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "unique constraint"))
}
