// ABOUTME: Tests for student, result, and progress store operations
// ABOUTME: Covers enrollment, result history, progress upserts, and analytics

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStudent(t *testing.T, s *SQLiteStore, email string) *Student {
	t.Helper()

	student := &Student{
		Email:    email,
		FullName: "Test Student",
		Class:    "SS1A",
	}
	require.NoError(t, s.CreateStudent(context.Background(), student))
	return student
}

func TestStudent_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	student := createTestStudent(t, store, "ada@school.edu")
	assert.NotEmpty(t, student.ID)

	got, err := store.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@school.edu", got.Email)

	got, err = store.GetStudentByEmail(ctx, "ada@school.edu")
	require.NoError(t, err)
	assert.Equal(t, student.ID, got.ID)

	_, err = store.GetStudentByEmail(ctx, "missing@school.edu")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStudent_DuplicateEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	createTestStudent(t, store, "ada@school.edu")
	err := store.CreateStudent(ctx, &Student{Email: "ada@school.edu", FullName: "Other"})
	assert.ErrorIs(t, err, ErrStudentEmailExists)
}

func TestResults_SaveAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	subject := createTestSubject(t, store, "Mathematics")
	lesson := &Lesson{SubjectID: subject.ID, Title: "Lesson"}
	require.NoError(t, store.CreateLesson(ctx, lesson))
	student := createTestStudent(t, store, "ada@school.edu")

	base := time.Now().Add(-time.Hour)
	for i := range 3 {
		require.NoError(t, store.SaveResult(ctx, &Result{
			StudentID:   student.ID,
			SubjectID:   subject.ID,
			LessonID:    lesson.ID,
			Score:       i + 1,
			Total:       10,
			AttemptDate: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	results, err := store.ListResultsByStudent(ctx, student.ID, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Newest first
	assert.Equal(t, 3, results[0].Score)

	limited, err := store.ListResultsByStudent(ctx, student.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	recent, err := store.ListRecentResults(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestProgress_UpsertReplacesEntry(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	subject := createTestSubject(t, store, "Mathematics")
	lesson := &Lesson{SubjectID: subject.ID, Title: "Lesson"}
	require.NoError(t, store.CreateLesson(ctx, lesson))
	student := createTestStudent(t, store, "ada@school.edu")

	firstScore := 4
	require.NoError(t, store.SaveProgress(ctx, &ProgressEntry{
		StudentID: student.ID,
		LessonID:  lesson.ID,
		Score:     &firstScore,
	}))

	secondScore := 9
	require.NoError(t, store.SaveProgress(ctx, &ProgressEntry{
		StudentID: student.ID,
		LessonID:  lesson.ID,
		Score:     &secondScore,
	}))

	entries, err := store.ListProgressByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1, "re-completing a lesson should replace the entry")
	require.NotNil(t, entries[0].Score)
	assert.Equal(t, 9, *entries[0].Score)
}

func TestProgress_NilScore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	subject := createTestSubject(t, store, "Mathematics")
	lesson := &Lesson{SubjectID: subject.ID, Title: "Lesson"}
	require.NoError(t, store.CreateLesson(ctx, lesson))
	student := createTestStudent(t, store, "ada@school.edu")

	require.NoError(t, store.SaveProgress(ctx, &ProgressEntry{
		StudentID: student.ID,
		LessonID:  lesson.ID,
	}))

	entries, err := store.ListProgressByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Score)
}

func TestAnalyticsSummary(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	summary, err := store.GetAnalyticsSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.AttemptCount)
	assert.Zero(t, summary.AverageScorePct, "no attempts means zero average")

	subject := createTestSubject(t, store, "Mathematics")
	lesson := &Lesson{SubjectID: subject.ID, Title: "Lesson"}
	require.NoError(t, store.CreateLesson(ctx, lesson))
	student := createTestStudent(t, store, "ada@school.edu")

	// 5/10 and 10/10 average to 75%
	require.NoError(t, store.SaveResult(ctx, &Result{StudentID: student.ID, SubjectID: subject.ID, LessonID: lesson.ID, Score: 5, Total: 10}))
	require.NoError(t, store.SaveResult(ctx, &Result{StudentID: student.ID, SubjectID: subject.ID, LessonID: lesson.ID, Score: 10, Total: 10}))

	summary, err = store.GetAnalyticsSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.StudentCount)
	assert.Equal(t, 1, summary.SubjectCount)
	assert.Equal(t, 1, summary.LessonCount)
	assert.Equal(t, 2, summary.AttemptCount)
	assert.InDelta(t, 75.0, summary.AverageScorePct, 0.01)
}
