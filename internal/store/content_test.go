// ABOUTME: Tests for subject, lesson, and practice question store operations
// ABOUTME: Covers CRUD, ordering, duplicate names, and cascade deletes

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSubject(t *testing.T, s *SQLiteStore, name string) *Subject {
	t.Helper()

	subject := &Subject{
		Name:        name,
		Description: "A test subject",
		Grade:       "SS1",
	}
	require.NoError(t, s.CreateSubject(context.Background(), subject))
	return subject
}

func TestSubject_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	subject := createTestSubject(t, store, "Mathematics")
	assert.NotEmpty(t, subject.ID, "ID should be generated")

	got, err := store.GetSubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", got.Name)
	assert.Equal(t, "SS1", got.Grade)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSubject_DuplicateName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	createTestSubject(t, store, "Physics")
	err := store.CreateSubject(ctx, &Subject{Name: "Physics"})
	assert.ErrorIs(t, err, ErrDuplicateSubject)
}

func TestSubject_ListSortedByName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	createTestSubject(t, store, "Chemistry")
	createTestSubject(t, store, "Biology")
	createTestSubject(t, store, "Algebra")

	subjects, err := store.ListSubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 3)
	assert.Equal(t, "Algebra", subjects[0].Name)
	assert.Equal(t, "Chemistry", subjects[2].Name)
}

func TestSubject_UpdateAndDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	subject := createTestSubject(t, store, "History")
	subject.Description = "Updated description"
	require.NoError(t, store.UpdateSubject(ctx, subject))

	got, err := store.GetSubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated description", got.Description)

	require.NoError(t, store.DeleteSubject(ctx, subject.ID))
	_, err = store.GetSubject(ctx, subject.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.DeleteSubject(ctx, subject.ID), ErrNotFound)
}

func TestLesson_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	subject := createTestSubject(t, store, "Mathematics")

	lesson := &Lesson{
		SubjectID:           subject.ID,
		Title:               "Quadratic Equations",
		Content:             "# Quadratics\n\nax^2 + bx + c = 0",
		OrderNum:            1,
		EvaluationQuestions: `[{"question":"Solve x^2=4","answer":"2"}]`,
	}
	require.NoError(t, store.CreateLesson(ctx, lesson))
	assert.NotEmpty(t, lesson.ID)

	got, err := store.GetLesson(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, lesson.Title, got.Title)
	assert.Equal(t, lesson.Content, got.Content)
	assert.Equal(t, lesson.EvaluationQuestions, got.EvaluationQuestions)
}

func TestLesson_ListOrderedByOrderNum(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	subject := createTestSubject(t, store, "Mathematics")

	for i, title := range []string{"Third", "First", "Second"} {
		order := []int{3, 1, 2}[i]
		require.NoError(t, store.CreateLesson(ctx, &Lesson{
			SubjectID: subject.ID,
			Title:     title,
			OrderNum:  order,
		}))
	}

	lessons, err := store.ListLessonsBySubject(ctx, subject.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	assert.Equal(t, "First", lessons[0].Title)
	assert.Equal(t, "Second", lessons[1].Title)
	assert.Equal(t, "Third", lessons[2].Title)
}

func TestLesson_DeletedWithSubject(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	subject := createTestSubject(t, store, "Mathematics")
	lesson := &Lesson{SubjectID: subject.ID, Title: "Orphan check"}
	require.NoError(t, store.CreateLesson(ctx, lesson))

	require.NoError(t, store.DeleteSubject(ctx, subject.ID))

	_, err := store.GetLesson(ctx, lesson.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLesson_Update(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	subject := createTestSubject(t, store, "Mathematics")
	lesson := &Lesson{SubjectID: subject.ID, Title: "Draft"}
	require.NoError(t, store.CreateLesson(ctx, lesson))

	lesson.Title = "Published"
	lesson.Content = "Final content"
	require.NoError(t, store.UpdateLesson(ctx, lesson))

	got, err := store.GetLesson(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, "Published", got.Title)
	assert.Equal(t, "Final content", got.Content)
}

func TestPracticeQuestion_CRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	subject := createTestSubject(t, store, "Mathematics")

	q := &PracticeQuestion{
		SubjectID:     subject.ID,
		Question:      "What is 2+2?",
		Options:       `["3","4","5"]`,
		CorrectAnswer: "4",
		Explanation:   "Basic addition",
		Difficulty:    DifficultyEasy,
		Topic:         "arithmetic",
	}
	require.NoError(t, store.CreatePracticeQuestion(ctx, q))
	assert.NotEmpty(t, q.ID)

	got, err := store.GetPracticeQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.Question, got.Question)
	assert.Equal(t, DifficultyEasy, got.Difficulty)

	q.Difficulty = DifficultyHard
	require.NoError(t, store.UpdatePracticeQuestion(ctx, q))
	got, err = store.GetPracticeQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, got.Difficulty)

	require.NoError(t, store.DeletePracticeQuestion(ctx, q.ID))
	_, err = store.GetPracticeQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPracticeQuestion_FilterBySubject(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	math := createTestSubject(t, store, "Mathematics")
	physics := createTestSubject(t, store, "Physics")

	for i := range 2 {
		require.NoError(t, store.CreatePracticeQuestion(ctx, &PracticeQuestion{
			SubjectID:     math.ID,
			Question:      generateTestID("math-q", i),
			Options:       `["a","b"]`,
			CorrectAnswer: "a",
			CreatedAt:     time.Now().Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, store.CreatePracticeQuestion(ctx, &PracticeQuestion{
		SubjectID:     physics.ID,
		Question:      "physics question",
		Options:       `["a","b"]`,
		CorrectAnswer: "b",
	}))

	mathQs, err := store.ListPracticeQuestions(ctx, math.ID)
	require.NoError(t, err)
	assert.Len(t, mathQs, 2)

	all, err := store.ListPracticeQuestions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
