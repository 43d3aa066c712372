// ABOUTME: Tests for the student JSON API and bearer-token middleware
// ABOUTME: Uses the in-memory mock store and httptest, no SQLite or network

package studentapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/CodeGallantX/quanta/internal/auth"
	"github.com/CodeGallantX/quanta/internal/store"
)

var apiTestSecret = []byte("studentapi-test-secret-0123456789abcdef")

func newTestAPI(t *testing.T) (*store.MockStore, *http.ServeMux, *auth.JWTVerifier) {
	t.Helper()
	mock := store.NewMockStore()
	tokens := auth.NewJWTVerifier(apiTestSecret)
	mux := http.NewServeMux()
	New(mock, tokens, time.Hour).RegisterRoutes(mux)
	return mock, mux, tokens
}

func enrollStudent(t *testing.T, mock *store.MockStore) *store.Student {
	t.Helper()
	student := &store.Student{
		ID:        uuid.New().String(),
		Email:     "student@school.edu",
		FullName:  "Sam Student",
		Class:     "SS2",
		CreatedAt: time.Now(),
	}
	if err := mock.CreateStudent(t.Context(), student); err != nil {
		t.Fatalf("seeding student: %v", err)
	}
	return student
}

func doJSON(mux *http.ServeMux, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestEnroll(t *testing.T) {
	mock, mux, tokens := newTestAPI(t)

	rec := doJSON(mux, "POST", "/api/enroll", "", `{"email":"New@School.EDU","full_name":"New Student","class":"SS1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[map[string]any](t, rec)
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatal("enrollment should issue a token")
	}

	// Email is normalized to lower case
	student, err := mock.GetStudentByEmail(t.Context(), "new@school.edu")
	if err != nil {
		t.Fatalf("student not created: %v", err)
	}

	// The issued token identifies the new student
	id, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if id != student.ID {
		t.Errorf("token subject = %q, want %q", id, student.ID)
	}
}

func TestEnroll_Validation(t *testing.T) {
	_, mux, _ := newTestAPI(t)

	bodies := []string{
		`not json`,
		`{"email":"","full_name":"X"}`,
		`{"email":"no-at-sign","full_name":"X"}`,
		`{"email":"a@b.c","full_name":""}`,
	}
	for _, body := range bodies {
		rec := doJSON(mux, "POST", "/api/enroll", "", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestEnroll_DuplicateEmail(t *testing.T) {
	mock, mux, _ := newTestAPI(t)
	enrollStudent(t, mock)

	rec := doJSON(mux, "POST", "/api/enroll", "", `{"email":"student@school.edu","full_name":"Copy"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestToken_ReissuesByEmail(t *testing.T) {
	mock, mux, tokens := newTestAPI(t)
	student := enrollStudent(t, mock)

	rec := doJSON(mux, "POST", "/api/token", "", `{"email":"Student@School.edu"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[map[string]any](t, rec)
	id, err := tokens.Verify(resp["token"].(string))
	if err != nil {
		t.Fatalf("reissued token does not verify: %v", err)
	}
	if id != student.ID {
		t.Errorf("token subject = %q, want %q", id, student.ID)
	}
}

func TestToken_UnknownEmail(t *testing.T) {
	_, mux, _ := newTestAPI(t)

	rec := doJSON(mux, "POST", "/api/token", "", `{"email":"nobody@school.edu"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRequireStudent(t *testing.T) {
	mock, mux, tokens := newTestAPI(t)
	student := enrollStudent(t, mock)

	t.Run("missing token", func(t *testing.T) {
		rec := doJSON(mux, "GET", "/api/subjects", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := doJSON(mux, "GET", "/api/subjects", "not-a-jwt", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := tokens.Generate(student.ID, -time.Minute)
		if err != nil {
			t.Fatalf("generating token: %v", err)
		}
		rec := doJSON(mux, "GET", "/api/subjects", expired, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "expired") {
			t.Errorf("body should say the token expired, got %s", rec.Body.String())
		}
	})

	t.Run("token for deleted student", func(t *testing.T) {
		tok, err := tokens.Generate("no-such-student", time.Hour)
		if err != nil {
			t.Fatalf("generating token: %v", err)
		}
		rec := doJSON(mux, "GET", "/api/subjects", tok, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		tok, err := tokens.Generate(student.ID, time.Hour)
		if err != nil {
			t.Fatalf("generating token: %v", err)
		}
		rec := doJSON(mux, "GET", "/api/subjects", tok, "")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestListQuestions_OmitsAnswerKey(t *testing.T) {
	mock, mux, tokens := newTestAPI(t)
	student := enrollStudent(t, mock)

	subject := &store.Subject{Name: "Mathematics"}
	if err := mock.CreateSubject(t.Context(), subject); err != nil {
		t.Fatalf("seeding subject: %v", err)
	}
	q := &store.PracticeQuestion{
		SubjectID:     subject.ID,
		Question:      "What is 2 + 2?",
		Options:       `["2","3","4","5"]`,
		CorrectAnswer: "4",
		Explanation:   "Basic addition",
		Difficulty:    store.DifficultyEasy,
		CreatedAt:     time.Now(),
	}
	if err := mock.CreatePracticeQuestion(t.Context(), q); err != nil {
		t.Fatalf("seeding question: %v", err)
	}

	tok, err := tokens.Generate(student.ID, time.Hour)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	rec := doJSON(mux, "GET", "/api/subjects/"+subject.ID+"/questions", tok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "correct_answer") || strings.Contains(body, "Basic addition") {
		t.Errorf("answer key leaked to students: %s", body)
	}
	if !strings.Contains(body, "What is 2 + 2?") {
		t.Errorf("question text missing: %s", body)
	}
}

func TestGetLesson(t *testing.T) {
	mock, mux, tokens := newTestAPI(t)
	student := enrollStudent(t, mock)

	subject := &store.Subject{Name: "Physics"}
	if err := mock.CreateSubject(t.Context(), subject); err != nil {
		t.Fatalf("seeding subject: %v", err)
	}
	lesson := &store.Lesson{
		SubjectID:           subject.ID,
		Title:               "Motion",
		Content:             "# Motion\n\nBodies in motion stay in motion.",
		OrderNum:            1,
		EvaluationQuestions: `[{"q":"Define velocity"}]`,
	}
	if err := mock.CreateLesson(t.Context(), lesson); err != nil {
		t.Fatalf("seeding lesson: %v", err)
	}

	tok, err := tokens.Generate(student.ID, time.Hour)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	rec := doJSON(mux, "GET", "/api/lessons/"+lesson.ID, tok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	resp := decodeBody[map[string]any](t, rec)
	if resp["title"] != "Motion" {
		t.Errorf("title = %v", resp["title"])
	}
	if _, ok := resp["evaluation_questions"].([]any); !ok {
		t.Errorf("evaluation_questions should pass through as JSON, got %T", resp["evaluation_questions"])
	}

	rec = doJSON(mux, "GET", "/api/lessons/missing", tok, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing lesson = %d, want 404", rec.Code)
	}
}

func TestSaveResult(t *testing.T) {
	mock, mux, tokens := newTestAPI(t)
	student := enrollStudent(t, mock)
	tok, err := tokens.Generate(student.ID, time.Hour)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	rec := doJSON(mux, "POST", "/api/results", tok, `{"subject_id":"s1","lesson_id":"l1","score":7,"total":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	results, err := mock.ListResultsByStudent(t.Context(), student.ID, 0)
	if err != nil {
		t.Fatalf("listing results: %v", err)
	}
	if len(results) != 1 || results[0].Score != 7 || results[0].Total != 10 {
		t.Errorf("stored results = %+v", results)
	}

	// Invalid payloads
	bad := []string{
		`{"lesson_id":"","score":1,"total":2}`,
		`{"lesson_id":"l1","score":1,"total":0}`,
		`{"lesson_id":"l1","score":-1,"total":10}`,
		`{"lesson_id":"l1","score":11,"total":10}`,
	}
	for _, body := range bad {
		rec := doJSON(mux, "POST", "/api/results", tok, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestSaveProgressAndMe(t *testing.T) {
	mock, mux, tokens := newTestAPI(t)
	student := enrollStudent(t, mock)
	tok, err := tokens.Generate(student.ID, time.Hour)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	rec := doJSON(mux, "POST", "/api/progress", tok, `{"lesson_id":"l1","score":80}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("progress status = %d, want 204", rec.Code)
	}

	rec = doJSON(mux, "POST", "/api/results", tok, `{"lesson_id":"l1","score":8,"total":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("result status = %d, want 201", rec.Code)
	}

	rec = doJSON(mux, "GET", "/api/me", tok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, want 200", rec.Code)
	}

	resp := decodeBody[map[string]any](t, rec)
	if resp["email"] != student.Email {
		t.Errorf("email = %v", resp["email"])
	}
	if progress, ok := resp["progress"].([]any); !ok || len(progress) != 1 {
		t.Errorf("progress = %v", resp["progress"])
	}
	if results, ok := resp["results"].([]any); !ok || len(results) != 1 {
		t.Errorf("results = %v", resp["results"])
	}

	// Record the same lesson again; progress keeps one entry per lesson
	rec = doJSON(mux, "POST", "/api/progress", tok, `{"lesson_id":"l1","score":95}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("second progress status = %d", rec.Code)
	}
	entries, err := mock.ListProgressByStudent(t.Context(), student.ID)
	if err != nil {
		t.Fatalf("listing progress: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("progress entries = %d, want 1", len(entries))
	}
	if entries[0].Score == nil || *entries[0].Score != 95 {
		t.Errorf("progress score = %v, want 95", entries[0].Score)
	}
}
