// ABOUTME: Student-facing JSON API handlers and bearer-token middleware
// ABOUTME: Enrollment, catalog browsing, results and progress recording

package studentapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CodeGallantX/quanta/internal/auth"
	"github.com/CodeGallantX/quanta/internal/store"
)

// DefaultTokenDuration is used when no token duration is configured.
const DefaultTokenDuration = 24 * time.Hour

// API handles student-facing JSON routes
type API struct {
	store    store.Store
	tokens   *auth.JWTVerifier
	tokenTTL time.Duration
	logger   *slog.Logger
}

// New creates a new student API handler
func New(contentStore store.Store, tokens *auth.JWTVerifier, tokenTTL time.Duration) *API {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenDuration
	}
	return &API{
		store:    contentStore,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   slog.Default().With("component", "studentapi"),
	}
}

// RegisterRoutes registers student API routes on the given mux
func (api *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/enroll", api.handleEnroll)
	mux.HandleFunc("POST /api/token", api.handleToken)

	mux.HandleFunc("GET /api/subjects", api.requireStudent(api.handleListSubjects))
	mux.HandleFunc("GET /api/subjects/{id}/lessons", api.requireStudent(api.handleListLessons))
	mux.HandleFunc("GET /api/lessons/{id}", api.requireStudent(api.handleGetLesson))
	mux.HandleFunc("GET /api/subjects/{id}/questions", api.requireStudent(api.handleListQuestions))
	mux.HandleFunc("POST /api/results", api.requireStudent(api.handleSaveResult))
	mux.HandleFunc("POST /api/progress", api.requireStudent(api.handleSaveProgress))
	mux.HandleFunc("GET /api/me", api.requireStudent(api.handleMe))
}

// requireStudent validates the Bearer token and loads the student into context
func (api *API) requireStudent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		studentID, err := api.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				writeError(w, http.StatusUnauthorized, "token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		student, err := api.store.GetStudent(r.Context(), studentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unknown student")
				return
			}
			api.logger.Error("failed to load student", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		next(w, r.WithContext(auth.WithStudent(r.Context(), student)))
	}
}

type enrollRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Class    string `json:"class"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	StudentID string    `json:"student_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleEnroll creates a student account and issues a token
func (api *API) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || !strings.Contains(req.Email, "@") || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "email and full_name are required")
		return
	}

	student := &store.Student{
		ID:        uuid.New().String(),
		Email:     req.Email,
		FullName:  req.FullName,
		Class:     strings.TrimSpace(req.Class),
		CreatedAt: time.Now(),
	}

	if err := api.store.CreateStudent(r.Context(), student); err != nil {
		if errors.Is(err, store.ErrStudentEmailExists) {
			writeError(w, http.StatusConflict, "email already enrolled")
			return
		}
		api.logger.Error("failed to create student", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	api.logger.Info("student enrolled", "email", req.Email, "id", student.ID)
	api.issueToken(w, student.ID, http.StatusCreated)
}

// handleToken re-issues a token for an enrolled student by email
func (api *API) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	student, err := api.store.GetStudentByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not enrolled")
			return
		}
		api.logger.Error("failed to look up student", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	api.issueToken(w, student.ID, http.StatusOK)
}

func (api *API) issueToken(w http.ResponseWriter, studentID string, status int) {
	token, err := api.tokens.Generate(studentID, api.tokenTTL)
	if err != nil {
		api.logger.Error("failed to generate token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, status, tokenResponse{
		Token:     token,
		StudentID: studentID,
		ExpiresAt: time.Now().Add(api.tokenTTL),
	})
}

type subjectResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Grade        string `json:"grade,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

func (api *API) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := api.store.ListSubjects(r.Context())
	if err != nil {
		api.logger.Error("failed to list subjects", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]subjectResponse, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, subjectResponse{
			ID:           s.ID,
			Name:         s.Name,
			Description:  s.Description,
			Grade:        s.Grade,
			ThumbnailURL: s.ThumbnailURL,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type lessonSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Preview      string `json:"preview,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	OrderNum     int    `json:"order_num"`
}

func (api *API) handleListLessons(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")
	if _, err := api.store.GetSubject(r.Context(), subjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "subject not found")
			return
		}
		api.logger.Error("failed to load subject", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	lessons, err := api.store.ListLessonsBySubject(r.Context(), subjectID)
	if err != nil {
		api.logger.Error("failed to list lessons", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]lessonSummary, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, lessonSummary{
			ID:           l.ID,
			Title:        l.Title,
			Preview:      l.Preview,
			ThumbnailURL: l.ThumbnailURL,
			OrderNum:     l.OrderNum,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type lessonResponse struct {
	ID                  string          `json:"id"`
	SubjectID           string          `json:"subject_id"`
	Title               string          `json:"title"`
	Content             string          `json:"content"`
	OrderNum            int             `json:"order_num"`
	EvaluationQuestions json.RawMessage `json:"evaluation_questions,omitempty"`
}

func (api *API) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	lesson, err := api.store.GetLesson(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lesson not found")
			return
		}
		api.logger.Error("failed to load lesson", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := lessonResponse{
		ID:        lesson.ID,
		SubjectID: lesson.SubjectID,
		Title:     lesson.Title,
		Content:   lesson.Content,
		OrderNum:  lesson.OrderNum,
	}
	if lesson.EvaluationQuestions != "" {
		resp.EvaluationQuestions = json.RawMessage(lesson.EvaluationQuestions)
	}
	writeJSON(w, http.StatusOK, resp)
}

type questionResponse struct {
	ID         string          `json:"id"`
	Question   string          `json:"question"`
	Options    json.RawMessage `json:"options"`
	Difficulty string          `json:"difficulty"`
	Topic      string          `json:"topic,omitempty"`
}

// handleListQuestions serves practice questions without the answer key
func (api *API) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := api.store.ListPracticeQuestions(r.Context(), r.PathValue("id"))
	if err != nil {
		api.logger.Error("failed to list questions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, questionResponse{
			ID:         q.ID,
			Question:   q.Question,
			Options:    json.RawMessage(q.Options),
			Difficulty: q.Difficulty,
			Topic:      q.Topic,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type resultRequest struct {
	SubjectID string `json:"subject_id"`
	LessonID  string `json:"lesson_id"`
	Score     int    `json:"score"`
	Total     int    `json:"total"`
}

func (api *API) handleSaveResult(w http.ResponseWriter, r *http.Request) {
	student := auth.StudentFromContext(r.Context())

	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.LessonID == "" || req.Total <= 0 || req.Score < 0 || req.Score > req.Total {
		writeError(w, http.StatusBadRequest, "invalid result payload")
		return
	}

	result := &store.Result{
		ID:          uuid.New().String(),
		StudentID:   student.ID,
		SubjectID:   req.SubjectID,
		LessonID:    req.LessonID,
		Score:       req.Score,
		Total:       req.Total,
		AttemptDate: time.Now(),
	}

	if err := api.store.SaveResult(r.Context(), result); err != nil {
		api.logger.Error("failed to save result", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": result.ID})
}

type progressRequest struct {
	LessonID string `json:"lesson_id"`
	Score    *int   `json:"score,omitempty"`
}

func (api *API) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	student := auth.StudentFromContext(r.Context())

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.LessonID == "" {
		writeError(w, http.StatusBadRequest, "lesson_id is required")
		return
	}

	entry := &store.ProgressEntry{
		ID:          uuid.New().String(),
		StudentID:   student.ID,
		LessonID:    req.LessonID,
		Score:       req.Score,
		CompletedAt: time.Now(),
	}

	if err := api.store.SaveProgress(r.Context(), entry); err != nil {
		api.logger.Error("failed to save progress", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	FullName string            `json:"full_name"`
	Class    string            `json:"class,omitempty"`
	Results  []resultSummary   `json:"results,omitempty"`
	Progress []progressSummary `json:"progress,omitempty"`
}

type resultSummary struct {
	SubjectID   string    `json:"subject_id,omitempty"`
	LessonID    string    `json:"lesson_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	AttemptDate time.Time `json:"attempt_date"`
}

type progressSummary struct {
	LessonID    string    `json:"lesson_id"`
	Score       *int      `json:"score,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// handleMe returns the student's profile with recent results and progress
func (api *API) handleMe(w http.ResponseWriter, r *http.Request) {
	student := auth.StudentFromContext(r.Context())

	results, err := api.store.ListResultsByStudent(r.Context(), student.ID, 20)
	if err != nil {
		api.logger.Error("failed to list results", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	progress, err := api.store.ListProgressByStudent(r.Context(), student.ID)
	if err != nil {
		api.logger.Error("failed to list progress", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := meResponse{
		ID:       student.ID,
		Email:    student.Email,
		FullName: student.FullName,
		Class:    student.Class,
	}
	for _, res := range results {
		resp.Results = append(resp.Results, resultSummary{
			SubjectID:   res.SubjectID,
			LessonID:    res.LessonID,
			Score:       res.Score,
			Total:       res.Total,
			AttemptDate: res.AttemptDate,
		})
	}
	for _, p := range progress {
		resp.Progress = append(resp.Progress, progressSummary{
			LessonID:    p.LessonID,
			Score:       p.Score,
			CompletedAt: p.CompletedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
