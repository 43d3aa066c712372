// ABOUTME: Admin UI handlers for content management and analytics
// ABOUTME: Covers subjects, lessons, practice questions, students, and stats

package webadmin

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/CodeGallantX/quanta/internal/store"
)

var lessonMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

var lessonSanitizer = bluemonday.UGCPolicy()

// renderLessonContent converts lesson markdown to sanitized HTML for preview
func renderLessonContent(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := lessonMarkdown.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return template.HTML(lessonSanitizer.SanitizeBytes(buf.Bytes())), nil
}

// handleDashboard renders the admin dashboard with summary stats
func (a *Admin) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/admin/" && r.URL.Path != "/admin" {
		http.NotFound(w, r)
		return
	}

	r, csrfToken := a.ensureCSRFToken(w, r)
	user := getUserFromContext(r)

	summary, err := a.store.GetAnalyticsSummary(r.Context())
	if err != nil {
		a.logger.Error("failed to load analytics summary", "error", err)
		summary = &store.AnalyticsSummary{}
	}

	recent, err := a.store.ListRecentResults(r.Context(), 10)
	if err != nil {
		a.logger.Error("failed to load recent results", "error", err)
	}

	a.renderDashboard(w, dashboardData{
		User:      user,
		CSRFToken: csrfToken,
		Summary:   summary,
		Recent:    recent,
	})
}

// handleSubjectsPage lists all subjects
func (a *Admin) handleSubjectsPage(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := a.ensureCSRFToken(w, r)
	user := getUserFromContext(r)

	subjects, err := a.store.ListSubjects(r.Context())
	if err != nil {
		a.logger.Error("failed to list subjects", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	a.renderSubjects(w, subjectsData{
		User:      user,
		CSRFToken: csrfToken,
		Subjects:  subjects,
		Error:     r.URL.Query().Get("error"),
	})
}

// handleSubjectCreate creates a new subject from form data
func (a *Admin) handleSubjectCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !a.validateCSRF(r) {
		http.Redirect(w, r, "/admin/subjects?error=Invalid+request", http.StatusSeeOther)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Redirect(w, r, "/admin/subjects?error=Name+is+required", http.StatusSeeOther)
		return
	}

	subject := &store.Subject{
		Name:         name,
		Description:  strings.TrimSpace(r.FormValue("description")),
		Grade:        strings.TrimSpace(r.FormValue("grade")),
		ThumbnailURL: strings.TrimSpace(r.FormValue("thumbnail_url")),
	}

	if err := a.store.CreateSubject(r.Context(), subject); err != nil {
		if errors.Is(err, store.ErrDuplicateSubject) {
			http.Redirect(w, r, "/admin/subjects?error=Subject+already+exists", http.StatusSeeOther)
			return
		}
		a.logger.Error("failed to create subject", "error", err)
		http.Redirect(w, r, "/admin/subjects?error=Internal+error", http.StatusSeeOther)
		return
	}

	a.logger.Info("subject created", "name", name, "id", subject.ID)
	http.Redirect(w, r, "/admin/subjects", http.StatusSeeOther)
}

// handleSubjectDelete deletes a subject and its lessons
func (a *Admin) handleSubjectDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !a.validateCSRF(r) {
		http.Redirect(w, r, "/admin/subjects?error=Invalid+request", http.StatusSeeOther)
		return
	}

	id := r.PathValue("id")
	if err := a.store.DeleteSubject(r.Context(), id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Error("failed to delete subject", "error", err, "id", id)
		}
		http.Redirect(w, r, "/admin/subjects?error=Delete+failed", http.StatusSeeOther)
		return
	}

	a.logger.Info("subject deleted", "id", id)
	http.Redirect(w, r, "/admin/subjects", http.StatusSeeOther)
}

// handleLessonsPage lists lessons for a subject
func (a *Admin) handleLessonsPage(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := a.ensureCSRFToken(w, r)
	user := getUserFromContext(r)

	subjectID := r.PathValue("id")
	subject, err := a.store.GetSubject(r.Context(), subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		a.logger.Error("failed to load subject", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	lessons, err := a.store.ListLessonsBySubject(r.Context(), subjectID)
	if err != nil {
		a.logger.Error("failed to list lessons", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	a.renderLessons(w, lessonsData{
		User:      user,
		CSRFToken: csrfToken,
		Subject:   subject,
		Lessons:   lessons,
		Error:     r.URL.Query().Get("error"),
	})
}

// handleLessonCreate creates a new lesson under a subject
func (a *Admin) handleLessonCreate(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")
	redirect := "/admin/subjects/" + subjectID + "/lessons"

	if err := r.ParseForm(); err != nil || !a.validateCSRF(r) {
		http.Redirect(w, r, redirect+"?error=Invalid+request", http.StatusSeeOther)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		http.Redirect(w, r, redirect+"?error=Title+is+required", http.StatusSeeOther)
		return
	}

	questions := strings.TrimSpace(r.FormValue("evaluation_questions"))
	if questions != "" && !json.Valid([]byte(questions)) {
		http.Redirect(w, r, redirect+"?error=Evaluation+questions+must+be+valid+JSON", http.StatusSeeOther)
		return
	}

	orderNum, _ := strconv.Atoi(r.FormValue("order_num"))

	lesson := &store.Lesson{
		SubjectID:           subjectID,
		Title:               title,
		Content:             r.FormValue("content"),
		Preview:             strings.TrimSpace(r.FormValue("preview")),
		ThumbnailURL:        strings.TrimSpace(r.FormValue("thumbnail_url")),
		OrderNum:            orderNum,
		EvaluationQuestions: questions,
	}

	if err := a.store.CreateLesson(r.Context(), lesson); err != nil {
		a.logger.Error("failed to create lesson", "error", err)
		http.Redirect(w, r, redirect+"?error=Internal+error", http.StatusSeeOther)
		return
	}

	a.logger.Info("lesson created", "title", title, "subject_id", subjectID)
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// handleLessonDetail renders a lesson edit form with a rendered preview
func (a *Admin) handleLessonDetail(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := a.ensureCSRFToken(w, r)
	user := getUserFromContext(r)

	lesson, err := a.store.GetLesson(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		a.logger.Error("failed to load lesson", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	preview, err := renderLessonContent(lesson.Content)
	if err != nil {
		a.logger.Warn("failed to render lesson preview", "error", err, "lesson_id", lesson.ID)
	}

	a.renderLessonDetail(w, lessonDetailData{
		User:      user,
		CSRFToken: csrfToken,
		Lesson:    lesson,
		Preview:   preview,
		Error:     r.URL.Query().Get("error"),
	})
}

// handleLessonUpdate updates a lesson from form data
func (a *Admin) handleLessonUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	redirect := "/admin/lessons/" + id

	if err := r.ParseForm(); err != nil || !a.validateCSRF(r) {
		http.Redirect(w, r, redirect+"?error=Invalid+request", http.StatusSeeOther)
		return
	}

	lesson, err := a.store.GetLesson(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		a.logger.Error("failed to load lesson", "error", err)
		http.Redirect(w, r, redirect+"?error=Internal+error", http.StatusSeeOther)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		http.Redirect(w, r, redirect+"?error=Title+is+required", http.StatusSeeOther)
		return
	}

	questions := strings.TrimSpace(r.FormValue("evaluation_questions"))
	if questions != "" && !json.Valid([]byte(questions)) {
		http.Redirect(w, r, redirect+"?error=Evaluation+questions+must+be+valid+JSON", http.StatusSeeOther)
		return
	}

	lesson.Title = title
	lesson.Content = r.FormValue("content")
	lesson.Preview = strings.TrimSpace(r.FormValue("preview"))
	lesson.ThumbnailURL = strings.TrimSpace(r.FormValue("thumbnail_url"))
	lesson.EvaluationQuestions = questions
	if v := r.FormValue("order_num"); v != "" {
		lesson.OrderNum, _ = strconv.Atoi(v)
	}

	if err := a.store.UpdateLesson(r.Context(), lesson); err != nil {
		a.logger.Error("failed to update lesson", "error", err, "id", id)
		http.Redirect(w, r, redirect+"?error=Internal+error", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// handleLessonDelete deletes a lesson
func (a *Admin) handleLessonDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !a.validateCSRF(r) {
		http.Redirect(w, r, "/admin/subjects?error=Invalid+request", http.StatusSeeOther)
		return
	}

	id := r.PathValue("id")
	lesson, err := a.store.GetLesson(r.Context(), id)
	if err != nil {
		http.Redirect(w, r, "/admin/subjects", http.StatusSeeOther)
		return
	}

	if err := a.store.DeleteLesson(r.Context(), id); err != nil {
		a.logger.Error("failed to delete lesson", "error", err, "id", id)
	} else {
		a.logger.Info("lesson deleted", "id", id)
	}

	http.Redirect(w, r, "/admin/subjects/"+lesson.SubjectID+"/lessons", http.StatusSeeOther)
}

// handleQuestionsPage lists practice questions, optionally filtered by subject
func (a *Admin) handleQuestionsPage(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := a.ensureCSRFToken(w, r)
	user := getUserFromContext(r)

	subjectID := r.URL.Query().Get("subject")

	subjects, err := a.store.ListSubjects(r.Context())
	if err != nil {
		a.logger.Error("failed to list subjects", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	questions, err := a.store.ListPracticeQuestions(r.Context(), subjectID)
	if err != nil {
		a.logger.Error("failed to list practice questions", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	a.renderQuestions(w, questionsData{
		User:          user,
		CSRFToken:     csrfToken,
		Subjects:      subjects,
		Questions:     questions,
		FilterSubject: subjectID,
		Error:         r.URL.Query().Get("error"),
	})
}

// handleQuestionCreate creates a practice question from form data
func (a *Admin) handleQuestionCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !a.validateCSRF(r) {
		http.Redirect(w, r, "/admin/questions?error=Invalid+request", http.StatusSeeOther)
		return
	}

	subjectID := r.FormValue("subject_id")
	questionText := strings.TrimSpace(r.FormValue("question"))
	correct := strings.TrimSpace(r.FormValue("correct_answer"))
	options := make([]string, 0, 4)
	for _, key := range []string{"option_a", "option_b", "option_c", "option_d"} {
		if v := strings.TrimSpace(r.FormValue(key)); v != "" {
			options = append(options, v)
		}
	}

	switch {
	case subjectID == "" || questionText == "" || correct == "":
		http.Redirect(w, r, "/admin/questions?error=All+fields+are+required", http.StatusSeeOther)
		return
	case len(options) < 2:
		http.Redirect(w, r, "/admin/questions?error=At+least+two+options+required", http.StatusSeeOther)
		return
	}

	difficulty := r.FormValue("difficulty")
	switch difficulty {
	case store.DifficultyEasy, store.DifficultyMedium, store.DifficultyHard:
	default:
		difficulty = store.DifficultyMedium
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		http.Redirect(w, r, "/admin/questions?error=Invalid+options", http.StatusSeeOther)
		return
	}

	question := &store.PracticeQuestion{
		SubjectID:     subjectID,
		Question:      questionText,
		Options:       string(optionsJSON),
		CorrectAnswer: correct,
		Explanation:   strings.TrimSpace(r.FormValue("explanation")),
		Difficulty:    difficulty,
		Topic:         strings.TrimSpace(r.FormValue("topic")),
	}

	if err := a.store.CreatePracticeQuestion(r.Context(), question); err != nil {
		a.logger.Error("failed to create practice question", "error", err)
		http.Redirect(w, r, "/admin/questions?error=Internal+error", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin/questions?subject="+subjectID, http.StatusSeeOther)
}

// handleQuestionDelete deletes a practice question
func (a *Admin) handleQuestionDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !a.validateCSRF(r) {
		http.Redirect(w, r, "/admin/questions?error=Invalid+request", http.StatusSeeOther)
		return
	}

	id := r.PathValue("id")
	if err := a.store.DeletePracticeQuestion(r.Context(), id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Error("failed to delete practice question", "error", err, "id", id)
		}
	}

	http.Redirect(w, r, "/admin/questions", http.StatusSeeOther)
}

// handleStudentsPage lists enrolled students with their progress
func (a *Admin) handleStudentsPage(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := a.ensureCSRFToken(w, r)
	user := getUserFromContext(r)

	students, err := a.store.ListStudents(r.Context())
	if err != nil {
		a.logger.Error("failed to list students", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	a.renderStudents(w, studentsData{
		User:      user,
		CSRFToken: csrfToken,
		Students:  students,
	})
}

// handleAnalyticsPage renders platform-wide analytics
func (a *Admin) handleAnalyticsPage(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := a.ensureCSRFToken(w, r)
	user := getUserFromContext(r)

	summary, err := a.store.GetAnalyticsSummary(r.Context())
	if err != nil {
		a.logger.Error("failed to load analytics summary", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	recent, err := a.store.ListRecentResults(r.Context(), 25)
	if err != nil {
		a.logger.Error("failed to load recent results", "error", err)
	}

	a.renderAnalytics(w, analyticsData{
		User:      user,
		CSRFToken: csrfToken,
		Summary:   summary,
		Recent:    recent,
	})
}
