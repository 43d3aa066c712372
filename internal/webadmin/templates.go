// ABOUTME: Template rendering functions for admin UI
// ABOUTME: Loads templates from embedded filesystem and renders them

package webadmin

import (
	"html/template"
	"net/http"

	"github.com/CodeGallantX/quanta/internal/store"
)

// Template data types
type loginData struct {
	Title     string
	User      *store.AdminUser // always nil, keeps base template happy
	Error     string
	CSRFToken string
}

type signupData struct {
	Title     string
	User      *store.AdminUser
	Error     string
	CSRFToken string
}

type dashboardData struct {
	Title     string
	User      *store.AdminUser
	CSRFToken string
	Summary   *store.AnalyticsSummary
	Recent    []*store.Result
}

type subjectsData struct {
	Title     string
	User      *store.AdminUser
	CSRFToken string
	Subjects  []*store.Subject
	Error     string
}

type lessonsData struct {
	Title     string
	User      *store.AdminUser
	CSRFToken string
	Subject   *store.Subject
	Lessons   []*store.Lesson
	Error     string
}

type lessonDetailData struct {
	Title     string
	User      *store.AdminUser
	CSRFToken string
	Lesson    *store.Lesson
	Preview   template.HTML
	Error     string
}

type questionsData struct {
	Title         string
	User          *store.AdminUser
	CSRFToken     string
	Subjects      []*store.Subject
	Questions     []*store.PracticeQuestion
	FilterSubject string
	Error         string
}

type studentsData struct {
	Title     string
	User      *store.AdminUser
	CSRFToken string
	Students  []*store.Student
}

type analyticsData struct {
	Title     string
	User      *store.AdminUser
	CSRFToken string
	Summary   *store.AnalyticsSummary
	Recent    []*store.Result
}

func (a *Admin) render(w http.ResponseWriter, page string, data any) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+page))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render page", "page", page, "error", err)
	}
}

// renderLoginPage renders the login page
func (a *Admin) renderLoginPage(w http.ResponseWriter, errorMsg, csrfToken string) {
	a.render(w, "login.html", loginData{
		Title:     "Login",
		Error:     errorMsg,
		CSRFToken: csrfToken,
	})
}

// renderSignupPage renders the signup page
func (a *Admin) renderSignupPage(w http.ResponseWriter, errorMsg, csrfToken string) {
	a.render(w, "signup.html", signupData{
		Title:     "Create Account",
		Error:     errorMsg,
		CSRFToken: csrfToken,
	})
}

// renderDashboard renders the main dashboard
func (a *Admin) renderDashboard(w http.ResponseWriter, data dashboardData) {
	data.Title = "Dashboard"
	a.render(w, "dashboard.html", data)
}

func (a *Admin) renderSubjects(w http.ResponseWriter, data subjectsData) {
	data.Title = "Subjects"
	a.render(w, "subjects.html", data)
}

func (a *Admin) renderLessons(w http.ResponseWriter, data lessonsData) {
	data.Title = "Lessons"
	a.render(w, "lessons.html", data)
}

func (a *Admin) renderLessonDetail(w http.ResponseWriter, data lessonDetailData) {
	data.Title = "Edit Lesson"
	a.render(w, "lesson_detail.html", data)
}

func (a *Admin) renderQuestions(w http.ResponseWriter, data questionsData) {
	data.Title = "Practice Questions"
	a.render(w, "questions.html", data)
}

func (a *Admin) renderStudents(w http.ResponseWriter, data studentsData) {
	data.Title = "Students"
	a.render(w, "students.html", data)
}

func (a *Admin) renderAnalytics(w http.ResponseWriter, data analyticsData) {
	data.Title = "Analytics"
	a.render(w, "analytics.html", data)
}
