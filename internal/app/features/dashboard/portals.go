// internal/app/features/dashboard/portals.go
package dashboard

import (
	"net/http"

	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

func (h *Handler) ServeStudent(w http.ResponseWriter, r *http.Request) {
	data := h.loadBase(r, models.RoleStudent)
	data.Cards = []card{
		{Title: "My classes", Body: "Your timetable and class materials."},
		{Title: "Grades", Body: "Results published by your teachers."},
		{Title: "Enrollment", Body: "Your enrollment status and documents."},
	}
	h.Log.Debug("student dashboard served", zap.String("user_id", data.User.ID))
	templates.Render(w, r, "student_dashboard", data)
}

func (h *Handler) ServeTeacher(w http.ResponseWriter, r *http.Request) {
	data := h.loadBase(r, models.RoleTeacher)
	data.Cards = []card{
		{Title: "Classes", Body: "Rosters for the classes you teach."},
		{Title: "Gradebook", Body: "Record and publish results."},
		{Title: "Attendance", Body: "Take and review attendance."},
	}
	h.Log.Debug("teacher dashboard served", zap.String("user_id", data.User.ID))
	templates.Render(w, r, "teacher_dashboard", data)
}

func (h *Handler) ServeEnrollmentOffice(w http.ResponseWriter, r *http.Request) {
	data := h.loadBase(r, models.RoleEnrollmentOffice)
	data.Cards = []card{
		{Title: "Applications", Body: "New student applications awaiting review."},
		{Title: "Students", Body: "Enrolled students and their records."},
		{Title: "Documents", Body: "Submitted enrollment documents."},
	}
	h.Log.Debug("enrollment office dashboard served", zap.String("user_id", data.User.ID))
	templates.Render(w, r, "enrollment_office_dashboard", data)
}
