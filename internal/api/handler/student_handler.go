package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"cptracker/internal/api/middleware"
	"cptracker/internal/app/service"
	"cptracker/internal/common"

	"github.com/go-chi/chi/v5"
)

type StudentHandler struct {
	studentService  *service.StudentService
	syncService     *service.SyncService
	reminderService *service.ReminderService
}

func NewStudentHandler(
	studentService *service.StudentService,
	syncService *service.SyncService,
	reminderService *service.ReminderService,
) *StudentHandler {
	return &StudentHandler{
		studentService:  studentService,
		syncService:     syncService,
		reminderService: reminderService,
	}
}

func (h *StudentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listStudents)
	r.Post("/", h.createStudent)
	r.Get("/export", h.exportCSV)

	r.Get("/{id}", h.getStudent)
	r.Put("/{id}", h.updateStudent)
	// Deleting a student discards their whole snapshot history.
	r.With(middleware.AdminOnly).Delete("/{id}", h.deleteStudent)
	r.Patch("/{id}/reminders", h.toggleReminders)

	r.Get("/{id}/contests", h.contestHistory)
	r.Get("/{id}/problems", h.problemData)
	r.Get("/{id}/heatmap", h.heatmap)

	r.Post("/{id}/refresh", h.refreshStudent)
	r.Post("/{id}/send-reminder", h.sendManualReminder)
}

func (h *StudentHandler) listStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentService.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) createStudent(w http.ResponseWriter, r *http.Request) {
	var req service.StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	student, err := h.studentService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, student)
}

func (h *StudentHandler) getStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.studentService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) updateStudent(w http.ResponseWriter, r *http.Request) {
	var req service.StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	student, err := h.studentService.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) deleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.studentService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Student deleted successfully"})
}

func (h *StudentHandler) toggleReminders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmailRemindersDisabled bool `json:"email_reminders_disabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	student, err := h.studentService.ToggleReminders(r.Context(), chi.URLParam(r, "id"), req.EmailRemindersDisabled)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) contestHistory(w http.ResponseWriter, r *http.Request) {
	contests, err := h.studentService.ContestHistory(r.Context(), chi.URLParam(r, "id"), queryDays(r, 365))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}

func (h *StudentHandler) problemData(w http.ResponseWriter, r *http.Request) {
	data, err := h.studentService.ProblemData(r.Context(), chi.URLParam(r, "id"), queryDays(r, 90))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, data)
}

func (h *StudentHandler) heatmap(w http.ResponseWriter, r *http.Request) {
	points, err := h.studentService.Heatmap(r.Context(), chi.URLParam(r, "id"), queryDays(r, 365))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, points)
}

// refreshStudent runs a synchronous sync for one student. Unlike the
// implicit background syncs, failures here surface to the caller.
func (h *StudentHandler) refreshStudent(w http.ResponseWriter, r *http.Request) {
	report, err := h.syncService.SyncStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status := common.HTTPStatusFromError(err)
		if report != nil && report.RatingUpdated {
			// Partial success: rating stuck, snapshot refresh did not.
			common.RespondWithJSON(w, status, map[string]any{
				"error":  err.Error(),
				"report": report,
			})
			return
		}
		common.RespondWithError(w, status, err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": "Codeforces data refreshed successfully",
		"report":  report,
	})
}

func (h *StudentHandler) sendManualReminder(w http.ResponseWriter, r *http.Request) {
	result, err := h.reminderService.SendManual(r.Context(), chi.URLParam(r, "id"), time.Now())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *StudentHandler) exportCSV(w http.ResponseWriter, r *http.Request) {
	content, err := h.studentService.ExportCSV(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithCSV(w, "students.csv", content)
}

func queryDays(r *http.Request, fallback int) int {
	daysStr := r.URL.Query().Get("days")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days <= 0 {
		return fallback
	}
	return days
}
