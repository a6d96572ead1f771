package handler

import (
	"net/http"
	"strconv"

	"cptracker/internal/app/scheduler"
	"cptracker/internal/app/service"
	"cptracker/internal/common"

	"github.com/go-chi/chi/v5"
)

type InactivityHandler struct {
	inactivityService *service.InactivityService
	scheduler         *scheduler.Scheduler
}

func NewInactivityHandler(inactivityService *service.InactivityService, sched *scheduler.Scheduler) *InactivityHandler {
	return &InactivityHandler{inactivityService: inactivityService, scheduler: sched}
}

func (h *InactivityHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats/inactivity", h.inactivityStats)
	r.Get("/stats/reminders", h.topReminded)
	r.Post("/inactivity/check", h.triggerCheck)
}

func (h *InactivityHandler) inactivityStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.inactivityService.Stats(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *InactivityHandler) topReminded(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	students, err := h.inactivityService.TopReminded(r.Context(), limit)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, students)
}

// triggerCheck runs the daily pipeline on demand, synchronously, and
// returns the per-student batch results.
func (h *InactivityHandler) triggerCheck(w http.ResponseWriter, r *http.Request) {
	results, err := h.scheduler.TriggerOnce(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"message": "Inactivity check triggered successfully",
		"results": results,
	})
}
