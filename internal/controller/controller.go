package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/apolloyim/the-match/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Controller собирает HTTP-обработчики поверх сервисного слоя
type Controller struct {
	matching  *service.MatchingService
	students  *service.StudentService
	archive   *service.ArchiveService
	hours     *service.HoursService
	analytics *service.AnalyticsService
	logger    *zap.Logger
}

func NewController(
	matching *service.MatchingService,
	students *service.StudentService,
	archive *service.ArchiveService,
	hours *service.HoursService,
	analytics *service.AnalyticsService,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		matching:  matching,
		students:  students,
		archive:   archive,
		hours:     hours,
		analytics: analytics,
		logger:    logger,
	}
}

// Router собирает все маршруты приложения
func (c *Controller) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/activate-account", c.activateAccount)

		api.Get("/control", c.getControl)
		api.Get("/slots", c.listSlots)
		api.Get("/slots/open", c.listOpenSlots)

		api.Post("/claim", c.claimSlot)
		api.Post("/unclaim", c.unclaimSlot)
		api.Post("/confirm", c.confirmSelection)

		api.Route("/students/{email}", func(st chi.Router) {
			st.Get("/", c.getStudent)
			st.Get("/slots", c.getStudentSlots)
			st.Get("/history", c.getStudentHistory)
			st.Get("/hours", c.getStudentHours)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Post("/match-settings", c.updateMatchSettings)
			admin.Post("/toggle-confirmations", c.toggleConfirmations)
			admin.Post("/reset-confirmations", c.resetConfirmations)
			admin.Post("/clear-confirmation", c.clearConfirmation)
			admin.Post("/confirm", c.adminConfirm)

			admin.Post("/slots", c.createSlot)
			admin.Get("/audit", c.listAudit)

			admin.Post("/accounts", c.bulkCreateAccounts)
			admin.Get("/groups", c.listGroups)
			admin.Get("/hours-report", c.hoursReport)

			admin.Post("/archive/group", c.archiveGroup)
			admin.Post("/archive/grad-year", c.archiveGradYear)
			admin.Post("/archive-confirmed-sweep", c.archiveConfirmedSweep)
			admin.Post("/purge-archived-history", c.purgeArchivedHistory)

			admin.Route("/students/{email}", func(st chi.Router) {
				st.Put("/", c.updateStudentProfile)
				st.Post("/archive", c.archiveStudent)
				st.Post("/unarchive", c.unarchiveStudent)
				st.Post("/assign-slot", c.assignSlot)
				st.Post("/remove-slot", c.removeSlot)
				st.Post("/create-slot", c.createAssignedSlot)
				st.Post("/hours", c.addHourAdjustment)
				st.Delete("/hours/{id}", c.removeHourAdjustment)
				st.Post("/history", c.createHistoryRecord)
				st.Put("/history/{id}", c.updateHistoryRecord)
				st.Delete("/history/{id}", c.deleteHistoryRecord)
			})
		})
	})

	return r
}

// decode разбирает JSON-тело запроса
func decode(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		c.logger.Error("Write response failed", zap.Error(err))
	}
}

// writeError переводит ошибки сервисов в HTTP-статусы
func (c *Controller) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrSlotNotFound),
		errors.Is(err, service.ErrStudentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSlotAlreadyClaimed),
		errors.Is(err, service.ErrAlreadyConfirmed),
		errors.Is(err, service.ErrAlreadyActivated):
		status = http.StatusConflict
	case errors.Is(err, service.ErrMatchingLocked),
		errors.Is(err, service.ErrPhaseForbidden),
		errors.Is(err, service.ErrCapExceeded),
		errors.Is(err, service.ErrConfirmationsDisabled),
		errors.Is(err, service.ErrStudentArchived):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidDelta):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		c.logger.Error("Request failed", zap.Error(err))
		c.writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}

	c.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (c *Controller) badRequest(w http.ResponseWriter, msg string) {
	c.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// parseID разбирает UUID из пути или тела запроса
func parseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	return id, err == nil
}
