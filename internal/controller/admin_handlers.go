package controller

import (
	"net/http"
	"strconv"

	"github.com/apolloyim/the-match/internal/model"
	"github.com/apolloyim/the-match/internal/service"
	"github.com/go-chi/chi/v5"
)

// Обработчики админки: настройки матчинга, аккаунты, слоты, история и часы.

type matchSettingsRequest struct {
	Phase          int  `json:"phase"`
	MaxSlots       int  `json:"max_slots"`
	MatchingLocked bool `json:"matching_locked"`
}

func (c *Controller) updateMatchSettings(w http.ResponseWriter, r *http.Request) {
	var req matchSettingsRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	err := c.matching.UpdateMatchSettings(r.Context(), model.Phase(req.Phase), req.MaxSlots, req.MatchingLocked)
	if err != nil {
		c.badRequest(w, err.Error())
		return
	}

	ctrl, err := c.matching.GetControl(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, ctrl)
}

type toggleConfirmationsRequest struct {
	Enabled bool `json:"enabled"`
}

func (c *Controller) toggleConfirmations(w http.ResponseWriter, r *http.Request) {
	var req toggleConfirmationsRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	if err := c.matching.SetConfirmationsEnabled(r.Context(), req.Enabled); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]bool{"confirmations_enabled": req.Enabled})
}

func (c *Controller) resetConfirmations(w http.ResponseWriter, r *http.Request) {
	cleared, err := c.matching.ClearAllConfirmations(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, map[string]int64{"cleared": cleared})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (c *Controller) clearConfirmation(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, &req); err != nil || req.Email == "" {
		c.badRequest(w, "email is required")
		return
	}

	if err := c.matching.ClearConfirmation(r.Context(), req.Email); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (c *Controller) adminConfirm(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, &req); err != nil || req.Email == "" {
		c.badRequest(w, "email is required")
		return
	}

	inserted, err := c.matching.AdminConfirm(r.Context(), req.Email)
	if err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]int{"archived": inserted})
}

func (c *Controller) createSlot(w http.ResponseWriter, r *http.Request) {
	var slot model.Slot
	if err := decode(r, &slot); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	if err := c.matching.CreateSlot(r.Context(), &slot); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusCreated, slot)
}

func (c *Controller) listAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := c.matching.RecentAudit(r.Context(), limit)
	if err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, entries)
}

type bulkAccountsRequest struct {
	Accounts []service.NewAccount `json:"accounts"`
}

func (c *Controller) bulkCreateAccounts(w http.ResponseWriter, r *http.Request) {
	var req bulkAccountsRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	created, err := c.students.BulkCreate(r.Context(), req.Accounts)
	if err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]int{
		"received": len(req.Accounts),
		"created":  created,
	})
}

func (c *Controller) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := c.students.ListGroups(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, groups)
}

func (c *Controller) hoursReport(w http.ResponseWriter, r *http.Request) {
	lyteOnly := r.URL.Query().Get("lyte_only") == "true"

	report, err := c.analytics.BuildHoursReport(r.Context(), lyteOnly)
	if err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, report)
}

type archiveGroupRequest struct {
	Group string `json:"group"`
}

func (c *Controller) archiveGroup(w http.ResponseWriter, r *http.Request) {
	var req archiveGroupRequest
	if err := decode(r, &req); err != nil || req.Group == "" {
		c.badRequest(w, "group is required")
		return
	}

	archived, err := c.students.ArchiveByGroup(r.Context(), req.Group)
	if err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]int64{"archived": archived})
}

type archiveGradYearRequest struct {
	GradYear int `json:"grad_year"`
}

func (c *Controller) archiveGradYear(w http.ResponseWriter, r *http.Request) {
	var req archiveGradYearRequest
	if err := decode(r, &req); err != nil || req.GradYear <= 0 {
		c.badRequest(w, "grad_year is required")
		return
	}

	archived, err := c.students.ArchiveByGradYear(r.Context(), req.GradYear)
	if err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]int64{"archived": archived})
}

func (c *Controller) archiveConfirmedSweep(w http.ResponseWriter, r *http.Request) {
	total, err := c.archive.SnapshotConfirmed(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, map[string]int{"archived": total})
}

func (c *Controller) purgeArchivedHistory(w http.ResponseWriter, r *http.Request) {
	res := c.archive.PurgeOldHistory(r.Context())
	c.writeJSON(w, http.StatusOK, res)
}

type profileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	School    string `json:"school"`
	Group     string `json:"group"`
	IsLyte    bool   `json:"is_lyte"`
}

func (c *Controller) updateStudentProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	email := chi.URLParam(r, "email")
	err := c.students.UpdateProfile(r.Context(), email, req.FirstName, req.LastName, req.School, req.Group, req.IsLyte)
	if err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (c *Controller) archiveStudent(w http.ResponseWriter, r *http.Request) {
	if err := c.students.Archive(r.Context(), chi.URLParam(r, "email")); err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, map[string]bool{"archived": true})
}

func (c *Controller) unarchiveStudent(w http.ResponseWriter, r *http.Request) {
	if err := c.students.Unarchive(r.Context(), chi.URLParam(r, "email")); err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, map[string]bool{"archived": false})
}

type slotIDRequest struct {
	SlotID string `json:"slot_id"`
}

func (c *Controller) assignSlot(w http.ResponseWriter, r *http.Request) {
	var req slotIDRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	slotID, ok := parseID(req.SlotID)
	if !ok {
		c.badRequest(w, "slot_id is required")
		return
	}

	if err := c.students.AssignSlot(r.Context(), chi.URLParam(r, "email"), slotID); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]bool{"assigned": true})
}

func (c *Controller) removeSlot(w http.ResponseWriter, r *http.Request) {
	var req slotIDRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	slotID, ok := parseID(req.SlotID)
	if !ok {
		c.badRequest(w, "slot_id is required")
		return
	}

	if err := c.students.RemoveSlot(r.Context(), chi.URLParam(r, "email"), slotID); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (c *Controller) createAssignedSlot(w http.ResponseWriter, r *http.Request) {
	var slot model.Slot
	if err := decode(r, &slot); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	if err := c.students.CreateAssignedSlot(r.Context(), chi.URLParam(r, "email"), &slot); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusCreated, slot)
}

type hourAdjustmentRequest struct {
	DeltaHours float64 `json:"delta_hours"`
	Reason     string  `json:"reason"`
}

func (c *Controller) addHourAdjustment(w http.ResponseWriter, r *http.Request) {
	var req hourAdjustmentRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	adj, err := c.hours.AddAdjustment(r.Context(), chi.URLParam(r, "email"), req.DeltaHours, req.Reason)
	if err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusCreated, adj)
}

func (c *Controller) removeHourAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		c.badRequest(w, "invalid adjustment id")
		return
	}

	if err := c.hours.RemoveAdjustment(r.Context(), chi.URLParam(r, "email"), id); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (c *Controller) createHistoryRecord(w http.ResponseWriter, r *http.Request) {
	var rec model.ArchivedSlot
	if err := decode(r, &rec); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}
	rec.StudentEmail = chi.URLParam(r, "email")

	if err := c.archive.CreateRecord(r.Context(), &rec); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusCreated, rec)
}

func (c *Controller) updateHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		c.badRequest(w, "invalid record id")
		return
	}

	var rec model.ArchivedSlot
	if err := decode(r, &rec); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}
	rec.ID = id
	rec.StudentEmail = chi.URLParam(r, "email")

	if err := c.archive.UpdateRecord(r.Context(), &rec); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, rec)
}

func (c *Controller) deleteHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		c.badRequest(w, "invalid record id")
		return
	}

	if err := c.archive.DeleteRecord(r.Context(), id, chi.URLParam(r, "email")); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
