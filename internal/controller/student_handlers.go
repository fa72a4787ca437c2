package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Обработчики студенческой части: активация, просмотр и выбор слотов,
// подтверждение, личная история и часы.

type activateRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (c *Controller) activateAccount(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		c.badRequest(w, "email and password are required")
		return
	}

	st, err := c.students.Activate(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, st)
}

func (c *Controller) getControl(w http.ResponseWriter, r *http.Request) {
	ctrl, err := c.matching.GetControl(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, ctrl)
}

func (c *Controller) listSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := c.matching.ListSlots(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, slots)
}

func (c *Controller) listOpenSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := c.matching.OpenSlots(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, slots)
}

type claimRequest struct {
	Email       string `json:"email"`
	SlotID      string `json:"slot_id"`
	StudentName string `json:"student_name"`
}

func (c *Controller) claimSlot(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	slotID, ok := parseID(req.SlotID)
	if !ok || req.Email == "" {
		c.badRequest(w, "email and slot_id are required")
		return
	}

	if err := c.matching.Claim(r.Context(), req.Email, slotID, req.StudentName); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]bool{"claimed": true})
}

type unclaimRequest struct {
	Email  string `json:"email"`
	SlotID string `json:"slot_id"`
}

func (c *Controller) unclaimSlot(w http.ResponseWriter, r *http.Request) {
	var req unclaimRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}

	slotID, ok := parseID(req.SlotID)
	if !ok || req.Email == "" {
		c.badRequest(w, "email and slot_id are required")
		return
	}

	if err := c.matching.Unclaim(r.Context(), req.Email, slotID); err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]bool{"released": true})
}

type confirmRequest struct {
	Email string `json:"email"`
}

func (c *Controller) confirmSelection(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decode(r, &req); err != nil {
		c.badRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		c.badRequest(w, "email is required")
		return
	}

	inserted, err := c.matching.Confirm(r.Context(), req.Email)
	if err != nil {
		c.writeError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]int{"archived": inserted})
}

func (c *Controller) getStudent(w http.ResponseWriter, r *http.Request) {
	st, err := c.students.Get(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, st)
}

func (c *Controller) getStudentSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := c.matching.StudentSlots(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, slots)
}

func (c *Controller) getStudentHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := c.archive.History(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, recs)
}

func (c *Controller) getStudentHours(w http.ResponseWriter, r *http.Request) {
	totals, err := c.hours.Totals(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, http.StatusOK, totals)
}
