package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/msomdec/gadget-registry/internal/domain"
	"github.com/msomdec/gadget-registry/internal/service"
	"github.com/msomdec/gadget-registry/internal/validation"
)

// GadgetHandler exposes the gadget lifecycle over HTTP. Every route is
// behind RequireAuth.
type GadgetHandler struct {
	gadgets *service.GadgetService
}

// NewGadgetHandler creates a new GadgetHandler.
func NewGadgetHandler(gadgets *service.GadgetService) *GadgetHandler {
	return &GadgetHandler{gadgets: gadgets}
}

// HandleList returns all gadgets, optionally filtered by ?status=.
// GET /api/gadgets
func (h *GadgetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := Input[validation.ListGadgetsQuery](r.Context())

	var status *domain.GadgetStatus
	if q.Status != "" {
		s := domain.GadgetStatus(q.Status)
		status = &s
	}

	views, err := h.gadgets.List(r.Context(), status)
	if err != nil {
		respondError(w, r, err, "status", q.Status)
		return
	}

	respond(w, r, http.StatusOK, fmt.Sprintf("%d gadgets found", len(views)), toGadgetViewDTOs(views))
}

// HandleCreate adds a gadget.
// POST /api/gadgets
// Request: {"name":"..."}
func (h *GadgetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in := Input[validation.CreateGadgetInput](r.Context())

	g, err := h.gadgets.Create(r.Context(), in.Name)
	if err != nil {
		respondError(w, r, err, "name", in.Name)
		return
	}

	respond(w, r, http.StatusCreated, "gadget created successfully", toGadgetDTO(g))
}

// HandleGet returns one gadget.
// GET /api/gadgets/{id}
func (h *GadgetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := gadgetID(r)

	g, err := h.gadgets.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "gadget_id", id)
		return
	}

	respond(w, r, http.StatusOK, "gadget found", toGadgetDTO(g))
}

// HandleUpdate applies a partial update.
// PATCH /api/gadgets/{id}
// Request: {"name":"...","status":"..."} (both optional)
func (h *GadgetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := gadgetID(r)
	in := Input[validation.UpdateGadgetInput](r.Context())

	patch := domain.GadgetPatch{Name: in.Name}
	if in.Status != nil {
		s := domain.GadgetStatus(*in.Status)
		patch.Status = &s
	}

	g, err := h.gadgets.Update(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, err, "gadget_id", id)
		return
	}

	respond(w, r, http.StatusOK, "gadget updated successfully", toGadgetDTO(g))
}

// HandleDecommission retires a gadget.
// DELETE /api/gadgets/{id}
func (h *GadgetHandler) HandleDecommission(w http.ResponseWriter, r *http.Request) {
	id := gadgetID(r)

	g, err := h.gadgets.Decommission(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "gadget_id", id)
		return
	}

	respond(w, r, http.StatusOK, "gadget decommissioned successfully", toGadgetDTO(g))
}

// HandleSelfDestruct destroys a gadget and returns a confirmation code.
// POST /api/gadgets/{id}/self-destruct
func (h *GadgetHandler) HandleSelfDestruct(w http.ResponseWriter, r *http.Request) {
	id := gadgetID(r)

	g, code, err := h.gadgets.SelfDestruct(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "gadget_id", id)
		return
	}

	respond(w, r, http.StatusOK, "self-destruct sequence initiated", SelfDestructDTO{
		Gadget:           toGadgetDTO(g),
		ConfirmationCode: code,
	})
}

// gadgetID reads the id validated by Params[validation.IDParams].
func gadgetID(r *http.Request) uuid.UUID {
	return uuid.MustParse(Input[validation.IDParams](r.Context()).ID)
}
