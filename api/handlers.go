/*
handlers.go - HTTP handlers for the CRM engine

PURPOSE:
  Exposes the entity stores, the pipeline aggregator, and the drag engine
  to the SPA. Handlers parse the request, delegate to the core, and
  serialize the result; no domain logic lives here.

ENDPOINTS:
  Contacts:
    GET    /api/contacts                    List contacts
    POST   /api/contacts                    Create contact
    GET    /api/contacts/{id}               Get contact
    PUT    /api/contacts/{id}               Patch contact
    DELETE /api/contacts/{id}               Delete contact
    GET    /api/contacts/{id}/deals         Deals for contact
    GET    /api/contacts/{id}/activities    Timeline for contact

  Deals:
    GET/POST /api/deals, GET/PUT/DELETE /api/deals/{id}
    POST   /api/deals/{id}/move             Commit a drag gesture
    GET    /api/pipeline                    Board columns + headline totals

  Messages:
    GET/POST /api/messages, GET/PUT/DELETE /api/messages/{id}
    POST   /api/messages/{id}/read          Mark as read

  Activities:
    GET/POST /api/activities, GET/PUT/DELETE /api/activities/{id}

  Misc:
    GET    /api/stages                      Stage configuration
    POST   /api/reset                       Reload the seed dataset

ERROR HANDLING:
  NotFound -> 404, validation -> 400, gesture conflicts -> 409, rest -> 500,
  always as a JSON body.

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: routing and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pulse/crm-engine/crm"
	"github.com/pulse/crm-engine/seed"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Stores crm.Stores
	Stages crm.StageList
	Drag   *crm.DragEngine

	// dataset backs /api/reset.
	dataset seed.Dataset
}

// NewHandler wires the handler against the given stores and stage
// configuration.
func NewHandler(stores crm.Stores, stages crm.StageList, dataset seed.Dataset) *Handler {
	return &Handler{
		Stores:  stores,
		Stages:  stages,
		Drag:    crm.NewDragEngine(stores.Deals),
		dataset: dataset,
	}
}

// =============================================================================
// CONTACT HANDLERS
// =============================================================================

func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Stores.Contacts.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contacts", err)
		return
	}
	dtos := make([]ContactDTO, len(contacts))
	for i, c := range contacts {
		dtos[i] = toContactDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	contact, err := h.Stores.Contacts.GetByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get contact", err)
		return
	}
	writeJSON(w, http.StatusOK, toContactDTO(contact))
}

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	contact, err := h.Stores.Contacts.Create(r.Context(), req.toRecord())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create contact", err)
		return
	}
	writeJSON(w, http.StatusCreated, toContactDTO(contact))
}

func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	contact, err := h.Stores.Contacts.Update(r.Context(), id, req.toPatch())
	if err != nil {
		writeStoreError(w, "Failed to update contact", err)
		return
	}
	writeJSON(w, http.StatusOK, toContactDTO(contact))
}

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Stores.Contacts.Delete(r.Context(), id); err != nil {
		writeStoreError(w, "Failed to delete contact", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) GetContactDeals(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deals, err := h.Stores.Deals.Where(r.Context(), func(d crm.Deal) bool {
		return d.ContactID == id
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get deals", err)
		return
	}
	writeJSON(w, http.StatusOK, toDealDTOs(deals))
}

func (h *Handler) GetContactActivities(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	activities, err := h.Stores.Activities.Where(r.Context(), func(a crm.Activity) bool {
		return a.ContactID == id
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get activities", err)
		return
	}
	dtos := make([]ActivityDTO, len(activities))
	for i, a := range activities {
		dtos[i] = toActivityDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// DEAL HANDLERS
// =============================================================================

func (h *Handler) ListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.Stores.Deals.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list deals", err)
		return
	}
	writeJSON(w, http.StatusOK, toDealDTOs(deals))
}

func (h *Handler) GetDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deal, err := h.Stores.Deals.GetByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get deal", err)
		return
	}
	writeJSON(w, http.StatusOK, toDealDTO(deal))
}

func (h *Handler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var req CreateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required", nil)
		return
	}
	if req.Value < 0 {
		writeError(w, http.StatusBadRequest, "Value must be non-negative", nil)
		return
	}
	if req.Probability < 0 || req.Probability > 100 {
		writeError(w, http.StatusBadRequest, "Probability must be in [0, 100]", nil)
		return
	}
	if !h.Stages.Contains(req.Stage) {
		writeError(w, http.StatusBadRequest, "Unknown stage", &crm.InvalidStageError{Stage: req.Stage})
		return
	}

	deal, err := h.Stores.Deals.Create(r.Context(), req.toRecord())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create deal", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDealDTO(deal))
}

func (h *Handler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Stage != nil && !h.Stages.Contains(*req.Stage) {
		writeError(w, http.StatusBadRequest, "Unknown stage", &crm.InvalidStageError{Stage: *req.Stage})
		return
	}
	if req.Value != nil && *req.Value < 0 {
		writeError(w, http.StatusBadRequest, "Value must be non-negative", nil)
		return
	}
	if req.Probability != nil && (*req.Probability < 0 || *req.Probability > 100) {
		writeError(w, http.StatusBadRequest, "Probability must be in [0, 100]", nil)
		return
	}

	deal, err := h.Stores.Deals.Update(r.Context(), id, req.toPatch())
	if err != nil {
		writeStoreError(w, "Failed to update deal", err)
		return
	}
	writeJSON(w, http.StatusOK, toDealDTO(deal))
}

func (h *Handler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Stores.Deals.Delete(r.Context(), id); err != nil {
		writeStoreError(w, "Failed to delete deal", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// MoveDeal commits a drag gesture: the deal in the path was released over
// the deal in the body. No-op drops return moved=false and issue no store
// update.
func (h *Handler) MoveDeal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req MoveDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Drag.Begin(id); err != nil {
		writeError(w, http.StatusConflict, "Another drag gesture is being committed", err)
		return
	}

	snapshot, err := h.Stores.Deals.GetAll(r.Context())
	if err != nil {
		h.Drag.Cancel()
		writeError(w, http.StatusInternalServerError, "Failed to load deals", err)
		return
	}

	result, err := h.Drag.Drop(r.Context(), snapshot, crm.DropEvent{
		ActiveID: id,
		OverID:   crm.ID(req.OverID),
	})
	if err != nil {
		writeStoreError(w, "Failed to move deal", err)
		return
	}

	resp := MoveDealResponse{Moved: result.Moved}
	if result.Moved {
		dto := toDealDTO(result.Deal)
		resp.Deal = &dto
		resp.From = result.From
		resp.To = result.To
		zap.S().Infow("deal moved", "deal", int(id), "from", result.From, "to", result.To)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPipeline returns the full board: one column per configured stage plus
// the headline totals, all derived from the current deal collection.
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	deals, err := h.Stores.Deals.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load deals", err)
		return
	}

	columns := make([]StageColumnDTO, len(h.Stages))
	for i, stage := range h.Stages {
		stageDeals := crm.DealsForStage(deals, stage)
		total, _ := crm.StageTotal(deals, stage).Float64()
		columns[i] = StageColumnDTO{
			Name:  stage.Name,
			Color: stage.Color,
			Count: len(stageDeals),
			Total: total,
			Deals: toDealDTOs(stageDeals),
		}
	}

	totals := crm.GlobalTotals(deals, h.Stages.Won())
	totalValue, _ := totals.TotalValue.Float64()
	wonValue, _ := totals.WonValue.Float64()

	writeJSON(w, http.StatusOK, PipelineDTO{
		Stages: columns,
		Totals: PipelineTotalsDTO{
			TotalValue:     totalValue,
			WonValue:       wonValue,
			ActiveCount:    totals.ActiveCount,
			ConversionRate: totals.ConversionRate,
		},
	})
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Stores.Messages.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list messages", err)
		return
	}
	dtos := make([]MessageDTO, len(messages))
	for i, m := range messages {
		dtos[i] = toMessageDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	msg, err := h.Stores.Messages.GetByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get message", err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTO(msg))
}

func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	msg, err := h.Stores.Messages.Create(r.Context(), req.toRecord())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create message", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageDTO(msg))
}

func (h *Handler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	msg, err := h.Stores.Messages.Update(r.Context(), id, req.toPatch())
	if err != nil {
		writeStoreError(w, "Failed to update message", err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTO(msg))
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Stores.Messages.Delete(r.Context(), id); err != nil {
		writeStoreError(w, "Failed to delete message", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// MarkMessageRead flips a message to read status.
func (h *Handler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	status := crm.MessageRead
	msg, err := h.Stores.Messages.Update(r.Context(), id, crm.MessagePatch{Status: &status})
	if err != nil {
		writeStoreError(w, "Failed to mark message read", err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTO(msg))
}

// =============================================================================
// ACTIVITY HANDLERS
// =============================================================================

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.Stores.Activities.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list activities", err)
		return
	}
	dtos := make([]ActivityDTO, len(activities))
	for i, a := range activities {
		dtos[i] = toActivityDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	activity, err := h.Stores.Activities.GetByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, "Failed to get activity", err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(activity))
}

func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	activity, err := h.Stores.Activities.Create(r.Context(), req.toRecord())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create activity", err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityDTO(activity))
}

func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	activity, err := h.Stores.Activities.Update(r.Context(), id, req.toPatch())
	if err != nil {
		writeStoreError(w, "Failed to update activity", err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(activity))
}

func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Stores.Activities.Delete(r.Context(), id); err != nil {
		writeStoreError(w, "Failed to delete activity", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// MISC HANDLERS
// =============================================================================

// ListStages returns the board configuration.
func (h *Handler) ListStages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Stages)
}

// Reset reloads the seed dataset into every store.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.dataset.Apply(r.Context(), h.Stores); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset data", err)
		return
	}
	zap.S().Info("seed dataset reloaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func pathID(w http.ResponseWriter, r *http.Request) (crm.ID, bool) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return crm.ID(n), true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case crm.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, crm.ErrInvalidStage):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, crm.ErrDragInProgress), errors.Is(err, crm.ErrNoActiveDrag):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
