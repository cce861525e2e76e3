package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/notekeeper/middleware"
	"github.com/upb/notekeeper/models"
	"github.com/upb/notekeeper/services"
	"github.com/upb/notekeeper/utils"
	"go.uber.org/zap"
)

// TagRequest represents a tag attached to a note
type TagRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"max=32"`
}

// CreateNoteRequest represents a request to add a note. The owner is never
// read from the body.
type CreateNoteRequest struct {
	Title string       `json:"title" validate:"required,max=200"`
	Desc  string       `json:"desc" validate:"required"`
	Tags  []TagRequest `json:"tags" validate:"omitempty,dive"`
	Date  string       `json:"date,omitempty"`
}

// UpdateNoteRequest represents a partial note update
type UpdateNoteRequest struct {
	Title *string       `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Desc  *string       `json:"desc,omitempty" validate:"omitempty,min=1"`
	Tags  *[]TagRequest `json:"tags,omitempty" validate:"omitempty,dive"`
	Date  *string       `json:"date,omitempty"`
}

// NoteService defines the owner-scoped note operations
type NoteService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in services.CreateNoteInput) (*models.Note, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*models.Note, error)
	Update(ctx context.Context, ownerID, noteID uuid.UUID, patch models.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, ownerID, noteID uuid.UUID) (*models.Note, error)
}

// NoteHandler handles note HTTP requests
type NoteHandler struct {
	service NoteService
	logger  *zap.Logger
}

// NewNoteHandler creates a new NoteHandler
func NewNoteHandler(service NoteService, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /api/note
func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	notes, err := h.service.List(r.Context(), principal.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "", utils.Payload{"notes": notes})
}

// HandleCreate handles POST /api/note/add
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	var req CreateNoteRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := models.ParseNoteDate(req.Date)
		if err != nil {
			HandleServiceError(w, services.ErrInvalidDate, h.logger)
			return
		}
		date = parsed
	}

	note, err := h.service.Create(r.Context(), principal.ID, services.CreateNoteInput{
		Title: req.Title,
		Desc:  req.Desc,
		Tags:  toTags(req.Tags),
		Date:  date,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "Note added successfully", utils.Payload{"note": note})
}

// HandleUpdate handles PUT /api/note/{id}
func (h *NoteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	patch := models.NotePatch{
		Title: req.Title,
		Desc:  req.Desc,
	}
	if req.Tags != nil {
		tags := toTags(*req.Tags)
		patch.Tags = &tags
	}
	if req.Date != nil {
		parsed, err := models.ParseNoteDate(*req.Date)
		if err != nil {
			HandleServiceError(w, services.ErrInvalidDate, h.logger)
			return
		}
		patch.Date = &parsed
	}

	note, err := h.service.Update(r.Context(), principal.ID, noteID, patch)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Note updated successfully", utils.Payload{"note": note})
}

// HandleDelete handles DELETE /api/note/{id}
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	note, err := h.service.Delete(r.Context(), principal.ID, noteID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, "Note deleted successfully", utils.Payload{"note": note})
}

// noteID parses the {id} path parameter. An unparseable id cannot name any
// note, so it gets the same 404 as a missing one.
func (h *NoteHandler) noteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Debug("malformed note id", zap.Error(err))
		HandleServiceError(w, services.ErrNoteNotFound, h.logger)
		return uuid.Nil, false
	}
	return id, true
}

func toTags(in []TagRequest) []models.Tag {
	tags := make([]models.Tag, 0, len(in))
	for _, t := range in {
		tags = append(tags, models.Tag{Name: t.Name, Color: t.Color})
	}
	return tags
}
