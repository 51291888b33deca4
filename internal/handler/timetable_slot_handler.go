package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableSlotManager interface {
	Create(ctx context.Context, actor models.Actor, req dto.CreateSlotRequest) (*models.TimetableSlot, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateSlotRequest) (*models.TimetableSlot, error)
	Delete(ctx context.Context, actor models.Actor, id string) (*models.TimetableSlot, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.TimetableSlot, error)
	List(ctx context.Context, actor models.Actor, query dto.SlotQuery) ([]models.TimetableSlot, *models.Pagination, error)
}

// TimetableSlotHandler manages individual timetable slots.
type TimetableSlotHandler struct {
	service timetableSlotManager
}

// NewTimetableSlotHandler constructs the handler.
func NewTimetableSlotHandler(svc *service.TimetableSlotService) *TimetableSlotHandler {
	return &TimetableSlotHandler{service: svc}
}

// List godoc
// @Summary List timetable slots of a term
// @Tags Timetable Slots
// @Produce json
// @Param termId query string false "Term ID, defaults to the current term"
// @Param classId query string false "Class ID"
// @Param teacherId query string false "Teacher ID"
// @Param dayOfWeek query int false "1 (Monday) to 5 (Friday)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetable/slots [get]
func (h *TimetableSlotHandler) List(c *gin.Context) {
	var query dto.SlotQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	slots, pagination, err := h.service.List(c.Request.Context(), actorFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, pagination)
}

// Get godoc
// @Summary Get a timetable slot
// @Tags Timetable Slots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/slots/{id} [get]
func (h *TimetableSlotHandler) Get(c *gin.Context) {
	slot, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Create godoc
// @Summary Create a timetable slot
// @Description Rejected with TEACHER_CONFLICT or CLASS_CONFLICT when it overlaps a persisted slot.
// @Tags Timetable Slots
// @Accept json
// @Produce json
// @Param payload body dto.CreateSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/slots [post]
func (h *TimetableSlotHandler) Create(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slot, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Update godoc
// @Summary Update a timetable slot
// @Description Omitted fields keep their value. The merged slot is re-checked for conflicts.
// @Tags Timetable Slots
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body dto.UpdateSlotRequest true "Slot changes"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/slots/{id} [patch]
func (h *TimetableSlotHandler) Update(c *gin.Context) {
	var req dto.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slot, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Delete godoc
// @Summary Delete a timetable slot
// @Tags Timetable Slots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/slots/{id} [delete]
func (h *TimetableSlotHandler) Delete(c *gin.Context) {
	slot, err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}
