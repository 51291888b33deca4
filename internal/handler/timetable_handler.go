package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableBuilder interface {
	Build(ctx context.Context, actor models.Actor, req dto.BuildTimetableRequest) (*dto.GenerationResult, error)
}

type timetableViewer interface {
	PreviewGrid(cfg dto.GridConfig) ([]dto.TimeSlotRange, error)
	ClassTimetable(ctx context.Context, actor models.Actor, termID, classID string) (*dto.WeeklyTimetable, bool, error)
	TeacherTimetable(ctx context.Context, actor models.Actor, termID, teacherID string) (*dto.WeeklyTimetable, bool, error)
}

type timetableExporter interface {
	ExportClass(ctx context.Context, actor models.Actor, termID, classID, format string) (*service.ExportFile, error)
}

// TimetableHandler exposes generation, grid preview, weekly views and exports.
type TimetableHandler struct {
	builder  timetableBuilder
	viewer   timetableViewer
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(builder *service.TimetableService, viewer *service.TimetableSlotService, exporter *service.TimetableExportService) *TimetableHandler {
	return &TimetableHandler{builder: builder, viewer: viewer, exporter: exporter}
}

// Generate godoc
// @Summary Generate the weekly timetable of a term
// @Description Builds slots for every active grade 10-12 class of the caller's school. Skipped candidates are reported as counters.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.BuildTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.BuildTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.builder.Build(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// PreviewGrid godoc
// @Summary Preview the periods of one teaching day
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GridConfig true "Grid configuration"
// @Success 200 {object} response.Envelope
// @Router /timetable/grid/preview [post]
func (h *TimetableHandler) PreviewGrid(c *gin.Context) {
	var cfg dto.GridConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grid payload"))
		return
	}
	grid, err := h.viewer.PreviewGrid(cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// ClassTimetable godoc
// @Summary Weekly timetable of a class
// @Tags Timetable
// @Produce json
// @Param classId path string true "Class ID"
// @Param termId query string false "Term ID, defaults to the current term"
// @Success 200 {object} response.Envelope
// @Router /timetable/classes/{classId} [get]
func (h *TimetableHandler) ClassTimetable(c *gin.Context) {
	view, hit, err := h.viewer.ClassTimetable(c.Request.Context(), actorFromContext(c), c.Query("termId"), c.Param("classId"))
	h.respondView(c, view, hit, err)
}

// TeacherTimetable godoc
// @Summary Weekly timetable of a teacher
// @Tags Timetable
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param termId query string false "Term ID, defaults to the current term"
// @Success 200 {object} response.Envelope
// @Router /timetable/teachers/{teacherId} [get]
func (h *TimetableHandler) TeacherTimetable(c *gin.Context) {
	view, hit, err := h.viewer.TeacherTimetable(c.Request.Context(), actorFromContext(c), c.Query("termId"), c.Param("teacherId"))
	h.respondView(c, view, hit, err)
}

// ExportClass godoc
// @Summary Download a class timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param classId path string true "Class ID"
// @Param termId query string false "Term ID, defaults to the current term"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /timetable/classes/{classId}/export [get]
func (h *TimetableHandler) ExportClass(c *gin.Context) {
	file, err := h.exporter.ExportClass(c.Request.Context(), actorFromContext(c), c.Query("termId"), c.Param("classId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}

func (h *TimetableHandler) respondView(c *gin.Context, view *dto.WeeklyTimetable, hit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, view, nil, middleware.ResponseMeta(c))
}
