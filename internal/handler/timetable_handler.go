package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

type timetableService interface {
	Validate(ctx context.Context, req dto.ValidateSlotRequest) (*dto.ValidateSlotResponse, error)
	Assign(ctx context.Context, req dto.AssignSlotRequest) (*dto.AssignSlotResponse, error)
	ClearCell(ctx context.Context, req dto.ClearCellRequest) (*models.TimetableSlot, error)
	DeleteGrid(ctx context.Context, req dto.DeleteGridRequest) (*dto.DeleteGridResponse, error)
	CountGrids(ctx context.Context) (*dto.CountGridsResponse, error)
	GetGrid(ctx context.Context, courseID string, semester int) (*dto.GridView, error)
	TimeSlots() dto.TimeSlotsResponse
}

// TimetableHandler exposes slot validation, assignment and grid management.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// TimeSlots godoc
// @Summary List the enumerated teaching slots of a day
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables/time-slots [get]
func (h *TimetableHandler) TimeSlots(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.TimeSlots())
}

// Validate godoc
// @Summary Check a proposed slot assignment without committing it
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ValidateSlotRequest true "Proposed slot"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables/validate [post]
func (h *TimetableHandler) Validate(c *gin.Context) {
	var req dto.ValidateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validation payload"))
		return
	}
	result, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Assign godoc
// @Summary Assign a subject, faculty and room to a timetable cell
// @Description Replaces any existing occupant of the cell. Blocking reasons return 409 with the verdict.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.AssignSlotRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/assign [post]
func (h *TimetableHandler) Assign(c *gin.Context) {
	var req dto.AssignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	result, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Success {
		response.Conflict(c, result)
		return
	}
	response.Created(c, result)
}

// Grid godoc
// @Summary Show a course-semester timetable grid
// @Tags Timetable
// @Produce json
// @Param courseId path string true "Course ID"
// @Param semester path int true "Semester"
// @Success 200 {object} response.Envelope
// @Router /timetables/{courseId}/semesters/{semester} [get]
func (h *TimetableHandler) Grid(c *gin.Context) {
	semester, ok := semesterParam(c)
	if !ok {
		return
	}
	view, err := h.service.GetGrid(c.Request.Context(), c.Param("courseId"), semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// DeleteGrid godoc
// @Summary Delete every slot of a course-semester grid
// @Tags Timetable
// @Produce json
// @Param courseId path string true "Course ID"
// @Param semester path int true "Semester"
// @Success 200 {object} response.Envelope
// @Router /timetables/{courseId}/semesters/{semester} [delete]
func (h *TimetableHandler) DeleteGrid(c *gin.Context) {
	semester, ok := semesterParam(c)
	if !ok {
		return
	}
	h.deleteGrid(c, dto.DeleteGridRequest{CourseID: c.Param("courseId"), Semester: semester})
}

// Reset godoc
// @Summary Delete every slot of every grid
// @Description Requires all=true to guard against accidental resets.
// @Tags Timetable
// @Produce json
// @Param all query bool true "Must be true"
// @Success 200 {object} response.Envelope
// @Router /timetables [delete]
func (h *TimetableHandler) Reset(c *gin.Context) {
	if all, _ := strconv.ParseBool(c.Query("all")); !all {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "all=true is required to reset the timetable"))
		return
	}
	h.deleteGrid(c, dto.DeleteGridRequest{All: true})
}

func (h *TimetableHandler) deleteGrid(c *gin.Context, req dto.DeleteGridRequest) {
	result, err := h.service.DeleteGrid(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ClearCell godoc
// @Summary Remove the occupant of one timetable cell
// @Tags Timetable
// @Produce json
// @Param courseId path string true "Course ID"
// @Param semester path int true "Semester"
// @Param day query int true "Day of week, Monday = 1"
// @Param startTime query string true "Start time, HH:MM"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{courseId}/semesters/{semester}/slots [delete]
func (h *TimetableHandler) ClearCell(c *gin.Context) {
	semester, ok := semesterParam(c)
	if !ok {
		return
	}
	day, err := strconv.Atoi(c.Query("day"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day must be an integer between 1 and 7"))
		return
	}
	removed, err := h.service.ClearCell(c.Request.Context(), dto.ClearCellRequest{
		CourseID:  c.Param("courseId"),
		Semester:  semester,
		DayOfWeek: day,
		StartTime: c.Query("startTime"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, removed)
}

// Count godoc
// @Summary Count non-empty course-semester grids
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetables/count [get]
func (h *TimetableHandler) Count(c *gin.Context) {
	result, err := h.service.CountGrids(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func semesterParam(c *gin.Context) (int, bool) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil || semester < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be a positive integer"))
		return 0, false
	}
	return semester, true
}
