package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/middleware"
	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// RegisterTimetableRoutes mounts the timetable API on api. Reads need any
// authenticated user; mutations need ADMIN or SUPERADMIN.
func RegisterTimetableRoutes(api *gin.RouterGroup, h *TimetableHandler, tokens middleware.TokenValidator, logger *zap.Logger) {
	admin := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	timetables := api.Group("/timetables", middleware.JWT(tokens))
	timetables.GET("/time-slots", h.TimeSlots)
	timetables.GET("/count", h.Count)
	timetables.POST("/validate", h.Validate)
	timetables.GET("/:courseId/semesters/:semester", h.Grid)

	timetables.POST("/assign", admin, middleware.Audit(logger, "timetable.assign"), h.Assign)
	timetables.DELETE("", admin, middleware.Audit(logger, "timetable.reset"), h.Reset)
	timetables.DELETE("/:courseId/semesters/:semester", admin, middleware.Audit(logger, "timetable.delete_grid"), h.DeleteGrid)
	timetables.DELETE("/:courseId/semesters/:semester/slots", admin, middleware.Audit(logger, "timetable.clear_cell"), h.ClearCell)
}
