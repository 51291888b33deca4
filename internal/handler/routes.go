package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
)

// RegisterTimetableRoutes mounts the timetable API on group. Every route needs a school scoped
// token; writes additionally need an administrator role.
func RegisterTimetableRoutes(group *gin.RouterGroup, auth middleware.TokenValidator, timetables *TimetableHandler, slots *TimetableSlotHandler) {
	protected := group.Group("/timetable", middleware.JWT(auth), middleware.RequireSchool())
	admin := middleware.RequireRoles(middleware.TimetableAdmins...)

	protected.POST("/generate", admin, timetables.Generate)
	protected.POST("/grid/preview", timetables.PreviewGrid)
	protected.GET("/classes/:classId", timetables.ClassTimetable)
	protected.GET("/classes/:classId/export", timetables.ExportClass)
	protected.GET("/teachers/:teacherId", timetables.TeacherTimetable)

	protected.GET("/slots", slots.List)
	protected.GET("/slots/:id", slots.Get)
	protected.POST("/slots", admin, slots.Create)
	protected.PATCH("/slots/:id", admin, slots.Update)
	protected.DELETE("/slots/:id", admin, slots.Delete)
}
