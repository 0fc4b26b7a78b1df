package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/timetable-api/internal/models"
	"github.com/opencampus/timetable-api/internal/service"
	appErrors "github.com/opencampus/timetable-api/pkg/errors"
	"github.com/opencampus/timetable-api/pkg/response"
)

// TimetableHandler serves per-resource schedule views and exports.
type TimetableHandler struct {
	service        *service.TimetableService
	exportsEnabled bool
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc *service.TimetableService, exportsEnabled bool) *TimetableHandler {
	return &TimetableHandler{service: svc, exportsEnabled: exportsEnabled}
}

// ByClassroom godoc
// @Summary Classroom timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Classroom ID"
// @Param from query string false "Extra bookings from date (YYYY-MM-DD)"
// @Param to query string false "Extra bookings until date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/timetable [get]
func (h *TimetableHandler) ByClassroom(c *gin.Context) {
	h.timetable(c, models.ResourceClassroom)
}

// ByProfessor godoc
// @Summary Professor timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Professor ID"
// @Param from query string false "Extra bookings from date (YYYY-MM-DD)"
// @Param to query string false "Extra bookings until date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/timetable [get]
func (h *TimetableHandler) ByProfessor(c *gin.Context) {
	h.timetable(c, models.ResourceProfessor)
}

// ByBatch godoc
// @Summary Batch timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Batch ID"
// @Param from query string false "Extra bookings from date (YYYY-MM-DD)"
// @Param to query string false "Extra bookings until date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/timetable [get]
func (h *TimetableHandler) ByBatch(c *gin.Context) {
	h.timetable(c, models.ResourceBatch)
}

// ExportClassroom godoc
// @Summary Export classroom timetable
// @Tags Timetables
// @Produce text/csv
// @Param id path string true "Classroom ID"
// @Param format query string true "csv or pdf"
// @Success 200
// @Router /classrooms/{id}/timetable/export [get]
func (h *TimetableHandler) ExportClassroom(c *gin.Context) {
	h.export(c, models.ResourceClassroom)
}

// ExportProfessor godoc
// @Summary Export professor timetable
// @Tags Timetables
// @Produce text/csv
// @Param id path string true "Professor ID"
// @Param format query string true "csv or pdf"
// @Success 200
// @Router /professors/{id}/timetable/export [get]
func (h *TimetableHandler) ExportProfessor(c *gin.Context) {
	h.export(c, models.ResourceProfessor)
}

// ExportBatch godoc
// @Summary Export batch timetable
// @Tags Timetables
// @Produce text/csv
// @Param id path string true "Batch ID"
// @Param format query string true "csv or pdf"
// @Success 200
// @Router /batches/{id}/timetable/export [get]
func (h *TimetableHandler) ExportBatch(c *gin.Context) {
	h.export(c, models.ResourceBatch)
}

func (h *TimetableHandler) timetable(c *gin.Context, kind models.ResourceKind) {
	window, err := parseWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	timetable, err := h.service.Timetable(c.Request.Context(), kind, c.Param("id"), window)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

func (h *TimetableHandler) export(c *gin.Context, kind models.ResourceKind) {
	if !h.exportsEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "timetable exports are disabled"))
		return
	}
	window, err := parseWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", service.ExportFormatCSV)
	payload, contentType, err := h.service.Export(c.Request.Context(), kind, c.Param("id"), window, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("%s-%s-timetable.%s", strings.ToLower(string(kind)), c.Param("id"), strings.ToLower(format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

func parseWindow(c *gin.Context) (models.DateWindow, error) {
	var window models.DateWindow
	if raw := c.Query("from"); raw != "" {
		date, err := models.ParseDate(raw)
		if err != nil {
			return window, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from date")
		}
		window.From = date
	}
	if raw := c.Query("to"); raw != "" {
		date, err := models.ParseDate(raw)
		if err != nil {
			return window, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to date")
		}
		window.To = date
	}
	return window, nil
}
