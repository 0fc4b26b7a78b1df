package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/timetable-api/internal/models"
	"github.com/opencampus/timetable-api/internal/service"
	appErrors "github.com/opencampus/timetable-api/pkg/errors"
	"github.com/opencampus/timetable-api/pkg/response"
)

// BookingHandler manages booking endpoints.
type BookingHandler struct {
	service *service.BookingService
}

// NewBookingHandler constructs handler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// BookExtra godoc
// @Summary Book a one-off extra class
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body service.BookExtraClassRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/extra [post]
func (h *BookingHandler) BookExtra(c *gin.Context) {
	var req service.BookExtraClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.BookExtraClass(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Param classroomId query string false "Filter by classroom"
// @Param professorId query string false "Filter by professor"
// @Param batchId query string false "Filter by batch"
// @Param courseId query string false "Filter by course"
// @Param recurrence query string false "Filter by recurrence"
// @Param dayOfWeek query string false "Filter by day"
// @Param dateFrom query string false "Extra bookings from date"
// @Param dateTo query string false "Extra bookings until date"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	var filter models.BookingFilter
	filter.ClassroomID = c.Query("classroomId")
	filter.ProfessorID = c.Query("professorId")
	filter.BatchID = c.Query("batchId")
	filter.CourseID = c.Query("courseId")
	filter.Recurrence = strings.ToUpper(c.Query("recurrence"))
	filter.DayOfWeek = strings.ToUpper(c.Query("dayOfWeek"))
	filter.DateFrom = c.Query("dateFrom")
	filter.DateTo = c.Query("dateTo")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	bookings, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, pagination)
}

// Get godoc
// @Summary Get a booking by id
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}
