package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"fitconnect/internal/api"
	"fitconnect/internal/auth"
	"fitconnect/internal/booking"
	"fitconnect/internal/logger"
	"fitconnect/internal/studio"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// authorize resolves the studio id and checks the caller may see it.
func (h *Handler) authorize(c *gin.Context) (int, bool) {
	studioID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid studio ID"})
		return 0, false
	}

	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return 0, false
	}

	if err := h.service.Authorize(c.Request.Context(), userID, auth.GetUserRole(c), studioID); err != nil {
		if errors.Is(err, ErrForbidden) {
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "You do not manage this studio"})
			return 0, false
		}
		logger.Error("Dashboard authorization failed", "user_id", userID, "studio_id", studioID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to check access"})
		return 0, false
	}

	return studioID, true
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, studio.ErrStudioNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Studio not found"})
	case errors.Is(err, booking.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid status filter"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: msg})
	}
}

// @Summary      Studio dashboard
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Studio ID"
// @Success      200 {object} dashboard.Overview
// @Failure      403 {object} api.ErrorResponse
// @Router       /api/v1/dashboard/studios/{id} [get]
func (h *Handler) Overview(c *gin.Context) {
	studioID, ok := h.authorize(c)
	if !ok {
		return
	}

	overview, err := h.service.Overview(c.Request.Context(), studioID)
	if err != nil {
		h.fail(c, err, "Failed to load dashboard")
		return
	}

	c.JSON(http.StatusOK, overview)
}

// @Summary      Studio bookings
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  int    true  "Studio ID"
// @Param        status query string false "confirmed, waitlist, cancelled or all"
// @Success      200 {array} booking.BookingWithDetails
// @Router       /api/v1/dashboard/studios/{id}/bookings [get]
func (h *Handler) Bookings(c *gin.Context) {
	studioID, ok := h.authorize(c)
	if !ok {
		return
	}

	list, err := h.service.Bookings(c.Request.Context(), studioID, c.Query("status"))
	if err != nil {
		h.fail(c, err, "Failed to fetch bookings")
		return
	}

	if list == nil {
		list = []booking.BookingWithDetails{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Export(c *gin.Context) {
	studioID, ok := h.authorize(c)
	if !ok {
		return
	}

	buf, err := h.service.Export(c.Request.Context(), studioID, c.Query("status"))
	if err != nil {
		h.fail(c, err, "Failed to build report")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="studio-%d-bookings.xlsx"`, studioID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
