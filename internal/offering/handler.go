package offering

import (
	"errors"
	"net/http"
	"strconv"

	"fitconnect/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      List classes
// @Tags         classes
// @Produce      json
// @Param        type            query string false "Class type, repeatable or comma separated"
// @Param        difficulty      query string false "Beginner, Intermediate or Advanced"
// @Param        studio_id       query int    false "Studio"
// @Param        instructor_id   query int    false "Instructor"
// @Param        date            query string false "YYYY-MM-DD"
// @Param        min_price_cents query int    false "Minimum price"
// @Param        max_price_cents query int    false "Maximum price"
// @Param        search          query string false "Matches name, description or type"
// @Param        sort            query string false "time, price or popularity"
// @Success      200 {array} offering.Offering
// @Failure      400 {object} api.ErrorResponse
// @Router       /api/v1/classes [get]
func (h *Handler) ListClasses(c *gin.Context) {
	q, err := FromValues(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	list, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch classes"})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetClass(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrClassNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch class"})
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *Handler) ListStudioClasses(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid studio ID"})
		return
	}

	list, err := h.service.ListByStudio(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch classes"})
		return
	}

	c.JSON(http.StatusOK, list)
}
