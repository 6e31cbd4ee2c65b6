package favorite

import (
	"errors"
	"net/http"
	"strconv"

	"fitconnect/internal/api"
	"fitconnect/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      List my favorites
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} favorite.Set
// @Router       /api/v1/favorites [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	set, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch favorites"})
		return
	}

	c.JSON(http.StatusOK, set)
}

// @Summary      Toggle a favorite
// @Tags         favorites
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body favorite.ToggleRequest true "Studio or class"
// @Success      200 {object} favorite.ToggleResponse
// @Failure      400 {object} api.ErrorResponse
// @Router       /api/v1/favorites/toggle [post]
func (h *Handler) Toggle(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	favorited, err := h.service.Toggle(c.Request.Context(), userID, req.Type, req.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ToggleResponse{Type: req.Type, ID: req.ID, Favorited: favorited})
}

func (h *Handler) Add(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.service.Add(c.Request.Context(), userID, req.Type, req.ID); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, ToggleResponse{Type: req.Type, ID: req.ID, Favorited: true})
}

func (h *Handler) Remove(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid ID"})
		return
	}

	if err := h.service.Remove(c.Request.Context(), userID, c.Param("type"), itemID); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Favorite removed"})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidType) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update favorites"})
}
