package studio

import (
	"errors"
	"net/http"
	"strconv"

	"fitconnect/internal/api"
	"fitconnect/internal/geo"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// @Summary      List studios
// @Description  With lat/lon (or zip) studios are ranked closest first. Radius and distances use unit (mi or km, default mi).
// @Tags         studios
// @Produce      json
// @Param        lat    query number false "Latitude"
// @Param        lon    query number false "Longitude"
// @Param        zip    query string false "Zip code"
// @Param        radius query number false "Radius in the chosen unit"
// @Param        unit   query string false "Distance unit" Enums(mi, km)
// @Success      200 {array} studio.StudioWithDistance
// @Failure      400 {object} api.ErrorResponse
// @Router       /api/v1/studios [get]
func (h *Handler) ListStudios(c *gin.Context) {
	q, err := parseNearbyQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	studios, err := h.service.ListStudios(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch studios"})
		return
	}

	c.JSON(http.StatusOK, studios)
}

func parseNearbyQuery(c *gin.Context) (NearbyQuery, error) {
	var q NearbyQuery

	if zip := c.Query("zip"); zip != "" {
		p, ok := geo.CoordinatesForZip(zip)
		if !ok {
			return q, errors.New("unknown zip code")
		}
		q.Latitude, q.Longitude = &p.Latitude, &p.Longitude
	}

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" || lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return q, errors.New("invalid lat")
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return q, errors.New("invalid lon")
		}
		q.Latitude, q.Longitude = &lat, &lon
	}

	if r := c.Query("radius"); r != "" {
		radius, err := strconv.ParseFloat(r, 64)
		if err != nil || radius < 0 {
			return q, errors.New("invalid radius")
		}
		q.Radius = radius
	}

	if unit := c.Query("unit"); unit != "" {
		if !geo.ValidUnit(unit) {
			return q, errors.New("invalid unit")
		}
		q.Unit = unit
	}

	return q, nil
}

func (h *Handler) GetStudio(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid studio ID"})
		return
	}

	st, err := h.service.GetStudio(c.Request.Context(), id)
	if err != nil {
		respondStudioError(c, err, "Failed to fetch studio")
		return
	}

	c.JSON(http.StatusOK, st)
}

func (h *Handler) ListInstructors(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid studio ID"})
		return
	}

	instructors, err := h.service.GetInstructors(c.Request.Context(), id)
	if err != nil {
		respondStudioError(c, err, "Failed to fetch instructors")
		return
	}

	c.JSON(http.StatusOK, instructors)
}

func respondStudioError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, ErrStudioNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Studio not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: fallback})
}
