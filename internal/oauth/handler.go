package oauth

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"fitconnect/internal/api"

	"github.com/gin-gonic/gin"
)

type AuthURLResponse struct {
	URL string `json:"url"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Start OAuth sign-in
// @Tags         auth
// @Produce      json
// @Param        provider    path  string true  "google or github"
// @Param        redirect_to query string false "Where to send the browser afterwards"
// @Success      200 {object} oauth.AuthURLResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /auth/oauth/{provider} [get]
func (h *Handler) Start(c *gin.Context) {
	authURL, err := h.service.AuthURL(c.Request.Context(), c.Param("provider"), c.Query("redirect_to"))
	if err != nil {
		if errors.Is(err, ErrUnknownProvider) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Unknown provider"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to start sign-in"})
		return
	}

	c.JSON(http.StatusOK, AuthURLResponse{URL: authURL})
}

// Callback completes the provider round trip. With a stored redirect target
// the tokens travel in the URL fragment; otherwise they come back as JSON.
func (h *Handler) Callback(c *gin.Context) {
	if msg := c.Query("error"); msg != "" {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Provider refused sign-in: " + msg})
		return
	}

	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "code and state are required"})
		return
	}

	resp, redirectTo, err := h.service.Callback(c.Request.Context(), c.Param("provider"), state, code)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownProvider):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Unknown provider"})
		case errors.Is(err, ErrInvalidState):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Sign-in link expired, please try again"})
		case errors.Is(err, ErrIncompleteProfile):
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Provider did not share an e-mail address"})
		default:
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Sign-in failed"})
		}
		return
	}

	if redirectTo == "" || resp.Session == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	fragment := url.Values{}
	fragment.Set("access_token", resp.Session.AccessToken)
	fragment.Set("refresh_token", resp.Session.RefreshToken)
	fragment.Set("expires_at", resp.Session.ExpiresAt.UTC().Format(time.RFC3339))
	c.Redirect(http.StatusFound, redirectTo+"#"+fragment.Encode())
}
