package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/resolveit/session-client/internal/api/middleware"
)

type pageResponse struct {
	Page string        `json:"page"`
	User *userResponse `json:"user,omitempty"`
}

// Page returns a placeholder body for a guarded page. The user comes from
// the snapshot Gate approved, so the page and the decision always agree.
func Page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := pageResponse{Page: name}
		if s, ok := middleware.SessionFrom(c); ok {
			resp.User = toUserResponse(s.User)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
