package upstream

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type Handler struct {
	svc   *Service
	shape Shape
	log   zerolog.Logger
}

func NewHandler(svc *Service, shape Shape, log zerolog.Logger) *Handler {
	if shape == "" {
		shape = ShapeUser
	}
	return &Handler{svc: svc, shape: shape, log: log}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, failure{Success: false, Error: msg})
}

// Register creates a USER account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      200   {object}  map[string]any
// @Failure      400   {object}  failure
// @Failure      500   {object}  failure
// @Router       /auth/register [post]
func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	token, acc, err := h.svc.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountExists):
			return fail(c, http.StatusBadRequest, "Email already exists")
		case errors.Is(err, ErrInvalidInput):
			return fail(c, http.StatusBadRequest, "Name, email and password are required")
		}
		h.log.Error().Err(err).Str("email", req.Email).Msg("register failed")
		return fail(c, http.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(http.StatusOK, ShapeUser.body(acc, token))
}

// Login authenticates an account and returns a token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  map[string]any
// @Failure      401   {object}  failure
// @Router       /auth/login [post]
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	token, acc, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return fail(c, http.StatusUnauthorized, "Invalid email or password")
		}
		h.log.Error().Err(err).Str("email", req.Email).Msg("login failed")
		return fail(c, http.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(http.StatusOK, h.shape.body(acc, token))
}

// Me returns the account behind the bearer token.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  failure
// @Router       /auth/me [get]
func (h *Handler) Me(c echo.Context) error {
	acc, ok := c.Get(accountKey).(*Account)
	if !ok || acc == nil {
		return fail(c, http.StatusUnauthorized, "Invalid token")
	}
	return c.JSON(http.StatusOK, h.shape.body(acc, ""))
}
