package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/resolveit/session-client/internal/api/middleware"
	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/core/ports"
	"github.com/resolveit/session-client/internal/core/service"
)

const watchKeepAlive = 15 * time.Second

// SessionHandler exposes a client's session machine over HTTP.
type SessionHandler struct {
	sessions *service.SessionRegistry
	log      zerolog.Logger
}

func NewSessionHandler(sessions *service.SessionRegistry, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, log: log}
}

func (h *SessionHandler) machine(c echo.Context) *service.SessionMachine {
	return h.sessions.Get(c.Request().Context(), middleware.ClientID(c))
}

func snapshot(c echo.Context, m ports.SessionReader) sessionResponse {
	return toSessionResponse(m.Current(), m.IsAuthenticated(c.Request().Context()))
}

func outcomeStatus(out domain.AuthOutcome) int {
	switch out.Kind {
	case domain.OutcomeSuccess:
		return http.StatusOK
	case domain.OutcomeRejected:
		return http.StatusUnauthorized
	case domain.OutcomeNetworkFailure:
		return http.StatusBadGateway
	case domain.OutcomeSuperseded:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (h *SessionHandler) respond(c echo.Context, m ports.SessionReader, out domain.AuthOutcome) error {
	return c.JSON(outcomeStatus(out), outcomeResponse{
		Outcome: string(out.Kind),
		Message: out.Message,
		Session: snapshot(c, m),
	})
}

// Get returns the current session snapshot.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, snapshot(c, h.machine(c)))
}

// Watch streams session snapshots as Server-Sent Events until the client
// disconnects. The first event is the current snapshot.
//
// @Summary      Watch the session
// @Tags         session
// @Produce      text/event-stream
// @Success      200  {object}  sessionResponse
// @Router       /session/watch [get]
func (h *SessionHandler) Watch(c echo.Context) error {
	ctx := c.Request().Context()
	m, release := h.sessions.Hold(ctx, middleware.ClientID(c))
	defer release()

	updates, cancel := m.Subscribe()
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	keepAlive := time.NewTicker(watchKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			authed := s.State == domain.StateAuthenticated && m.IsAuthenticated(ctx)
			data, err := json.Marshal(toSessionResponse(s, authed))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "event: session\ndata: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

// Login signs the client in.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      ports.LoginInput  true  "Credentials"
// @Success      200   {object}  outcomeResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  outcomeResponse
// @Failure      409   {object}  outcomeResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  outcomeResponse
// @Router       /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req ports.LoginInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	m := h.machine(c)
	out := m.Login(c.Request().Context(), req.Email, req.Password)
	return h.respond(c, m, out)
}

// Register creates an account and signs the client in with it.
//
// @Summary      Register
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      ports.RegisterInput  true  "Account details"
// @Success      200   {object}  outcomeResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  outcomeResponse
// @Failure      409   {object}  outcomeResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  outcomeResponse
// @Router       /session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req ports.RegisterInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	m := h.machine(c)
	out := m.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	return h.respond(c, m, out)
}

// Logout clears the client's session. It never calls the upstream.
//
// @Summary      Logout
// @Tags         session
// @Success      204
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	h.machine(c).Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Refresh re-validates the stored token with the upstream.
//
// @Summary      Refresh the session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	m := h.machine(c)
	m.Refresh(c.Request().Context())
	return c.JSON(http.StatusOK, snapshot(c, m))
}
