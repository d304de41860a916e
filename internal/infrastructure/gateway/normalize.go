package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/resolveit/session-client/internal/core/domain"
)

const malformedMessage = "malformed response"

// envelope is the union of every top-level field the upstream is known to
// send. Which fields are populated decides the response shape.
type envelope struct {
	Success *bool           `json:"success"`
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
	Data    json.RawMessage `json:"data"`
	ID      json.RawMessage `json:"id"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type wireUser struct {
	ID       json.RawMessage `json:"id"`
	Email    string          `json:"email"`
	FullName string          `json:"fullName"`
	Name     string          `json:"name"`
	Role     string          `json:"role"`
}

// userShape identifies where a response carries the user.
type userShape int

const (
	shapeUnknown   userShape = iota
	shapeUserField           // {"user": {...}}
	shapeDataField           // {"success": true, "data": {...}}
	shapeBare                // the body is the user
)

func decodeEnvelope(body []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return env, nil
}

func (e envelope) succeeded() bool { return e.Success != nil && *e.Success }
func (e envelope) failed() bool    { return e.Success != nil && !*e.Success }

func (e envelope) shape() userShape {
	switch {
	case present(e.User):
		return shapeUserField
	case e.succeeded() && present(e.Data):
		return shapeDataField
	case present(e.ID):
		return shapeBare
	default:
		return shapeUnknown
	}
}

// serverMessage prefers the upstream's own wording.
func (e envelope) serverMessage(fallback string) string {
	switch {
	case strings.TrimSpace(e.Error) != "":
		return e.Error
	case strings.TrimSpace(e.Message) != "":
		return e.Message
	default:
		return fallback
	}
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// normalizeUser extracts the user from any of the three recognised shapes.
func normalizeUser(body []byte, env envelope) (*domain.User, error) {
	var raw json.RawMessage
	switch env.shape() {
	case shapeUserField:
		raw = env.User
	case shapeDataField:
		raw = env.Data
	case shapeBare:
		raw = body
	case shapeUnknown:
		return nil, fmt.Errorf("%w: no user in body", domain.ErrMalformedResponse)
	}

	var wu wireUser
	if err := json.Unmarshal(raw, &wu); err != nil {
		return nil, fmt.Errorf("%w: user: %v", domain.ErrMalformedResponse, err)
	}
	return wu.toDomain()
}

func (w wireUser) toDomain() (*domain.User, error) {
	id, err := decodeID(w.ID)
	if err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(w.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	fullName := w.FullName
	if fullName == "" {
		fullName = w.Name
	}
	return &domain.User{ID: id, Email: w.Email, FullName: fullName, Role: role}, nil
}

// decodeID accepts numeric and string identifiers.
func decodeID(raw json.RawMessage) (string, error) {
	if present(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s, nil
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String(), nil
		}
	}
	return "", fmt.Errorf("%w: user without id", domain.ErrMalformedResponse)
}

// errorMessage reads the message of a non-2xx body, which may not be JSON.
func errorMessage(body []byte, fallback string) string {
	env, err := decodeEnvelope(body)
	if err != nil {
		return fallback
	}
	return env.serverMessage(fallback)
}

func failedStatus(status int) string {
	return fmt.Sprintf("Request failed with status %d", status)
}

func is2xx(status int) bool { return status >= 200 && status < 300 }
func is4xx(status int) bool { return status >= 400 && status < 500 }

// ── Per-operation normalisation ──────────────────────────────────────────────

func normalizeLogin(status int, body []byte) (domain.AuthOutcome, error) {
	switch {
	case is2xx(status):
		env, err := decodeEnvelope(body)
		if err != nil {
			return domain.NetworkFailure(malformedMessage), err
		}
		if env.failed() {
			return domain.Rejected(env.serverMessage("Login failed")), nil
		}
		user, err := normalizeUser(body, env)
		if err != nil {
			return domain.NetworkFailure(malformedMessage), err
		}
		if env.Token == "" {
			return domain.NetworkFailure(malformedMessage), fmt.Errorf("%w: login without token", domain.ErrMalformedResponse)
		}
		return domain.Success(user, env.Token), nil
	case is4xx(status):
		return domain.Rejected(errorMessage(body, "Invalid email or password")), nil
	default:
		return domain.NetworkFailure(errorMessage(body, failedStatus(status))), nil
	}
}

func normalizeRegister(status int, body []byte) (domain.AuthOutcome, error) {
	switch {
	case is2xx(status):
		env, err := decodeEnvelope(body)
		if err != nil {
			return domain.NetworkFailure(malformedMessage), err
		}
		if !env.succeeded() {
			return domain.Rejected(env.serverMessage("Registration failed")), nil
		}
		// The account exists at this point; a missing or odd user payload
		// does not undo that.
		user, err := normalizeUser(body, env)
		if err != nil {
			user = nil
		}
		return domain.Success(user, ""), nil
	case is4xx(status):
		return domain.Rejected(errorMessage(body, "Registration failed")), nil
	default:
		return domain.NetworkFailure(errorMessage(body, failedStatus(status))), nil
	}
}

func normalizeCurrentUser(status int, body []byte) (domain.AuthOutcome, error) {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.Rejected(errorMessage(body, "Invalid token")), nil
	case is2xx(status):
		env, err := decodeEnvelope(body)
		if err != nil {
			return domain.NetworkFailure(malformedMessage), err
		}
		user, err := normalizeUser(body, env)
		if err != nil {
			return domain.NetworkFailure(malformedMessage), err
		}
		return domain.Success(user, ""), nil
	default:
		return domain.NetworkFailure(errorMessage(body, failedStatus(status))), nil
	}
}

// isMalformed reports whether err came from shape recognition.
func isMalformed(err error) bool {
	return errors.Is(err, domain.ErrMalformedResponse)
}
