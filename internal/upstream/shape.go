package upstream

import (
	"fmt"
	"strconv"
)

// Shape selects how login and current-user bodies carry the user.
type Shape string

const (
	ShapeUser Shape = "user" // {"success":true,"token":..,"user":{..}}
	ShapeData Shape = "data" // {"success":true,"token":..,"data":{..}}
	ShapeBare Shape = "bare" // the user's fields at the top level
)

func ParseShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeUser, ShapeData, ShapeBare:
		return Shape(s), nil
	case "":
		return ShapeUser, nil
	default:
		return "", fmt.Errorf("unknown response shape %q (want user, data or bare)", s)
	}
}

func userFields(acc *Account) map[string]any {
	var id any = acc.ID
	if n, err := strconv.ParseInt(acc.ID, 10, 64); err == nil {
		id = n
	}
	return map[string]any{
		"id":       id,
		"email":    acc.Email,
		"fullName": acc.FullName,
		"role":     string(acc.Role),
	}
}

// body renders acc, and token when non-empty, in shape s.
func (s Shape) body(acc *Account, token string) map[string]any {
	var out map[string]any
	switch s {
	case ShapeData:
		out = map[string]any{"success": true, "data": userFields(acc)}
	case ShapeBare:
		out = userFields(acc)
	default:
		out = map[string]any{"success": true, "user": userFields(acc)}
	}
	if token != "" {
		out["token"] = token
	}
	return out
}
