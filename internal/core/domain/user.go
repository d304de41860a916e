package domain

// User is the resolved identity behind a session. Snapshots are replaced
// wholesale on every transition and never mutated once published.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Role     Role   `json:"role"`
}

// Clone returns an independent copy of u (nil-safe).
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
