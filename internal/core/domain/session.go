package domain

// SessionState is the lifecycle position of a client session.
type SessionState string

const (
	StateBooting         SessionState = "booting"
	StateUnauthenticated SessionState = "unauthenticated"
	StateAuthenticating  SessionState = "authenticating"
	StateAuthenticated   SessionState = "authenticated"
	StateTransientError  SessionState = "transient_error"
)

// Settled reports whether the state is final for the current bootstrap, i.e.
// no fetch is pending.
func (s SessionState) Settled() bool {
	switch s {
	case StateBooting, StateAuthenticating:
		return false
	case StateUnauthenticated, StateAuthenticated, StateTransientError:
		return true
	default:
		return false
	}
}

// Session is one atomic snapshot of the client's authentication status.
// User is set only in StateAuthenticated, Message only in StateTransientError.
type Session struct {
	State   SessionState `json:"state"`
	User    *User        `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

func BootingSession() Session         { return Session{State: StateBooting} }
func UnauthenticatedSession() Session { return Session{State: StateUnauthenticated} }
func AuthenticatingSession() Session  { return Session{State: StateAuthenticating} }

func AuthenticatedSession(u *User) Session {
	return Session{State: StateAuthenticated, User: u.Clone()}
}

func TransientErrorSession(msg string) Session {
	return Session{State: StateTransientError, Message: msg}
}

// Snapshot returns a copy that shares nothing mutable with s.
func (s Session) Snapshot() Session {
	s.User = s.User.Clone()
	return s
}
