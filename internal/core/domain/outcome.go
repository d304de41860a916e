package domain

// OutcomeKind tags an AuthOutcome.
type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "success"
	OutcomeRejected       OutcomeKind = "rejected"
	OutcomeNetworkFailure OutcomeKind = "network_failure"
	// OutcomeSuperseded marks a result dropped because a later login or
	// logout started while it was in flight.
	OutcomeSuperseded     OutcomeKind = "superseded"
)

// AuthOutcome is the result of login, register and current-user calls.
// Failures are carried as data; callers switch on Kind and render Message.
// Token is empty for current-user fetches and for registrations.
type AuthOutcome struct {
	Kind    OutcomeKind
	User    *User
	Token   string
	Message string
}

func Success(u *User, token string) AuthOutcome {
	return AuthOutcome{Kind: OutcomeSuccess, User: u.Clone(), Token: token}
}

func Rejected(msg string) AuthOutcome {
	return AuthOutcome{Kind: OutcomeRejected, Message: msg}
}

func NetworkFailure(msg string) AuthOutcome {
	return AuthOutcome{Kind: OutcomeNetworkFailure, Message: msg}
}

func Superseded() AuthOutcome {
	return AuthOutcome{Kind: OutcomeSuperseded, Message: "superseded by a newer sign-in or sign-out"}
}

func (o AuthOutcome) OK() bool { return o.Kind == OutcomeSuccess }

// Err converts a failed outcome into its sentinel error, nil on success.
func (o AuthOutcome) Err() error {
	switch o.Kind {
	case OutcomeSuccess:
		return nil
	case OutcomeRejected:
		return ErrAuthRejected
	case OutcomeNetworkFailure:
		return ErrNetworkFailure
	case OutcomeSuperseded:
		return ErrSuperseded
	default:
		return ErrNetworkFailure
	}
}
