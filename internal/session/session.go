package session

// User is the authenticated local user, as resolved by the auth collaborator.
// DisplayName falls back to Email upstream when the user never set a name.
type User struct {
	ID          string
	DisplayName string
	Email       string
}

// Provider exposes the current session to the engine and composer. The core
// never issues auth calls itself; it only reads session state.
type Provider interface {
	CurrentUser() User
	Valid() bool
}

// Static is a fixed-session Provider, used by the shell after login and by
// tests.
type Static struct {
	User User
}

func (s Static) CurrentUser() User { return s.User }

func (s Static) Valid() bool { return s.User.ID != "" }
