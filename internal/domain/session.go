package domain

// State represents user's current conversation state
type State string

const (
	StateAskName         State = "ask_name"
	StateAskBirth        State = "ask_birth"
	StateAskEmail        State = "ask_email"
	StateAskPassword     State = "ask_password"
	StateRegisterBackend State = "register_backend"
	StateMenu            State = "menu"
	StateEditName        State = "edit_name"
	StateEditBirth       State = "edit_birth"
)

// Mode represents how replies are delivered to the user
type Mode string

const (
	ModeText  Mode = "text"
	ModeVoice Mode = "voice"
)

// Session is the persisted per-user record: conversation state, profile
// data collected during onboarding, backend token and edit backups.
// It is stored as a single JSON document and rewritten in full on every
// mutation.
type Session struct {
	State State `json:"state"`
	Mode  Mode  `json:"mode"`

	Name  string `json:"name,omitempty"`
	Birth string `json:"birth,omitempty"` // DD.MM.YYYY as entered, not validated
	Email string `json:"email,omitempty"`
	// Password is kept to support re-login/re-registration against the
	// backend. Known sensitivity trade-off carried over from the product.
	Password string `json:"password,omitempty"`

	Token string `json:"token,omitempty"`

	// Backups exist only while the matching edit_* state is active.
	BackupName  *string `json:"backup_name,omitempty"`
	BackupBirth *string `json:"backup_birth,omitempty"`
}

// NewSession creates a fresh session at the start of onboarding
func NewSession() *Session {
	return &Session{
		State: StateAskName,
		Mode:  ModeText,
	}
}

// Normalize coerces unknown persisted values to safe defaults. Records
// written by older code must load without crashing the state machine.
func (s *Session) Normalize() {
	switch s.State {
	case StateAskName, StateAskBirth, StateAskEmail, StateAskPassword,
		StateRegisterBackend, StateMenu, StateEditName, StateEditBirth:
	default:
		s.State = StateMenu
	}

	switch s.Mode {
	case ModeText, ModeVoice:
	default:
		s.Mode = ModeText
	}
}

// Registered reports whether onboarding has collected the credentials
// needed to authenticate against the backend.
func (s *Session) Registered() bool {
	return s.Email != "" && s.Password != ""
}
