package domain

// CycleState models the dictation lifecycle: one recording cycle runs
// Idle -> Recording -> Processing -> Idle.
type CycleState string

const (
	CycleStateIdle       CycleState = "idle"
	CycleStateRecording  CycleState = "recording"
	CycleStateProcessing CycleState = "processing"
)

// StatusKind identifies what the overlay/tray surface should show.
type StatusKind string

const (
	StatusRecording  StatusKind = "recording"
	StatusProcessing StatusKind = "processing"
	StatusCopied     StatusKind = "copied"
	StatusError      StatusKind = "error"
	StatusHidden     StatusKind = "hidden"
)

// ErrorCode identifies backend errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup ErrorCode = "startup"
	ErrorCodeConfig  ErrorCode = "config"
	ErrorCodeDevice  ErrorCode = "device"
)

// InputDevice is one selectable audio input.
type InputDevice struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Status summarizes the current runtime status for the UI.
type Status struct {
	State                CycleState `json:"state"`
	HasLastTranscription bool       `json:"hasLastTranscription"`
	Message              string     `json:"message,omitempty"`
}
