package upload

import (
	"resume-analyzer-web/internal/analysis"
	"resume-analyzer-web/internal/fileref"
)

// Phase is the derived status of an UploadState.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// State is the client-held record of the selected file, request status,
// result and error. Snapshots handed out by Controller are not shared with it.
type State struct {
	File    *fileref.Ref     `json:"file,omitempty"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
	Result  *analysis.Result `json:"result,omitempty"`
}

// Phase derives the status from the fields.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Error != "":
		return PhaseFailed
	case s.Result != nil:
		return PhaseSucceeded
	default:
		return PhaseIdle
	}
}

// CanAnalyze reports whether the analyze action is enabled.
func (s State) CanAnalyze() bool {
	return s.File != nil && !s.Loading
}
