// Package controller holds the detection front end's state machine.
//
// State changes are computed by Reduce, a pure function of the current
// State and an Event that also returns the Effects the change calls for.
// Controller serializes events, runs the prediction request the effects ask
// for, and hands every (State, []Effect) pair to its sinks, which own all
// rendering.
package controller

import (
	"fmt"

	"github.com/ironsheep/dental-detect/internal/detection"
	"github.com/ironsheep/dental-detect/internal/imaging"
)

// Phase is the coarse stage of the workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFileLoaded
	PhaseAnalyzing
	PhaseResultsShown
)

var phaseNames = map[Phase]string{
	PhaseIdle:         "idle",
	PhaseFileLoaded:   "file-loaded",
	PhaseAnalyzing:    "analyzing",
	PhaseResultsShown: "results-shown",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// StatusKind classifies a status message.
type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusError   StatusKind = "error"
	StatusSuccess StatusKind = "success"
)

// Status is the banner shown to the user.
type Status struct {
	Message string     `json:"message"`
	Kind    StatusKind `json:"kind"`
}

// IsError reports whether the banner reports a failure.
func (s Status) IsError() bool {
	return s.Kind == StatusError
}

func infoStatus(msg string) Status    { return Status{Message: msg, Kind: StatusInfo} }
func errorStatus(msg string) Status   { return Status{Message: msg, Kind: StatusError} }
func successStatus(msg string) Status { return Status{Message: msg, Kind: StatusSuccess} }

// State is the complete front end state.
//
// Values are never modified in place; Picture and Result are shared
// read-only between states.
type State struct {
	Phase Phase

	// Picture is the loaded image, nil before the first successful load.
	Picture *imaging.Picture

	// UploadID identifies the loaded picture.
	UploadID string

	// Result is the last successful prediction for Picture.
	Result *detection.Result

	// Selection is always a subset of Result's label ids.
	Selection detection.Selection

	Loading bool
	Status  Status

	// Token identifies the newest prediction request. Responses carrying
	// any other token are stale.
	Token uint64
}

// HasResult reports whether a prediction result is on display.
func (s State) HasResult() bool {
	return s.Result != nil
}

// SelectedLabels returns the selected labels in result order.
func (s State) SelectedLabels() []detection.Label {
	return s.Selection.Labels(s.Result)
}

// Treatments returns the treatment panel for the current selection.
func (s State) Treatments() []detection.Treatment {
	return detection.Treatments(s.SelectedLabels())
}

// DisplaySize returns the canvas size, or 0x0 without a picture.
func (s State) DisplaySize() (int, int) {
	if s.Picture == nil {
		return 0, 0
	}
	return s.Picture.DisplaySize()
}
