package controller

import (
	"github.com/ironsheep/dental-detect/internal/detection"
	"github.com/ironsheep/dental-detect/internal/imaging"
)

// Event is an input to Reduce.
type Event interface {
	event()
}

// FileRejected reports an upload that failed validation or decoding.
type FileRejected struct {
	Message string
}

// FileLoaded reports a validated, decoded picture.
type FileLoaded struct {
	Picture  *imaging.Picture
	UploadID string
}

// AnalyzeRequested asks for a prediction of the loaded picture.
type AnalyzeRequested struct{}

// PredictionSucceeded delivers the response to request Token.
type PredictionSucceeded struct {
	Token  uint64
	Result *detection.Result
}

// PredictionFailed reports that request Token failed.
type PredictionFailed struct {
	Token   uint64
	Message string
}

// LabelToggled flips one label's visibility.
type LabelToggled struct {
	ID int
}

// ShowAllRequested selects every label.
type ShowAllRequested struct{}

// HideAllRequested deselects every label.
type HideAllRequested struct{}

func (FileRejected) event()        {}
func (FileLoaded) event()          {}
func (AnalyzeRequested) event()    {}
func (PredictionSucceeded) event() {}
func (PredictionFailed) event()    {}
func (LabelToggled) event()        {}
func (ShowAllRequested) event()    {}
func (HideAllRequested) event()    {}

// EffectKind names a side effect.
type EffectKind int

const (
	// ClearPanels empties the label list and treatment panel.
	ClearPanels EffectKind = iota
	// RedrawCanvas repaints the picture and every selected box.
	RedrawCanvas
	RefreshLabels
	RefreshTreatments
	ShowStatus
	// SetLoading shows or hides the loading indicator per State.Loading.
	SetLoading
	// RequestPrediction sends Effect.Picture to the prediction service.
	RequestPrediction
)

var effectNames = [...]string{
	ClearPanels:       "clear-panels",
	RedrawCanvas:      "redraw-canvas",
	RefreshLabels:     "refresh-labels",
	RefreshTreatments: "refresh-treatments",
	ShowStatus:        "show-status",
	SetLoading:        "set-loading",
	RequestPrediction: "request-prediction",
}

func (k EffectKind) String() string {
	if k >= 0 && int(k) < len(effectNames) {
		return effectNames[k]
	}
	return "unknown"
}

// Effect is a side effect requested by a transition.
type Effect struct {
	Kind EffectKind

	// Token and Picture are set for RequestPrediction.
	Token   uint64
	Picture *imaging.Picture
}

// Has reports whether effects contains one of kind.
func Has(effects []Effect, kind EffectKind) bool {
	_, ok := find(effects, kind)
	return ok
}

func find(effects []Effect, kind EffectKind) (Effect, bool) {
	for _, e := range effects {
		if e.Kind == kind {
			return e, true
		}
	}
	return Effect{}, false
}
