package controller

import (
	"errors"
	"fmt"

	"github.com/ironsheep/dental-detect/internal/detection"
	"github.com/ironsheep/dental-detect/internal/imaging"
	"github.com/ironsheep/dental-detect/internal/predict"
)

// Status messages.
const (
	MsgFileSelected   = "File selected successfully"
	MsgNoFile         = "No file selected"
	MsgNotImage       = "File is not an image"
	MsgUnreadable     = "Could not read image"
	MsgNoImage        = "Please select an image first"
	MsgAnalyzing      = "Analyzing image..."
	MsgPredictError   = "Error during prediction"
	MsgPredictFailed  = "Prediction failed"
	MsgNoResults      = "No detection results to show"
	MsgNoFindings     = "No findings detected"
	msgTooLargeFormat = "File size too large. Please select an image under %dMB"
	msgUnknownLabel   = "Unknown label %d"
)

// Reduce computes the state that follows ev and the effects it requires.
//
// Reduce is pure: it performs no I/O and does not modify s.
func Reduce(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case FileRejected:
		s.Status = errorStatus(ev.Message)
		return s, []Effect{{Kind: ShowStatus}}

	case FileLoaded:
		// Bumping the token drops any response still in flight for the
		// previous picture.
		s.Token++
		s.Phase = PhaseFileLoaded
		s.Picture = ev.Picture
		s.UploadID = ev.UploadID
		s.Result = nil
		s.Selection = detection.Selection{}
		s.Loading = false
		s.Status = infoStatus(MsgFileSelected)
		return s, []Effect{
			{Kind: ClearPanels},
			{Kind: RedrawCanvas},
			{Kind: SetLoading},
			{Kind: ShowStatus},
		}

	case AnalyzeRequested:
		if s.Picture == nil {
			s.Status = errorStatus(MsgNoImage)
			return s, []Effect{{Kind: ShowStatus}}
		}
		s.Token++
		s.Phase = PhaseAnalyzing
		s.Loading = true
		s.Status = infoStatus(MsgAnalyzing)
		return s, []Effect{
			{Kind: SetLoading},
			{Kind: ShowStatus},
			{Kind: RequestPrediction, Token: s.Token, Picture: s.Picture},
		}

	case PredictionSucceeded:
		if ev.Token != s.Token {
			return s, nil
		}
		s.Phase = PhaseResultsShown
		s.Result = ev.Result
		s.Selection = detection.SelectAll(ev.Result)
		s.Loading = false
		s.Status = successStatus(findingsMessage(len(ev.Result.Labels)))
		return s, []Effect{
			{Kind: SetLoading},
			{Kind: RedrawCanvas},
			{Kind: RefreshLabels},
			{Kind: RefreshTreatments},
			{Kind: ShowStatus},
		}

	case PredictionFailed:
		if ev.Token != s.Token {
			return s, nil
		}
		s.Phase = PhaseFileLoaded
		if s.Result != nil {
			s.Phase = PhaseResultsShown
		}
		s.Loading = false
		s.Status = errorStatus(ev.Message)
		return s, []Effect{
			{Kind: SetLoading},
			{Kind: ShowStatus},
		}

	case LabelToggled:
		if s.Result == nil {
			s.Status = errorStatus(MsgNoResults)
			return s, []Effect{{Kind: ShowStatus}}
		}
		if _, ok := s.Result.Find(ev.ID); !ok {
			s.Status = errorStatus(fmt.Sprintf(msgUnknownLabel, ev.ID))
			return s, []Effect{{Kind: ShowStatus}}
		}
		s.Selection = s.Selection.Toggle(ev.ID)
		return s, selectionEffects()

	case ShowAllRequested:
		if s.Result == nil {
			s.Status = errorStatus(MsgNoResults)
			return s, []Effect{{Kind: ShowStatus}}
		}
		s.Selection = detection.SelectAll(s.Result)
		return s, selectionEffects()

	case HideAllRequested:
		if s.Result == nil {
			s.Status = errorStatus(MsgNoResults)
			return s, []Effect{{Kind: ShowStatus}}
		}
		s.Selection = detection.Selection{}
		return s, selectionEffects()
	}

	return s, nil
}

func selectionEffects() []Effect {
	return []Effect{
		{Kind: RedrawCanvas},
		{Kind: RefreshLabels},
		{Kind: RefreshTreatments},
	}
}

func findingsMessage(n int) string {
	switch n {
	case 0:
		return MsgNoFindings
	case 1:
		return "Found 1 finding"
	default:
		return fmt.Sprintf("Found %d findings", n)
	}
}

// RejectionMessage maps an intake error to its status message. maxBytes is
// the configured upload limit, used in the size message.
func RejectionMessage(err error, maxBytes int64) string {
	switch {
	case errors.Is(err, imaging.ErrNoFile):
		return MsgNoFile
	case errors.Is(err, imaging.ErrTooLarge):
		if maxBytes <= 0 {
			maxBytes = imaging.DefaultMaxUploadBytes
		}
		return fmt.Sprintf(msgTooLargeFormat, maxBytes/(1024*1024))
	case errors.Is(err, imaging.ErrNotImage):
		return MsgNotImage
	default:
		return MsgUnreadable
	}
}

// PredictionMessage maps a prediction error to its status message.
//
// Transport failures and service-side failures are worded differently,
// but are otherwise handled identically.
func PredictionMessage(err error) string {
	if errors.Is(err, predict.ErrTransport) {
		return MsgPredictError
	}
	return MsgPredictFailed
}
