package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/dental-detect/internal/detection"
	"github.com/ironsheep/dental-detect/internal/imaging"
	"github.com/ironsheep/dental-detect/internal/logger"
)

// ErrSuperseded is returned by Analyze when a newer file load or analysis
// made the response stale. The response was discarded.
var ErrSuperseded = errors.New("prediction superseded by a newer request")

// Predictor runs a prediction on an image encoded as a data URI.
type Predictor interface {
	Predict(ctx context.Context, dataURI string) (*detection.Result, error)
}

// Sink applies effects. Sinks are called with the controller lock held, in
// event order, and must not call back into the Controller.
type Sink interface {
	Apply(s State, effects []Effect)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(s State, effects []Effect)

// Apply calls f(s, effects).
func (f SinkFunc) Apply(s State, effects []Effect) {
	f(s, effects)
}

// Controller owns the State and dispatches events to Reduce one at a time.
type Controller struct {
	mu        sync.Mutex
	state     State
	predictor Predictor
	sinks     []Sink
	intake    imaging.IntakeOptions
	newID     func() string
	log       *logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithSink registers a sink at construction time.
func WithSink(s Sink) Option {
	return func(c *Controller) { c.sinks = append(c.sinks, s) }
}

// WithIntakeOptions sets the upload limit and display box.
func WithIntakeOptions(opts imaging.IntakeOptions) Option {
	return func(c *Controller) { c.intake = opts }
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithIDGenerator replaces the upload id generator (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// New creates a Controller in the idle phase.
func New(p Predictor, opts ...Option) *Controller {
	c := &Controller{
		predictor: p,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddSink registers a sink. It receives effects from the next event on.
func (c *Controller) AddSink(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, s)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// MaxUploadBytes returns the configured upload limit.
func (c *Controller) MaxUploadBytes() int64 {
	if c.intake.MaxBytes > 0 {
		return c.intake.MaxBytes
	}
	return imaging.DefaultMaxUploadBytes
}

// Dispatch applies ev and returns the new state and the effects applied.
func (c *Controller) Dispatch(ev Event) (State, []Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, effects := Reduce(c.state, ev)
	c.state = next

	if len(effects) > 0 {
		c.log.Debug("%T -> phase=%s token=%d effects=%d", ev, next.Phase, next.Token, len(effects))
		for _, s := range c.sinks {
			s.Apply(next, effects)
		}
	}
	return next, effects
}

// LoadFile validates and decodes u and makes it the current picture.
//
// A rejected file leaves the picture, result and selection unchanged and
// only updates the status banner. The returned error is the intake error.
func (c *Controller) LoadFile(u *imaging.Upload) (State, error) {
	// Decoding happens outside the lock; it is the slow part.
	pic, err := imaging.Intake(u, c.intake)
	if err != nil {
		c.log.Info("Rejected upload: %v", err)
		st, _ := c.Dispatch(FileRejected{Message: RejectionMessage(err, c.MaxUploadBytes())})
		return st, err
	}

	id := c.newID()
	w, h := pic.DisplaySize()
	c.log.Info("Loaded %q (%s, %d bytes, %dx%d shown at %dx%d) as %s",
		pic.Name, pic.MediaType, pic.Size, pic.NaturalWidth, pic.NaturalHeight, w, h, id)

	st, _ := c.Dispatch(FileLoaded{Picture: pic, UploadID: id})
	return st, nil
}

// Reject reports an upload that failed before it could be read, e.g. a
// request body over the size limit. err is mapped like an intake error.
func (c *Controller) Reject(err error) State {
	c.log.Info("Rejected upload: %v", err)
	st, _ := c.Dispatch(FileRejected{Message: RejectionMessage(err, c.MaxUploadBytes())})
	return st
}

// Analyze sends the current picture to the predictor and applies the
// response, blocking until it arrives or fails.
//
// The request runs without holding the lock, so other events may be
// dispatched meanwhile. If one of them changes the request token, the
// response is discarded and ErrSuperseded returned. Prediction failures are
// reported on the status banner and returned.
func (c *Controller) Analyze(ctx context.Context) (State, error) {
	st, effects := c.Dispatch(AnalyzeRequested{})
	req, ok := find(effects, RequestPrediction)
	if !ok {
		return st, nil
	}

	c.log.Info("Requesting prediction for %s (token %d)", st.UploadID, req.Token)
	result, err := c.predictor.Predict(ctx, req.Picture.DataURI())

	var applied []Effect
	if err != nil {
		c.log.Warning("Prediction for token %d failed: %v", req.Token, err)
		st, applied = c.Dispatch(PredictionFailed{Token: req.Token, Message: PredictionMessage(err)})
	} else {
		st, applied = c.Dispatch(PredictionSucceeded{Token: req.Token, Result: result})
	}

	if applied == nil {
		c.log.Info("Dropped stale prediction response (token %d, current %d)", req.Token, st.Token)
		return st, ErrSuperseded
	}
	if err == nil {
		c.log.Info("Prediction for token %d returned %d labels", req.Token, len(result.Labels))
	}
	return st, err
}

// Toggle flips the visibility of label id.
func (c *Controller) Toggle(id int) State {
	st, _ := c.Dispatch(LabelToggled{ID: id})
	return st
}

// ShowAll selects every label of the current result.
func (c *Controller) ShowAll() State {
	st, _ := c.Dispatch(ShowAllRequested{})
	return st
}

// HideAll clears the selection.
func (c *Controller) HideAll() State {
	st, _ := c.Dispatch(HideAllRequested{})
	return st
}
