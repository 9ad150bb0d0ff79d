// Package paymentflow drives a payment confirmation from intent creation
// through widget readiness, submission and step-up authentication to a
// terminal outcome. One Flow serves one payment context; starting over
// means a fresh intent and a fresh widget.
package paymentflow

import (
	"context"
	"errors"
	"sync"

	"github.com/spectra-metals/spectra-server/pkg/client"
	"go.uber.org/zap"
)

// State is the flow's position in the confirmation lifecycle.
type State int

const (
	StateIdle State = iota
	StateIntentRequested
	StateWidgetMounting
	StateWidgetReady
	StateSubmitting
	StateSucceeded
	StateDeclined
	StateStepUpRequired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIntentRequested:
		return "intent_requested"
	case StateWidgetMounting:
		return "widget_mounting"
	case StateWidgetReady:
		return "widget_ready"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateDeclined:
		return "declined"
	case StateStepUpRequired:
		return "step_up_required"
	}
	return "unknown"
}

// Intent is the handle a flow confirms against. It is never reused across
// flows; re-initiating discards the old one.
type Intent struct {
	ClientSecret  string
	CorrelationID string
}

// Initiator creates the payment intent for one context (order payment,
// new subscription, resumed subscription).
type Initiator interface {
	CreateIntent(ctx context.Context) (Intent, error)
}

// Element is the narrow boundary to the card widget: it mounts, reports
// readiness once, and can be destroyed.
type Element interface {
	Mount(ctx context.Context, onReady func()) error
	Destroy()
}

// ConfirmStatus classifies a confirmation attempt.
type ConfirmStatus int

const (
	ConfirmSucceeded ConfirmStatus = iota
	ConfirmDeclined
	ConfirmStepUp
)

// ConfirmResult is one confirmation round's outcome.
type ConfirmResult struct {
	Status         ConfirmStatus
	DeclineMessage string
	// IntentID and ClientSecret are set when Status is ConfirmStepUp.
	IntentID     string
	ClientSecret string
}

// Confirmer talks to the processor for one confirmation round and for the
// step-up challenge.
type Confirmer interface {
	Confirm(ctx context.Context, intent Intent, returnURL string) (ConfirmResult, error)
	HandleStepUp(ctx context.Context, intentID string) error
}

// Outcome is delivered to the caller's callback exactly once, on success.
// The correlation id is the one the Initiator produced, across any
// step-up round trip.
type Outcome struct {
	CorrelationID string
}

// Flow errors. All are corrective: the caller fixes the call order or
// retries deliberately; the flow never retries by itself.
var (
	ErrBusy      = errors.New("an operation is already in flight")
	ErrNoIntent  = errors.New("no payment intent; initiate first")
	ErrNotReady  = errors.New("payment widget is not ready")
	ErrAbandoned = errors.New("flow was abandoned")
)

// DeclinedError carries the processor's message verbatim. The submission
// is re-enabled; the caller may resubmit.
type DeclinedError struct {
	Message string
}

func (e *DeclinedError) Error() string {
	return e.Message
}

// NetworkError hides transport detail behind a generic retry-suggesting
// message. Backend-reported business errors never get this treatment;
// their messages pass through verbatim.
type NetworkError struct {
	cause error
}

func (e *NetworkError) Error() string {
	return "Something went wrong. Please check your connection and try again."
}

func (e *NetworkError) Unwrap() error {
	return e.cause
}

// fault classifies a failure: business errors the backend reported and
// the already-paid signal surface verbatim; everything else is a
// transport fault behind the generic message.
func fault(cause error) error {
	var businessErr *client.BusinessError
	if errors.As(cause, &businessErr) || errors.Is(cause, ErrAlreadyPaid) {
		return cause
	}
	return &NetworkError{cause: cause}
}

// Flow is one payment confirmation from start to outcome.
type Flow struct {
	initiator Initiator
	confirmer Confirmer
	onOutcome func(Outcome)
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	intent     Intent
	element    Element
	initiating bool
	submitting bool
}

// NewFlow builds a flow. The outcome callback may be nil. The flow owns a
// context derived from parent; Abandon cancels it.
func NewFlow(parent context.Context, initiator Initiator, confirmer Confirmer, onOutcome func(Outcome), logger *zap.Logger) *Flow {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Flow{
		initiator: initiator,
		confirmer: confirmer,
		onOutcome: onOutcome,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateIdle,
	}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Intent returns the current intent handle. Zero until initiation
// completes.
func (f *Flow) Intent() Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.intent
}

// Initiate requests a fresh intent and mounts the element. Any prior
// element is destroyed and any prior intent discarded first, so at most
// one element is ever ready. Only one initiation runs at a time.
func (f *Flow) Initiate(element Element) error {
	f.mu.Lock()
	if f.ctx.Err() != nil {
		f.mu.Unlock()
		return ErrAbandoned
	}
	if f.initiating || f.submitting {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.element != nil {
		f.element.Destroy()
		f.element = nil
	}
	f.intent = Intent{}
	f.state = StateIntentRequested
	f.initiating = true
	f.mu.Unlock()

	intent, err := f.initiator.CreateIntent(f.ctx)

	f.mu.Lock()
	f.initiating = false
	if f.ctx.Err() != nil {
		f.mu.Unlock()
		return ErrAbandoned
	}
	if err != nil {
		f.state = StateIdle
		f.mu.Unlock()
		f.logger.Warn("intent creation failed", zap.Error(err))
		return fault(err)
	}

	f.intent = intent
	f.element = element
	f.state = StateWidgetMounting
	f.mu.Unlock()

	if err := element.Mount(f.ctx, func() { f.elementReady(element) }); err != nil {
		f.mu.Lock()
		if f.element == element {
			f.element = nil
			f.intent = Intent{}
			f.state = StateIdle
		}
		f.mu.Unlock()
		f.logger.Warn("widget mount failed", zap.Error(err))
		return &NetworkError{cause: err}
	}

	return nil
}

// elementReady is invoked by the widget. Readiness from a superseded or
// abandoned element is ignored.
func (f *Flow) elementReady(element Element) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ctx.Err() != nil {
		return
	}
	if f.element != element || f.state != StateWidgetMounting {
		return
	}
	f.state = StateWidgetReady
}

// Submit runs one confirmation round. It refuses to touch the network
// before an intent exists and the widget is ready. A step-up challenge is
// resolved inline: challenge, then a second confirmation of the same
// intent. Declines re-enable submission; nothing retries automatically.
func (f *Flow) Submit(returnURL string) error {
	f.mu.Lock()
	if f.ctx.Err() != nil {
		f.mu.Unlock()
		return ErrAbandoned
	}
	if f.submitting || f.initiating {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.intent.ClientSecret == "" {
		f.mu.Unlock()
		return ErrNoIntent
	}
	if f.state != StateWidgetReady && f.state != StateStepUpRequired && f.state != StateDeclined {
		f.mu.Unlock()
		return ErrNotReady
	}
	resumeState := f.state
	f.state = StateSubmitting
	f.submitting = true
	intent := f.intent
	f.mu.Unlock()

	result, err := f.confirmer.Confirm(f.ctx, intent, returnURL)
	if err != nil {
		return f.finish(resumeState, err)
	}

	if result.Status == ConfirmStepUp {
		f.mu.Lock()
		if f.ctx.Err() != nil {
			f.mu.Unlock()
			return ErrAbandoned
		}
		f.state = StateStepUpRequired
		f.mu.Unlock()

		if err := f.confirmer.HandleStepUp(f.ctx, result.IntentID); err != nil {
			// A failed challenge is a decline, not a fault.
			return f.decline("Authentication failed. Please try again or use a different card.")
		}

		f.mu.Lock()
		if f.ctx.Err() != nil {
			f.mu.Unlock()
			return ErrAbandoned
		}
		f.state = StateSubmitting
		f.mu.Unlock()

		result, err = f.confirmer.Confirm(f.ctx, intent, returnURL)
		if err != nil {
			return f.finish(StateStepUpRequired, err)
		}
		if result.Status == ConfirmStepUp {
			return f.decline("Authentication could not be completed.")
		}
	}

	if result.Status == ConfirmDeclined {
		return f.decline(result.DeclineMessage)
	}

	f.mu.Lock()
	f.submitting = false
	if f.ctx.Err() != nil {
		f.mu.Unlock()
		return ErrAbandoned
	}
	f.state = StateSucceeded
	correlationID := f.intent.CorrelationID
	callback := f.onOutcome
	f.mu.Unlock()

	f.logger.Info("payment confirmed", zap.String("correlation_id", correlationID))
	if callback != nil {
		callback(Outcome{CorrelationID: correlationID})
	}
	return nil
}

// Abandon cancels the flow. In-flight work completes as a no-op; further
// calls return ErrAbandoned.
func (f *Flow) Abandon() {
	f.cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.element != nil {
		f.element.Destroy()
		f.element = nil
	}
}

func (f *Flow) finish(resumeState State, cause error) error {
	f.mu.Lock()
	f.submitting = false
	if f.ctx.Err() != nil {
		f.mu.Unlock()
		return ErrAbandoned
	}
	f.state = resumeState
	f.mu.Unlock()

	f.logger.Warn("confirmation failed", zap.Error(cause))
	return fault(cause)
}

func (f *Flow) decline(message string) error {
	f.mu.Lock()
	f.submitting = false
	if f.ctx.Err() != nil {
		f.mu.Unlock()
		return ErrAbandoned
	}
	f.state = StateDeclined
	f.mu.Unlock()

	return &DeclinedError{Message: message}
}
