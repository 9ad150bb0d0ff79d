package paymentflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInitiator struct {
	mu      sync.Mutex
	intent  Intent
	err     error
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (i *fakeInitiator) CreateIntent(ctx context.Context) (Intent, error) {
	i.mu.Lock()
	i.calls++
	entered, release := i.entered, i.release
	i.mu.Unlock()
	if entered != nil {
		close(entered)
	}
	if release != nil {
		<-release
	}
	return i.intent, i.err
}

func (i *fakeInitiator) callCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.calls
}

type fakeElement struct {
	mu        sync.Mutex
	onReady   func()
	mountErr  error
	mounts    int
	destroyed bool
}

func (e *fakeElement) Mount(ctx context.Context, onReady func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mounts++
	if e.mountErr != nil {
		return e.mountErr
	}
	e.onReady = onReady
	return nil
}

func (e *fakeElement) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
}

func (e *fakeElement) fireReady() {
	e.mu.Lock()
	onReady := e.onReady
	e.mu.Unlock()
	if onReady != nil {
		onReady()
	}
}

func (e *fakeElement) isDestroyed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

type fakeConfirmer struct {
	mu         sync.Mutex
	results    []ConfirmResult
	errs       []error
	confirmed  []Intent
	stepUpErr  error
	stepUpIDs  []string
	entered    chan struct{}
	release    chan struct{}
}

func (c *fakeConfirmer) Confirm(ctx context.Context, intent Intent, returnURL string) (ConfirmResult, error) {
	c.mu.Lock()
	c.confirmed = append(c.confirmed, intent)
	idx := len(c.confirmed) - 1
	entered, release := c.entered, c.release
	c.entered, c.release = nil, nil
	c.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if release != nil {
		<-release
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var result ConfirmResult
	var err error
	if idx < len(c.results) {
		result = c.results[idx]
	}
	if idx < len(c.errs) {
		err = c.errs[idx]
	}
	return result, err
}

func (c *fakeConfirmer) HandleStepUp(ctx context.Context, intentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepUpIDs = append(c.stepUpIDs, intentID)
	return c.stepUpErr
}

func (c *fakeConfirmer) confirmCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.confirmed)
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *outcomeRecorder) record(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *outcomeRecorder) all() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

func newReadyFlow(t *testing.T, confirmer *fakeConfirmer) (*Flow, *fakeElement, *outcomeRecorder) {
	t.Helper()
	initiator := &fakeInitiator{intent: Intent{ClientSecret: "secret_1", CorrelationID: "sub_1"}}
	recorder := &outcomeRecorder{}
	flow := NewFlow(context.Background(), initiator, confirmer, recorder.record, zap.NewNop())
	element := &fakeElement{}
	require.NoError(t, flow.Initiate(element))
	element.fireReady()
	require.Equal(t, StateWidgetReady, flow.State())
	return flow, element, recorder
}

func TestFlowSubmitBeforeInitiate(t *testing.T) {
	confirmer := &fakeConfirmer{}
	flow := NewFlow(context.Background(), &fakeInitiator{}, confirmer, nil, zap.NewNop())

	err := flow.Submit("https://example.com/return")

	assert.ErrorIs(t, err, ErrNoIntent)
	assert.Equal(t, 0, confirmer.confirmCount())
	assert.Equal(t, StateIdle, flow.State())
}

func TestFlowSubmitWhileMounting(t *testing.T) {
	confirmer := &fakeConfirmer{}
	initiator := &fakeInitiator{intent: Intent{ClientSecret: "secret_1", CorrelationID: "sub_1"}}
	flow := NewFlow(context.Background(), initiator, confirmer, nil, zap.NewNop())
	element := &fakeElement{}
	require.NoError(t, flow.Initiate(element))
	require.Equal(t, StateWidgetMounting, flow.State())

	err := flow.Submit("https://example.com/return")

	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 0, confirmer.confirmCount())
}

func TestFlowSuccessDeliversOutcome(t *testing.T) {
	confirmer := &fakeConfirmer{results: []ConfirmResult{{Status: ConfirmSucceeded}}}
	flow, _, recorder := newReadyFlow(t, confirmer)

	err := flow.Submit("https://example.com/return")

	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, flow.State())
	outcomes := recorder.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, "sub_1", outcomes[0].CorrelationID)
}

func TestFlowReinitiateDestroysPriorElement(t *testing.T) {
	confirmer := &fakeConfirmer{}
	initiator := &fakeInitiator{intent: Intent{ClientSecret: "secret_1", CorrelationID: "sub_1"}}
	flow := NewFlow(context.Background(), initiator, confirmer, nil, zap.NewNop())

	first := &fakeElement{}
	require.NoError(t, flow.Initiate(first))
	first.fireReady()
	require.Equal(t, StateWidgetReady, flow.State())

	second := &fakeElement{}
	require.NoError(t, flow.Initiate(second))

	assert.True(t, first.isDestroyed())
	assert.False(t, second.isDestroyed())
	assert.Equal(t, StateWidgetMounting, flow.State())

	// A late readiness signal from the replaced widget changes nothing.
	first.fireReady()
	assert.Equal(t, StateWidgetMounting, flow.State())

	second.fireReady()
	assert.Equal(t, StateWidgetReady, flow.State())
}

func TestFlowConcurrentSubmitReturnsBusy(t *testing.T) {
	confirmer := &fakeConfirmer{
		results: []ConfirmResult{{Status: ConfirmSucceeded}},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	entered, release := confirmer.entered, confirmer.release
	flow, _, _ := newReadyFlow(t, confirmer)

	done := make(chan error, 1)
	go func() {
		done <- flow.Submit("https://example.com/return")
	}()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first submission never reached the confirmer")
	}

	err := flow.Submit("https://example.com/return")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, confirmer.confirmCount())
}

func TestFlowConcurrentInitiateReturnsBusy(t *testing.T) {
	initiator := &fakeInitiator{
		intent:  Intent{ClientSecret: "secret_1", CorrelationID: "sub_1"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	flow := NewFlow(context.Background(), initiator, &fakeConfirmer{}, nil, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- flow.Initiate(&fakeElement{})
	}()

	select {
	case <-initiator.entered:
	case <-time.After(time.Second):
		t.Fatal("first initiation never reached the initiator")
	}

	err := flow.Initiate(&fakeElement{})
	assert.ErrorIs(t, err, ErrBusy)

	close(initiator.release)
	require.NoError(t, <-done)
}

func TestFlowStepUpKeepsCorrelationID(t *testing.T) {
	confirmer := &fakeConfirmer{
		results: []ConfirmResult{
			{Status: ConfirmStepUp, IntentID: "pi_1", ClientSecret: "pi_1_secret"},
			{Status: ConfirmSucceeded},
		},
	}
	flow, _, recorder := newReadyFlow(t, confirmer)

	err := flow.Submit("https://example.com/return")

	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, flow.State())
	assert.Equal(t, []string{"pi_1"}, confirmer.stepUpIDs)

	// Both confirmation rounds use the same intent handle.
	require.Equal(t, 2, confirmer.confirmCount())
	assert.Equal(t, confirmer.confirmed[0], confirmer.confirmed[1])

	outcomes := recorder.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, "sub_1", outcomes[0].CorrelationID)
}

func TestFlowStepUpFailureIsDecline(t *testing.T) {
	confirmer := &fakeConfirmer{
		results: []ConfirmResult{
			{Status: ConfirmStepUp, IntentID: "pi_1"},
			{Status: ConfirmSucceeded},
		},
		stepUpErr: errors.New("challenge dismissed"),
	}
	flow, _, recorder := newReadyFlow(t, confirmer)

	err := flow.Submit("https://example.com/return")

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, StateDeclined, flow.State())
	assert.Equal(t, 1, confirmer.confirmCount())
	assert.Empty(t, recorder.all())

	// The decline is not terminal; a resubmission runs.
	confirmer.mu.Lock()
	confirmer.stepUpErr = nil
	confirmer.mu.Unlock()
	require.NoError(t, flow.Submit("https://example.com/return"))
	assert.Equal(t, StateSucceeded, flow.State())
}

func TestFlowDeclineMessageVerbatim(t *testing.T) {
	confirmer := &fakeConfirmer{
		results: []ConfirmResult{
			{Status: ConfirmDeclined, DeclineMessage: "Your card was declined."},
			{Status: ConfirmSucceeded},
		},
	}
	flow, _, recorder := newReadyFlow(t, confirmer)

	err := flow.Submit("https://example.com/return")

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "Your card was declined.", declined.Message)
	assert.Equal(t, StateDeclined, flow.State())
	assert.Empty(t, recorder.all())

	require.NoError(t, flow.Submit("https://example.com/return"))
	assert.Equal(t, StateSucceeded, flow.State())
	require.Len(t, recorder.all(), 1)
}

func TestFlowNetworkErrorDoesNotRetry(t *testing.T) {
	cause := errors.New("connection reset")
	confirmer := &fakeConfirmer{errs: []error{cause}}
	flow, _, _ := newReadyFlow(t, confirmer)

	err := flow.Submit("https://example.com/return")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, confirmer.confirmCount())
	assert.Equal(t, StateWidgetReady, flow.State())
}

func TestFlowSecondStepUpIsDecline(t *testing.T) {
	confirmer := &fakeConfirmer{
		results: []ConfirmResult{
			{Status: ConfirmStepUp, IntentID: "pi_1"},
			{Status: ConfirmStepUp, IntentID: "pi_1"},
		},
	}
	flow, _, _ := newReadyFlow(t, confirmer)

	err := flow.Submit("https://example.com/return")

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, StateDeclined, flow.State())
	assert.Equal(t, 2, confirmer.confirmCount())
}

func TestFlowAbandon(t *testing.T) {
	confirmer := &fakeConfirmer{}
	initiator := &fakeInitiator{intent: Intent{ClientSecret: "secret_1", CorrelationID: "sub_1"}}
	flow := NewFlow(context.Background(), initiator, confirmer, nil, zap.NewNop())
	element := &fakeElement{}
	require.NoError(t, flow.Initiate(element))

	flow.Abandon()

	assert.True(t, element.isDestroyed())
	assert.ErrorIs(t, flow.Submit("https://example.com/return"), ErrAbandoned)
	assert.ErrorIs(t, flow.Initiate(&fakeElement{}), ErrAbandoned)
	assert.Equal(t, 0, confirmer.confirmCount())

	// A readiness signal arriving after abandonment is dropped.
	element.fireReady()
	assert.NotEqual(t, StateWidgetReady, flow.State())
}

func TestFlowMountFailureResets(t *testing.T) {
	initiator := &fakeInitiator{intent: Intent{ClientSecret: "secret_1", CorrelationID: "sub_1"}}
	flow := NewFlow(context.Background(), initiator, &fakeConfirmer{}, nil, zap.NewNop())
	element := &fakeElement{mountErr: errors.New("container missing")}

	err := flow.Initiate(element)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, StateIdle, flow.State())
	assert.Equal(t, Intent{}, flow.Intent())
}

func TestFlowIntentCreationFailure(t *testing.T) {
	initiator := &fakeInitiator{err: errors.New("upstream 502")}
	flow := NewFlow(context.Background(), initiator, &fakeConfirmer{}, nil, zap.NewNop())

	err := flow.Initiate(&fakeElement{})

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, StateIdle, flow.State())
	assert.Equal(t, 1, initiator.callCount())
}
