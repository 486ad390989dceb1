package helpclient

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
)

// Status lines shown to the user.
const (
	StatusSubmitting = "Submitting..."
	StatusSaved      = "Thank you! Your information has been saved."
	StatusFailed     = "There was a problem saving your details. Make sure the CrisisCare server is running."
)

// Submitter is the part of Client the flow needs.
type Submitter interface {
	Submit(ctx context.Context, form Form) error
}

// Flow runs one form through submit, mirror and status reporting. Each Flow
// owns its mirror.
type Flow struct {
	client Submitter
	mirror *LocalMirror
	status func(string)
	log    *zap.SugaredLogger
	now    func() time.Time
}

type FlowOption func(*Flow)

// WithStatus sets where status lines go. The default drops them.
func WithStatus(fn func(string)) FlowOption {
	return func(f *Flow) { f.status = fn }
}

func WithLogger(l *zap.SugaredLogger) FlowOption {
	return func(f *Flow) { f.log = l }
}

func WithFlowClock(now func() time.Time) FlowOption {
	return func(f *Flow) { f.now = now }
}

// NewFlow loads the mirror at mirrorPath once; later submissions append to
// that in-memory copy.
func NewFlow(client Submitter, mirrorPath string, opts ...FlowOption) *Flow {
	f := &Flow{
		client: client,
		mirror: LoadMirror(mirrorPath),
		status: func(string) {},
		log:    logger.GetLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Flow) Mirror() *LocalMirror { return f.mirror }

// Submit sends form. On success the form is mirrored and cleared. Any
// failure leaves the form as typed, reports StatusFailed and is returned.
func (f *Flow) Submit(ctx context.Context, form *Form) error {
	f.status(StatusSubmitting)

	if err := f.client.Submit(ctx, *form); err != nil {
		f.fail("Community help submission failed", err)
		return err
	}

	if err := f.mirror.Append(NewMirrorEntry(*form, f.now())); err != nil {
		f.fail("Failed to update local mirror", err)
		return err
	}

	form.Reset()
	f.status(StatusSaved)
	return nil
}

func (f *Flow) fail(msg string, err error) {
	f.log.Errorw(msg, "error", err)
	f.status(StatusFailed)
}
