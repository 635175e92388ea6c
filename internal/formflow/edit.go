package formflow

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// State is the lifecycle of an EditForm.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateRedirected State = "redirected"
)

// ErrNotReady is returned when submitting a form whose record never loaded.
var ErrNotReady = errors.New("formflow: edit form is not ready")

// Target names the record an EditForm edits and where to go back to.
type Target struct {
	Path      string
	ID        string
	ListRoute string
}

// EditForm fetches a record by id and submits the edited version with PUT.
// It is not safe for concurrent use.
type EditForm[T any] struct {
	c      *Controller
	target Target
	state  State
	record T
}

// NewEditForm returns a form in the loading state.
func NewEditForm[T any](c *Controller, target Target) *EditForm[T] {
	return &EditForm[T]{c: c, target: target, state: StateLoading}
}

// Open creates the form and loads its record.
func Open[T any](ctx context.Context, c *Controller, target Target) *EditForm[T] {
	f := NewEditForm[T](c, target)
	f.Load(ctx)
	return f
}

// Load fetches the record. A failed fetch notifies the operator and navigates to the listing route;
// the form then stays redirected.
func (f *EditForm[T]) Load(ctx context.Context) State {
	if f.state != StateLoading {
		return f.state
	}

	var rec T
	err := ErrMissingID
	if f.target.ID != "" {
		err = f.c.api.Do(ctx, http.MethodGet, recordPath(f.target.Path, f.target.ID), nil, &rec)
	}
	if err != nil {
		f.c.logger.Info("edit fetch failed", zap.String("path", f.target.Path), zap.String("id", f.target.ID), zap.Error(err))
		f.state = StateRedirected
		f.c.notify.Failure(failureMessage(err))
		f.c.nav.Navigate(f.target.ListRoute)
		return f.state
	}

	f.record = rec
	f.state = StateReady
	return f.state
}

// State reports where the form is in its lifecycle.
func (f *EditForm[T]) State() State { return f.state }

// Record returns the loaded record. ok is false unless the form is ready.
func (f *EditForm[T]) Record() (rec T, ok bool) {
	if f.state != StateReady {
		return rec, false
	}
	return f.record, true
}

// Submit sends payload as a single PUT to {path}/{id}.
func (f *EditForm[T]) Submit(ctx context.Context, payload T) error {
	if f.state != StateReady {
		return ErrNotReady
	}
	return f.c.Submit(ctx, Submission{
		Method:    http.MethodPut,
		Path:      f.target.Path,
		ID:        f.target.ID,
		Payload:   payload,
		ListRoute: f.target.ListRoute,
	})
}
