// Package formflow drives admin create and edit submissions: one write call, one notification,
// and navigation back to the listing on success.
package formflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"local-marketplace/internal/client"
	"local-marketplace/internal/metrics"
)

// DefaultFailureMessage is shown when a rejected call carries no server message.
const DefaultFailureMessage = "Something went wrong. Please try again."

// DefaultSuccessMessage is shown when a Submission does not set its own.
const DefaultSuccessMessage = "Saved successfully."

var (
	ErrUnsupportedMethod = errors.New("formflow: unsupported method")
	ErrMissingID         = errors.New("formflow: update requires a record id")
	ErrMissingPath       = errors.New("formflow: resource path is required")
)

// API performs one JSON request against the resource endpoints.
type API interface {
	Do(ctx context.Context, method, path string, payload, out any) error
}

// Notifier surfaces transient feedback to the operator.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// Navigator moves the operator to another route.
type Navigator interface {
	Navigate(route string)
}

// Controller binds payloads to write calls.
type Controller struct {
	api    API
	notify Notifier
	nav    Navigator
	logger *zap.Logger
}

// NewController creates a Controller.
func NewController(api API, notify Notifier, nav Navigator, logger *zap.Logger) *Controller {
	return &Controller{api: api, notify: notify, nav: nav, logger: logger.Named("formflow")}
}

// Submission is a single create (POST) or update (PUT) of one record.
type Submission struct {
	Method         string
	Path           string
	ID             string // required for PUT
	Payload        any
	ListRoute      string
	SuccessMessage string
}

// target resolves the request path, rejecting submissions that must not reach the network.
func (s Submission) target() (string, error) {
	if s.Path == "" {
		return "", ErrMissingPath
	}
	switch s.Method {
	case http.MethodPost:
		return strings.TrimRight(s.Path, "/"), nil
	case http.MethodPut:
		if s.ID == "" {
			return "", ErrMissingID
		}
		return recordPath(s.Path, s.ID), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s.Method)
	}
}

// Submit performs exactly one write. On success it notifies and navigates to s.ListRoute;
// on failure it notifies once and stays. The returned error is the cause of the failure.
func (c *Controller) Submit(ctx context.Context, s Submission) error {
	path, err := s.target()
	if err != nil {
		metrics.FormSubmissionsTotal.WithLabelValues(s.Method, "rejected").Inc()
		c.logger.Warn("submission rejected locally", zap.String("method", s.Method), zap.String("path", s.Path), zap.Error(err))
		c.notify.Failure(DefaultFailureMessage)
		return err
	}

	if err := c.api.Do(ctx, s.Method, path, s.Payload, nil); err != nil {
		metrics.FormSubmissionsTotal.WithLabelValues(s.Method, "failure").Inc()
		c.logger.Info("submission failed", zap.String("method", s.Method), zap.String("path", path), zap.Error(err))
		c.notify.Failure(failureMessage(err))
		return err
	}

	metrics.FormSubmissionsTotal.WithLabelValues(s.Method, "success").Inc()
	msg := s.SuccessMessage
	if msg == "" {
		msg = DefaultSuccessMessage
	}
	c.notify.Success(msg)
	c.nav.Navigate(s.ListRoute)
	return nil
}

// recordPath addresses one record under path. The id is escaped as a single path segment.
func recordPath(path, id string) string {
	return strings.TrimRight(path, "/") + "/" + url.PathEscape(id)
}

func failureMessage(err error) string {
	if msg := client.ErrorMessage(err); msg != "" {
		return msg
	}
	return DefaultFailureMessage
}
