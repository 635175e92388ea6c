package formflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"local-marketplace/internal/client"
	"local-marketplace/internal/domain"
	"local-marketplace/internal/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	Method string
	Path   string
}

// fakeAPI records every call and answers from canned responses keyed by "METHOD path".
type fakeAPI struct {
	calls     []call
	payloads  []any
	responses map[string]any
	errs      map[string]error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{responses: map[string]any{}, errs: map[string]error{}}
}

func (f *fakeAPI) Do(_ context.Context, method, path string, payload, out any) error {
	f.calls = append(f.calls, call{Method: method, Path: path})
	f.payloads = append(f.payloads, payload)
	key := method + " " + path
	if err := f.errs[key]; err != nil {
		return err
	}
	if resp, ok := f.responses[key]; ok && out != nil {
		raw, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, out)
	}
	return nil
}

type recorder struct {
	successes []string
	failures  []string
	routes    []string
}

func (r *recorder) Success(msg string)     { r.successes = append(r.successes, msg) }
func (r *recorder) Failure(msg string)     { r.failures = append(r.failures, msg) }
func (r *recorder) Navigate(route string) { r.routes = append(r.routes, route) }

func newTestController(t *testing.T) (*Controller, *fakeAPI, *recorder) {
	t.Helper()
	api := newFakeAPI()
	rec := &recorder{}
	return NewController(api, rec, rec, zaptest.NewLogger(t)), api, rec
}

func TestSubmit_CreateForEveryEntity(t *testing.T) {
	for _, e := range schema.Entities() {
		e := e
		t.Run(e.Collection, func(t *testing.T) {
			c, api, rec := newTestController(t)

			err := c.Submit(context.Background(), Submission{
				Method:    http.MethodPost,
				Path:      e.Path,
				Payload:   e.New(),
				ListRoute: e.ListRoute,
			})

			require.NoError(t, err)
			if diff := cmp.Diff([]call{{Method: http.MethodPost, Path: e.Path}}, api.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, []string{e.ListRoute}, rec.routes)
			assert.Equal(t, []string{DefaultSuccessMessage}, rec.successes)
			assert.Empty(t, rec.failures)
		})
	}
}

func TestSubmit_RejectedCreateForEveryEntity(t *testing.T) {
	for _, e := range schema.Entities() {
		e := e
		t.Run(e.Collection, func(t *testing.T) {
			c, api, rec := newTestController(t)
			api.errs[http.MethodPost+" "+e.Path] = &client.APIError{Status: http.StatusConflict, Message: "slug already exists"}

			err := c.Submit(context.Background(), Submission{
				Method:    http.MethodPost,
				Path:      e.Path,
				Payload:   e.New(),
				ListRoute: e.ListRoute,
			})

			require.Error(t, err)
			assert.Len(t, api.calls, 1)
			assert.Empty(t, rec.routes)
			assert.Empty(t, rec.successes)
			assert.Equal(t, []string{"slug already exists"}, rec.failures)
		})
	}
}

func TestSubmit_FailureWithoutServerMessageUsesDefault(t *testing.T) {
	c, api, rec := newTestController(t)
	api.errs["POST /api/cities"] = errors.New("dial tcp 127.0.0.1:8080: connection refused")

	err := c.Submit(context.Background(), Submission{Method: http.MethodPost, Path: "/api/cities", ListRoute: "/admin/cities"})

	require.Error(t, err)
	assert.Equal(t, []string{DefaultFailureMessage}, rec.failures)
	assert.Empty(t, rec.routes)
}

func TestSubmit_UpdateTargetsRecord(t *testing.T) {
	c, api, rec := newTestController(t)
	payload := &domain.City{Name: "Patna", Slug: "patna"}

	err := c.Submit(context.Background(), Submission{
		Method:         http.MethodPut,
		Path:           "/api/cities/",
		ID:             "c1",
		Payload:        payload,
		ListRoute:      "/admin/cities",
		SuccessMessage: "City updated",
	})

	require.NoError(t, err)
	assert.Equal(t, []call{{Method: http.MethodPut, Path: "/api/cities/c1"}}, api.calls)
	assert.Same(t, payload, api.payloads[0])
	assert.Equal(t, []string{"City updated"}, rec.successes)
	assert.Equal(t, []string{"/admin/cities"}, rec.routes)
}

func TestSubmit_UpdateEscapesRecordID(t *testing.T) {
	c, api, _ := newTestController(t)

	err := c.Submit(context.Background(), Submission{
		Method:  http.MethodPut,
		Path:    "/api/cities",
		ID:      "c1/../../business?x=1",
		Payload: &domain.City{Name: "Patna", Slug: "patna"},
	})

	require.NoError(t, err)
	assert.Equal(t, []call{{Method: http.MethodPut, Path: "/api/cities/c1%2F..%2F..%2Fbusiness%3Fx=1"}}, api.calls)
}

func TestSubmit_LocalRejections(t *testing.T) {
	tests := []struct {
		name    string
		sub     Submission
		wantErr error
	}{
		{"put without id", Submission{Method: http.MethodPut, Path: "/api/cities"}, ErrMissingID},
		{"patch", Submission{Method: http.MethodPatch, Path: "/api/cities", ID: "c1"}, ErrUnsupportedMethod},
		{"delete", Submission{Method: http.MethodDelete, Path: "/api/cities", ID: "c1"}, ErrUnsupportedMethod},
		{"no path", Submission{Method: http.MethodPost}, ErrMissingPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, api, rec := newTestController(t)

			err := c.Submit(context.Background(), tt.sub)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, api.calls)
			assert.Empty(t, rec.routes)
			assert.Equal(t, []string{DefaultFailureMessage}, rec.failures)
		})
	}
}
