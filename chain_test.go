package relay_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relay"
)

// serve runs one request through the router and returns the recorder.
func serve(r *relay.Router, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// tracer appends a label before and after the continuation call.
func tracer(log *[]string, label string) relay.Middleware {
	return func(c *relay.Context, next relay.Next) error {
		*log = append(*log, label+":before")
		err := next()
		*log = append(*log, label+":after")
		return err
	}
}

func TestDispatch_Order(t *testing.T) {
	t.Parallel()

	var log []string

	r := relay.New()
	r.Use(tracer(&log, "A"), tracer(&log, "B"), tracer(&log, "C"))
	r.Get("/x", func(c *relay.Context) error {
		log = append(log, "H")
		return c.NoContent(http.StatusOK)
	})

	rec := serve(r, http.MethodGet, "/x")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{
		"A:before", "B:before", "C:before",
		"H",
		"C:after", "B:after", "A:after",
	}, log)
}

func TestDispatch_ShortCircuit(t *testing.T) {
	t.Parallel()

	var log []string

	r := relay.New()
	r.Use(
		tracer(&log, "A"),
		func(c *relay.Context, next relay.Next) error {
			log = append(log, "B:short")
			return c.String(http.StatusForbidden, "denied")
		},
		tracer(&log, "C"),
	)
	r.Get("/x", func(c *relay.Context) error {
		log = append(log, "H")
		return c.NoContent(http.StatusOK)
	})

	rec := serve(r, http.MethodGet, "/x")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "denied", rec.Body.String())
	assert.Equal(t, []string{"A:before", "B:short", "A:after"}, log)
}

func TestDispatch_DoubleDispatch(t *testing.T) {
	t.Parallel()

	t.Run("second_call_fails", func(t *testing.T) {
		t.Parallel()

		var handlerRuns int
		var secondErr error

		r := relay.New()
		r.Use(func(c *relay.Context, next relay.Next) error {
			if err := next(); err != nil {
				return err
			}
			secondErr = next()
			return secondErr
		})
		r.Get("/x", func(c *relay.Context) error {
			handlerRuns++
			return c.NoContent(http.StatusOK)
		})

		rec := serve(r, http.MethodGet, "/x")

		assert.ErrorIs(t, secondErr, relay.ErrDoubleDispatch)
		assert.Equal(t, 1, handlerRuns, "downstream must not run twice")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("violation_reported_even_if_swallowed", func(t *testing.T) {
		t.Parallel()

		var seen error

		r := relay.New()
		r.Use(func(c *relay.Context, next relay.Next) error {
			_ = next()
			seen = next()
			return nil // swallowing the violation does not duplicate work
		})
		r.Get("/x", okHandler)

		rec := serve(r, http.MethodGet, "/x")
		assert.ErrorIs(t, seen, relay.ErrDoubleDispatch)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestDispatch_ErrorUnwindsPastAfterLogic(t *testing.T) {
	t.Parallel()

	var log []string
	boom := errors.New("boom")

	r := relay.New()
	r.Use(
		func(c *relay.Context, next relay.Next) error {
			log = append(log, "A:before")
			err := next()
			log = append(log, "A:saw-error")
			return err
		},
		func(c *relay.Context, next relay.Next) error {
			log = append(log, "B:before")
			if err := next(); err != nil {
				// The error return propagates without running B's after logic.
				return err
			}
			log = append(log, "B:after")
			return nil
		},
	)
	r.Get("/x", func(c *relay.Context) error {
		return boom
	})

	rec := serve(r, http.MethodGet, "/x")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []string{"A:before", "B:before", "A:saw-error"}, log)
}

func TestDispatch_HandlerError(t *testing.T) {
	t.Parallel()

	t.Run("structured_error_sets_status", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Get("/x", func(c *relay.Context) error {
			return relay.ErrForbidden
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("plain_error_is_500", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Get("/x", func(c *relay.Context) error {
			return errors.New("kaput")
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("custom_error_boundary", func(t *testing.T) {
		t.Parallel()

		var boundaryErr error
		r := relay.New(relay.WithErrorHandler(func(c *relay.Context, err error) {
			boundaryErr = err
			c.ResponseWriter().WriteHeader(http.StatusTeapot)
		}))
		boom := errors.New("boom")
		r.Get("/x", func(c *relay.Context) error {
			return boom
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusTeapot, rec.Code)
		require.ErrorIs(t, boundaryErr, boom)
	})

	t.Run("boundary_can_use_buffered_builder", func(t *testing.T) {
		t.Parallel()

		r := relay.New(relay.WithErrorHandler(func(c *relay.Context, err error) {
			_ = c.String(http.StatusBadGateway, "upstream failed")
		}))
		r.Get("/x", func(c *relay.Context) error {
			return errors.New("boom")
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "upstream failed", rec.Body.String())
	})

	t.Run("partial_buffer_discarded_before_boundary", func(t *testing.T) {
		t.Parallel()

		r := relay.New(relay.WithErrorHandler(func(c *relay.Context, err error) {
			_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}))
		r.Get("/x", func(c *relay.Context) error {
			// A buffered body followed by an error must not reach the wire.
			_ = c.String(http.StatusOK, "half-built")
			return errors.New("gave up")
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"gave up"}`, rec.Body.String())
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	})
}

func TestDispatch_PanicRecovery(t *testing.T) {
	t.Parallel()

	t.Run("default_boundary", func(t *testing.T) {
		t.Parallel()

		r := relay.New(relay.WithLogger(discardLogger()))
		r.Get("/x", func(c *relay.Context) error {
			panic("handler exploded")
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("buffered_boundary_response_reaches_client", func(t *testing.T) {
		t.Parallel()

		r := relay.New(
			relay.WithLogger(discardLogger()),
			relay.WithErrorHandler(func(c *relay.Context, err error) {
				_ = c.String(http.StatusServiceUnavailable, "temporarily broken")
			}),
		)
		r.Get("/x", func(c *relay.Context) error {
			panic("handler exploded")
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "temporarily broken", rec.Body.String())
	})
}

func TestDispatch_Cancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var downstreamRan, cleanupRan bool

	r := relay.New()
	r.Use(func(c *relay.Context, next relay.Next) error {
		defer func() { cleanupRan = true }()
		// Simulate the client disconnecting mid-chain.
		cancel()
		return next()
	})
	r.Get("/x", func(c *relay.Context) error {
		downstreamRan = true
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.False(t, downstreamRan, "downstream must not run after cancellation")
	assert.True(t, cleanupRan, "in-flight middleware still unwinds")
	// No response body is written for a cancelled request.
	assert.Equal(t, 0, rec.Body.Len())
}
