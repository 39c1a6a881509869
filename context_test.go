package relay_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relay"
)

type localKey struct{}

func TestContext_Locals(t *testing.T) {
	t.Parallel()

	t.Run("visible_downstream_and_upstream", func(t *testing.T) {
		t.Parallel()

		var upstream, downstream any

		r := relay.New()
		r.Use(
			func(c *relay.Context, next relay.Next) error {
				c.Set(localKey{}, "attached")
				err := next()
				upstream = c.Get(localKey{})
				return err
			},
		)
		r.Get("/x", func(c *relay.Context) error {
			downstream = c.Get(localKey{})
			c.Set(localKey{}, "mutated")
			return c.NoContent(http.StatusOK)
		})

		serve(r, http.MethodGet, "/x")

		assert.Equal(t, "attached", downstream)
		assert.Equal(t, "mutated", upstream)
	})

	t.Run("value_falls_back_to_request_context", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Get("/x", func(c *relay.Context) error {
			c.Set(localKey{}, "local")
			assert.Equal(t, "local", c.Value(localKey{}))
			assert.Nil(t, c.Value("missing"))
			return c.NoContent(http.StatusOK)
		})

		serve(r, http.MethodGet, "/x")
	})

	t.Run("missing_local_is_nil", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Get("/x", func(c *relay.Context) error {
			assert.Nil(t, c.Get(localKey{}))
			return c.NoContent(http.StatusOK)
		})

		serve(r, http.MethodGet, "/x")
	})
}

func TestContext_ResponseBuilder(t *testing.T) {
	t.Parallel()

	t.Run("string_response", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Get("/x", func(c *relay.Context) error {
			return c.String(http.StatusCreated, "made")
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "made", rec.Body.String())
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("json_response", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Get("/x", func(c *relay.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"ok": "yes"})
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":"yes"}`, rec.Body.String())
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("second_body_fails_with_response_sent", func(t *testing.T) {
		t.Parallel()

		var second error

		r := relay.New()
		r.Get("/x", func(c *relay.Context) error {
			require.NoError(t, c.String(http.StatusOK, "one"))
			second = c.String(http.StatusOK, "two")
			return nil
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.ErrorIs(t, second, relay.ErrResponseSent)
		assert.Equal(t, "one", rec.Body.String())
	})

	t.Run("no_content", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Delete("/x", func(c *relay.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		rec := serve(r, http.MethodDelete, "/x")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Zero(t, rec.Body.Len())
	})

	t.Run("redirect", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Get("/old", func(c *relay.Context) error {
			return c.Redirect(http.StatusMovedPermanently, "/new")
		})

		rec := serve(r, http.MethodGet, "/old")
		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "/new", rec.Header().Get("Location"))
	})

	t.Run("status_without_body_defaults_to_200", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Get("/x", func(c *relay.Context) error {
			c.SetHeader("X-Marker", "set")
			return nil
		})

		rec := serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "set", rec.Header().Get("X-Marker"))
	})

	t.Run("response_status_visible_to_after_logic", func(t *testing.T) {
		t.Parallel()

		var observed int

		r := relay.New()
		r.Use(func(c *relay.Context, next relay.Next) error {
			err := next()
			observed = c.ResponseStatus()
			return err
		})
		r.Get("/x", func(c *relay.Context) error {
			return c.String(http.StatusAccepted, "later")
		})

		serve(r, http.MethodGet, "/x")
		assert.Equal(t, http.StatusAccepted, observed)
	})
}

func TestContext_RouteIntrospection(t *testing.T) {
	t.Parallel()

	r := relay.New()
	r.Get("/users/:id", func(c *relay.Context) error {
		assert.Equal(t, "/users/:id", c.RoutePattern())
		assert.Equal(t, []string{"id"}, c.ParamKeys())
		return c.String(http.StatusOK, c.Param("id"))
	})

	rec := serve(r, http.MethodGet, "/users/7")
	assert.Equal(t, "7", rec.Body.String())
}
