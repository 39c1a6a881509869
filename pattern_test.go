package relay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relay"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	t.Run("static_pattern", func(t *testing.T) {
		t.Parallel()

		p, err := relay.Compile("/users/all")
		require.NoError(t, err)
		assert.Equal(t, "/users/all", p.String())
		assert.Empty(t, p.Params())
		assert.Equal(t, relay.Specificity{Static: 2}, p.Specificity())
	})

	t.Run("named_params_in_declaration_order", func(t *testing.T) {
		t.Parallel()

		p, err := relay.Compile("/orgs/:org/repos/:repo")
		require.NoError(t, err)
		assert.Equal(t, []string{"org", "repo"}, p.Params())
		assert.Equal(t, relay.Specificity{Static: 2, Params: 2}, p.Specificity())
	})

	t.Run("named_wildcard", func(t *testing.T) {
		t.Parallel()

		p, err := relay.Compile("/files/*path")
		require.NoError(t, err)
		assert.Equal(t, []string{"path"}, p.Params())
		assert.Equal(t, relay.Specificity{Static: 1, Wildcard: true}, p.Specificity())
	})

	t.Run("bare_wildcard", func(t *testing.T) {
		t.Parallel()

		p, err := relay.Compile("/static/*")
		require.NoError(t, err)
		assert.Equal(t, []string{"*"}, p.Params())
	})

	t.Run("optional_group", func(t *testing.T) {
		t.Parallel()

		p, err := relay.Compile("/posts(/:id)")
		require.NoError(t, err)
		assert.Equal(t, []string{"id"}, p.Params())
	})

	t.Run("nested_optional_groups", func(t *testing.T) {
		t.Parallel()

		p, err := relay.Compile("/a(/:b(/:c))")
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c"}, p.Params())
	})

	t.Run("duplicate_slashes_in_template_collapse", func(t *testing.T) {
		t.Parallel()

		p, err := relay.Compile("/a//b")
		require.NoError(t, err)
		q, err := relay.Compile("/a/b")
		require.NoError(t, err)
		assert.True(t, p.Equal(q))
	})

	t.Run("root_pattern", func(t *testing.T) {
		t.Parallel()

		p, err := relay.Compile("/")
		require.NoError(t, err)
		assert.Empty(t, p.Params())
	})
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing_leading_slash", func(t *testing.T) {
		t.Parallel()

		_, err := relay.Compile("users/:id")
		assert.ErrorIs(t, err, relay.ErrMissingSlash)
		assert.ErrorIs(t, err, relay.ErrPatternSyntax)
	})

	t.Run("wildcard_not_final", func(t *testing.T) {
		t.Parallel()

		_, err := relay.Compile("/files/*path/meta")
		assert.ErrorIs(t, err, relay.ErrWildcardPosition)
	})

	t.Run("two_wildcards", func(t *testing.T) {
		t.Parallel()

		_, err := relay.Compile("/a/*x/*y")
		assert.ErrorIs(t, err, relay.ErrWildcardPosition)
	})

	t.Run("wildcard_followed_by_optional_group", func(t *testing.T) {
		t.Parallel()

		_, err := relay.Compile("/a/*x(/:y)")
		assert.ErrorIs(t, err, relay.ErrWildcardPosition)
	})

	t.Run("empty_param_name", func(t *testing.T) {
		t.Parallel()

		_, err := relay.Compile("/users/:")
		assert.ErrorIs(t, err, relay.ErrEmptyParamName)
	})

	t.Run("duplicate_param_names", func(t *testing.T) {
		t.Parallel()

		_, err := relay.Compile("/a/:id/b/:id")
		assert.ErrorIs(t, err, relay.ErrDuplicateParam)
	})

	t.Run("duplicate_param_inside_optional_group", func(t *testing.T) {
		t.Parallel()

		_, err := relay.Compile("/a/:id(/:id)")
		assert.ErrorIs(t, err, relay.ErrDuplicateParam)
	})

	t.Run("unbalanced_open_paren", func(t *testing.T) {
		t.Parallel()

		_, err := relay.Compile("/a(/:b")
		assert.ErrorIs(t, err, relay.ErrUnbalancedGroup)
	})

	t.Run("unbalanced_close_paren", func(t *testing.T) {
		t.Parallel()

		_, err := relay.Compile("/a/:b)")
		assert.ErrorIs(t, err, relay.ErrUnbalancedGroup)
	})

	t.Run("empty_optional_group", func(t *testing.T) {
		t.Parallel()

		_, err := relay.Compile("/a(/)")
		assert.ErrorIs(t, err, relay.ErrPatternSyntax)
	})
}

func TestCompile_Idempotent(t *testing.T) {
	t.Parallel()

	templates := []string{
		"/",
		"/users",
		"/users/:id",
		"/files/*path",
		"/posts(/:id)",
		"/a(/:b(/:c))",
	}

	for _, tpl := range templates {
		p1, err := relay.Compile(tpl)
		require.NoError(t, err)
		p2, err := relay.Compile(tpl)
		require.NoError(t, err)
		assert.True(t, p1.Equal(p2), "compile(%q) not idempotent", tpl)
	}
}

func TestPattern_Equal(t *testing.T) {
	t.Parallel()

	a := relay.MustCompile("/users/:id")
	b := relay.MustCompile("/users/:name")
	// Capture names are part of the structure.
	assert.False(t, a.Equal(b))

	c := relay.MustCompile("/users/:id")
	assert.True(t, a.Equal(c))

	assert.False(t, relay.MustCompile("/a(/:b)").Equal(relay.MustCompile("/a/:b")))
}

func TestMustCompile_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		relay.MustCompile("broken")
	})
}
