package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestListFlag(t *testing.T) {
	const yamlList = `- foo
- bar
- baz`

	t.Run("custom separator", func(t *testing.T) {
		current := newListFlag(":")
		require.NoError(t, current.Set("foo:bar:baz"))
		if d := cmp.Diff([]string{"foo", "bar", "baz"}, current.values); d != "" {
			t.Error(d)
		}

		require.NoError(t, yaml.Unmarshal([]byte(yamlList), current))
		assert.Equal(t, "foo:bar:baz", current.value)
	})

	t.Run("restricted values", func(t *testing.T) {
		good := commaListFlag("foo", "bar", "baz", "qux")
		assert.NoError(t, good.Set("foo,bar,baz"))
		assert.NoError(t, yaml.Unmarshal([]byte(yamlList), good))
		assert.True(t, good.Has("baz"))
		assert.False(t, good.Has("qux"))

		bad := commaListFlag("foo", "bar")
		assert.Error(t, bad.Set("foo,bar,baz"))
		assert.Error(t, yaml.Unmarshal([]byte(yamlList), bad))
	})

	t.Run("string representation", func(t *testing.T) {
		current := commaListFlag()
		require.NoError(t, current.Set("foo,bar,baz"))
		assert.Equal(t, "foo,bar,baz", current.String())

		var nilFlag *listFlag
		assert.Equal(t, "", nilFlag.String())
		assert.False(t, nilFlag.Has("foo"))
	})

	t.Run("unmarshal error", func(t *testing.T) {
		assert.Error(t, yaml.Unmarshal([]byte("invalid yaml"), commaListFlag()))
	})

	t.Run("empty value", func(t *testing.T) {
		f := commaListFlag()
		require.NoError(t, f.Set("foo"))
		require.NoError(t, f.Set(""))
		assert.Equal(t, "", f.value)
		assert.Nil(t, f.values)
	})
}
