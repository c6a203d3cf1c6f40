package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Readme Option Tests
// ============================================================================

func TestParseReadmeOptions(t *testing.T) {
	t.Run("ParsesAllKnownOptions", func(t *testing.T) {
		flags, err := ParseReadmeOptions([]string{"pre", "asis", "top", "bottom", "div", "iframe"})
		require.NoError(t, err)
		want := ReadmePre | ReadmeAsis | ReadmeTop | ReadmeBottom | ReadmeDiv | ReadmeIframe
		assert.Equal(t, want, flags)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		flags, err := ParseReadmeOptions([]string{"TOP", "IFrame"})
		require.NoError(t, err)
		assert.Equal(t, ReadmeTop|ReadmeIframe, flags)
	})

	t.Run("NoOptions", func(t *testing.T) {
		flags, err := ParseReadmeOptions(nil)
		require.NoError(t, err)
		assert.Equal(t, ReadmeFlags(0), flags)
	})

	t.Run("DuplicatesCollapse", func(t *testing.T) {
		flags, err := ParseReadmeOptions([]string{"top", "top"})
		require.NoError(t, err)
		assert.Equal(t, ReadmeTop, flags)
	})

	t.Run("RejectsUnknownOption", func(t *testing.T) {
		_, err := ParseReadmeOptions([]string{"top", "sideways"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown readme option "sideways"`)
	})
}

func TestDefaultReadmeFlags(t *testing.T) {
	assert.Equal(t, ReadmeTop|ReadmePre, DefaultReadmeFlags)
}

// ============================================================================
// Include Mode Tests
// ============================================================================

func TestParseIncludeMode(t *testing.T) {
	t.Run("ParsesKnownModes", func(t *testing.T) {
		mode, err := ParseIncludeMode("static")
		require.NoError(t, err)
		assert.Equal(t, IncludeStatic, mode)

		mode, err = ParseIncludeMode("cached")
		require.NoError(t, err)
		assert.Equal(t, IncludeCached, mode)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		mode, err := ParseIncludeMode("CACHED")
		require.NoError(t, err)
		assert.Equal(t, IncludeCached, mode)
	})

	t.Run("RejectsUnknownMode", func(t *testing.T) {
		_, err := ParseIncludeMode("weekly")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown include mode "weekly"`)
	})
}

func TestIncludeModeString(t *testing.T) {
	assert.Equal(t, "static", IncludeStatic.String())
	assert.Equal(t, "cached", IncludeCached.String())
	assert.Equal(t, "IncludeMode(9)", IncludeMode(9).String())
}
