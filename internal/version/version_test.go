package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1.0", "1.0"},
		{"v1.2.3", "1.2.3"},
		{" 2.1 ", "2.1"},
		{"1!2.0", "1!2.0"},
		{"1.0a1", "1.0a1"},
		{"1.0alpha1", "1.0a1"},
		{"1.0-beta.2", "1.0b2"},
		{"1.0c1", "1.0rc1"},
		{"1.0preview3", "1.0rc3"},
		{"1.0rc", "1.0rc0"},
		{"1.0-1", "1.0.post1"},
		{"1.0.rev2", "1.0.post2"},
		{"1.0.post", "1.0.post0"},
		{"1.0.dev", "1.0.dev0"},
		{"1.0a1.post2.dev3", "1.0a1.post2.dev3"},
		{"2.1.0+cu118", "2.1.0+cu118"},
		{"1.0+Ubuntu-1_2", "1.0+ubuntu.1.2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "1.0-", "1..0", "1.0+", "==1.0", "1.0 beta"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestParse_SegmentOverflow(t *testing.T) {
	_, err := Parse("1.18446744073709551616")
	assert.Error(t, err)

	v, err := Parse("1.18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, "1.18446744073709551615", v.String())
}

func TestParse_LocalSeparators(t *testing.T) {
	set, err := ParseSpecifierSet("==1.0+ubuntu.1")
	require.NoError(t, err)
	assert.True(t, set.Contains(mustParse(t, "1.0+ubuntu-1"), true))
	assert.True(t, set.Contains(mustParse(t, "1.0+Ubuntu_1"), true))
}

func TestIsPrerelease(t *testing.T) {
	assert.True(t, mustParse(t, "1.0a1").IsPrerelease())
	assert.True(t, mustParse(t, "1.0.dev0").IsPrerelease())
	assert.False(t, mustParse(t, "1.0").IsPrerelease())
	assert.False(t, mustParse(t, "1.0.post1").IsPrerelease())
}

func mustParse(t *testing.T, s string) *Version {
	t.Helper()
	v, err := Parse(s)
	require.NoError(t, err)
	return v
}
