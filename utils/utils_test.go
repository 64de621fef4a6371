package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertInvariant(t *testing.T) {
	assert.NotPanics(t, func() { AssertInvariant(true, "fine") })
	assert.PanicsWithValue(t, "invariant violated - broken", func() { AssertInvariant(false, "broken") })
}

func TestDescribeSecret(t *testing.T) {
	testCases := []struct {
		name     string
		secret   string
		expected string
	}{
		{name: "empty", secret: "", expected: "<empty>"},
		{name: "short", secret: "abc", expected: "<redacted> (len=3)"},
		{name: "token", secret: "ghu_0123456789abcdef", expected: "ghu_… (len=20)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DescribeSecret(tc.secret)
			assert.Equal(t, tc.expected, got)
			if tc.secret != "" {
				assert.NotContains(t, got, tc.secret)
			}
		})
	}
}
