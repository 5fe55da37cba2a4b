package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testTarget struct {
	value int
	calls []string
}

func TestNew_PropagatesError(t *testing.T) {
	target := &testTarget{}

	opt := New(func(tt *testTarget) error {
		return errors.New("rejected")
	})
	require.Error(t, opt.apply(target))
}

func TestNoError_AlwaysSucceeds(t *testing.T) {
	target := &testTarget{}

	opt := NoError(func(tt *testTarget) {
		tt.value = 42
	})
	require.NoError(t, opt.apply(target))
	require.Equal(t, 42, target.value)
}

func TestApply_InOrderAndStopsOnError(t *testing.T) {
	target := &testTarget{}

	first := NoError(func(tt *testTarget) { tt.calls = append(tt.calls, "first") })
	second := New(func(tt *testTarget) error { return errors.New("boom") })
	third := NoError(func(tt *testTarget) { tt.calls = append(tt.calls, "third") })

	err := Apply(target, first, second, third)
	require.Error(t, err)
	require.Equal(t, []string{"first"}, target.calls)
}

func TestApply_NoOptions(t *testing.T) {
	require.NoError(t, Apply(&testTarget{}))
}
