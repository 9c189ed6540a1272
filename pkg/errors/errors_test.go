package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeSchema, "missing column")
	outer := Wrap(inner, ErrorTypeSourceRead, "load failed")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, IsType(outer, ErrorTypeSourceRead))
	assert.False(t, IsType(outer, ErrorTypeSchema))
	assert.ErrorIs(t, outer, inner)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeInternal, "nothing"))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeSinkWrite, TypeOf(New(ErrorTypeSinkWrite, "x")))
	assert.Equal(t, ErrorTypeQuery, TypeOf(fmt.Errorf("wrapped: %w", New(ErrorTypeQuery, "x"))))
	assert.Equal(t, ErrorTypeInternal, TypeOf(stderrors.New("plain")))
}

func TestErrorMessageIncludesCauseAndDetails(t *testing.T) {
	err := Wrap(stderrors.New("permission denied"), ErrorTypeSinkWrite, "cannot create output").
		WithDetail("path", "/out/a.csv").
		WithDetail("analysis", "count_plum_trees")

	assert.Equal(t,
		"sink_write: cannot create output [analysis=count_plum_trees path=/out/a.csv]: permission denied",
		err.Error())
}

func TestDetailMissing(t *testing.T) {
	err := Newf(ErrorTypeConfig, "bad value %d", 3)
	_, ok := err.Detail("path")
	assert.False(t, ok)
	assert.Equal(t, "config: bad value 3", err.Error())
}
