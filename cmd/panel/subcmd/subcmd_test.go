package subcmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/panel/internal/state"
)

func TestParse(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, *state.Config) error { return nil }
	mods := []Mod{{Name: "run", Main: noop}, {Name: "console", Main: noop}}

	m, err := Parse("console", mods)
	require.NoError(t, err)
	assert.Equal(t, "console", m.Name)

	_, err = Parse("", mods)
	assert.EqualError(t, err, "empty command, valid: run, console")
	_, err = Parse("dance", mods)
	assert.EqualError(t, err, "unknown command='dance' valid: run, console")
	assert.Panics(t, func() { _, _ = Parse("x", []Mod{{Main: noop}}) })
}
