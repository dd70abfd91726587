package notify

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBell_Play(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Bell{w: &buf}).Play())
	assert.Equal(t, "\a", buf.String())
}

func TestNewBell_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	_, err = NewBell(f)()
	assert.ErrorIs(t, err, ErrNoTerminal)

	_, err = NewBell(nil)()
	assert.ErrorIs(t, err, ErrNoTerminal)
}

func TestTerminalBell_KeepsStdoutClean(t *testing.T) {
	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)

	oldStdout, oldStderr, oldIsTerminal := os.Stdout, os.Stderr, isTerminal
	os.Stdout, os.Stderr = stdoutW, stderrW
	isTerminal = func(int) bool { return true }
	t.Cleanup(func() {
		os.Stdout, os.Stderr, isTerminal = oldStdout, oldStderr, oldIsTerminal
	})

	player, err := TerminalBell()()
	require.NoError(t, err)
	require.NoError(t, player.Play())

	require.NoError(t, stdoutW.Close())
	require.NoError(t, stderrW.Close())

	out, err := io.ReadAll(stdoutR)
	require.NoError(t, err)
	errOut, err := io.ReadAll(stderrR)
	require.NoError(t, err)

	assert.Empty(t, out, "bell must not write to stdout")
	assert.Equal(t, "\a", string(errOut))
}
