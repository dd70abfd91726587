package notify

import (
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrNoTerminal is returned by the bell initializer when output is not a TTY.
var ErrNoTerminal = errors.New("sound: output is not a terminal")

var isTerminal = term.IsTerminal

// Player plays the short notification sound.
type Player interface {
	Play() error
}

// SoundInitFunc initializes the audio subsystem. The engine calls it once at
// construction; an error leaves the engine silent.
type SoundInitFunc func() (Player, error)

// Bell rings the terminal bell.
type Bell struct {
	w io.Writer
}

// Play writes BEL to the terminal.
func (b *Bell) Play() error {
	_, err := b.w.Write([]byte{'\a'})
	return err
}

// NewBell returns an initializer that succeeds only when f is a terminal.
func NewBell(f *os.File) SoundInitFunc {
	return func() (Player, error) {
		if f == nil || !isTerminal(int(f.Fd())) {
			return nil, ErrNoTerminal
		}
		return &Bell{w: f}, nil
	}
}

// TerminalBell rings the bell on stderr. Stdout carries command output,
// including JSON streams, and must not receive BEL bytes.
func TerminalBell() SoundInitFunc {
	return NewBell(os.Stderr)
}
