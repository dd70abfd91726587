// Package iojson holds helpers for commands that speak JSON on stdin/stdout.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// Error is the JSON shape written to stderr when a --json command fails.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// WriteError writes msg and data as an indented Error object.
func WriteError(w io.Writer, msg string, data map[string]any) error {
	return Write(w, Error{Message: msg, Data: data})
}

// Write encodes obj as indented JSON followed by a newline.
func Write(w io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// WriteLine encodes obj as a single JSON line (JSONL).
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
