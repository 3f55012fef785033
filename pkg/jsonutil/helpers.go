// Package jsonutil provides JSON output helpers for the WalkPoints CLI.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Write encodes v to w as indented JSON followed by a newline. HTML
// characters are left unescaped so reward titles print as typed.
func Write(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// PrettyJSON formats a JSON string with indentation for display.
// Returns the original string if it's not valid JSON.
func PrettyJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s
	}
	return buf.String()
}
