package output

import (
	"encoding/json"
	"io"

	"github.com/vulnverified/sitevault/internal/engine"
)

// WriteJSON writes the run result as indented JSON to w. Passwords are never
// part of the encoding.
func WriteJSON(w io.Writer, result *engine.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
