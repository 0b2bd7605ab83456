package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats data as indented JSON. json.RawMessage values
// are re-indented as well.
type JSONFormatter struct{}

// Format formats data as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(data)
}
