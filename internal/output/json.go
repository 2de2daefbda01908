package output

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/finlife/lifesim/internal/domain"
)

// JSONFormatter writes the whole Result, trace included when present.
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter { return &JSONFormatter{} }

func (f *JSONFormatter) Write(w io.Writer, result *domain.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
