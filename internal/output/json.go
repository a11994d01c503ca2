package output

import (
	"encoding/json"
	"io"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
	"gopkg.in/yaml.v3"
)

// JSONFormatter outputs the report as an indented JSON document.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, report *types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// YAMLFormatter outputs the report as YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(w io.Writer, report *types.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
