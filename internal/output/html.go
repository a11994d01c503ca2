package output

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTMLFormatter renders the markdown report to a standalone HTML page.
type HTMLFormatter struct{}

func (f *HTMLFormatter) Format(w io.Writer, report *types.Report) error {
	var src bytes.Buffer
	if err := (&MarkdownFormatter{}).Format(&src, report); err != nil {
		return err
	}
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert(src.Bytes(), &body); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Cargo Quality Report: %s</title>\n</head>\n<body>\n",
		html.EscapeString(report.Project))
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "</body>\n</html>\n")
	return err
}
