package render

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nestflow/nestflow/pkg/layout"
)

// Output format names.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Render produces the requested artifacts from one layout result, keyed
// by format. SVG and PNG share the same DOT input, which is generated at
// most once.
func Render(ctx context.Context, res *layout.Result, formats []string) (map[string][]byte, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(formats))
	dot := ""
	needDOT := func() string {
		if dot == "" {
			dot = ToDOT(res)
		}
		return dot
	}

	for _, format := range formats {
		switch format {
		case FormatDOT:
			artifacts[format] = []byte(needDOT())
		case FormatSVG:
			svg, err := RenderSVG(ctx, needDOT())
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			artifacts[format] = svg
		case FormatPNG:
			png, err := RenderPNG(ctx, needDOT())
			if err != nil {
				return nil, fmt.Errorf("render png: %w", err)
			}
			artifacts[format] = png
		case FormatJSON:
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("marshal layout: %w", err)
			}
			artifacts[format] = data
		}
	}
	return artifacts, nil
}
