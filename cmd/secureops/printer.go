package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// printer renders command results to stdout in the selected format,
// optionally projected through a JMESPath expression.
type printer struct {
	w      io.Writer
	format string
	query  string
}

func (p *printer) print(v any) error {
	if p.query != "" {
		projected, err := project(p.query, v)
		if err != nil {
			return err
		}
		v = projected
	}

	switch p.format {
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// project evaluates expr against the JSON form of v, so queries use the
// same field names as --output json.
func project(expr string, v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	out, err := jmespath.Search(expr, data)
	if err != nil {
		return nil, fmt.Errorf("evaluate query: %w", err)
	}
	return out, nil
}

// formatElapsed renders progress timings to a tenth of a second.
func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(100 * time.Millisecond).String()
}
