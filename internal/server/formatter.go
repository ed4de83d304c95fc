package server

import (
	"encoding/json"
	"fmt"
	"io"
)

// Format is the plan output format.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// ParseFormat parses a format name, defaulting to JSON.
func ParseFormat(s string) Format {
	switch s {
	case "text", "Text", "TEXT":
		return FormatText
	default:
		return FormatJSON
	}
}

// WritePlanJSON renders a plan as indented JSON.
func WritePlanJSON(w io.Writer, p *Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// WritePlanText renders a plan as a plain-text explain listing.
func WritePlanText(w io.Writer, p *Plan) error {
	if _, err := fmt.Fprintf(w, "table: %s\n", p.Table); err != nil {
		return err
	}
	fmt.Fprintf(w, "restricted: %v\n", p.Restricted)
	fmt.Fprintln(w, "dimensions:")
	for _, d := range p.Dimensions {
		detail := d.Detail
		if !d.Restricted {
			detail = "unrestricted"
		}
		fmt.Fprintf(w, "  %s (%s): %s\n", d.Column, d.Kind, detail)
	}
	fmt.Fprintf(w, "chunks (%d of %d, %d pruned):\n", p.Matched, p.Total, p.Pruned)
	for _, c := range p.Chunks {
		fmt.Fprintf(w, "  %d\t%s\n", c.ID, c.Name)
	}
	return nil
}
