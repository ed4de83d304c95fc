// Package config loads the YAML surfaces: declarative catalog schema files
// and the server configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chronodb/chronodb/internal/catalog"
	"github.com/chronodb/chronodb/internal/hypertable"
	"github.com/chronodb/chronodb/internal/types"
)

// Schema is a declarative catalog definition.
type Schema struct {
	Hypertables []HypertableDef `yaml:"hypertables"`
}

// HypertableDef declares one hypertable with its dimensions and chunks.
type HypertableDef struct {
	Name       string         `yaml:"name"`
	Dimensions []DimensionDef `yaml:"dimensions"`
	Chunks     []ChunkDef     `yaml:"chunks"`
}

// DimensionDef declares one partitioning dimension.
type DimensionDef struct {
	Column     string `yaml:"column"`
	Type       string `yaml:"type"`
	Kind       string `yaml:"kind"` // "range" or "hash"
	Partitions int32  `yaml:"partitions,omitempty"`
}

// ChunkDef declares one chunk and its per-dimension placement.
type ChunkDef struct {
	Name   string          `yaml:"name"`
	Slices []ChunkSliceDef `yaml:"slices"`
}

// ChunkSliceDef places a chunk on one dimension. Start/End apply to range
// dimensions and accept integers or timestamp strings; Partition applies to
// hash dimensions.
type ChunkSliceDef struct {
	Column    string `yaml:"column"`
	Start     *Coord `yaml:"start,omitempty"`
	End       *Coord `yaml:"end,omitempty"`
	Partition *int32 `yaml:"partition,omitempty"`
}

// Coord is a range coordinate in a schema file: either a plain integer or a
// timestamp string, decoded to the int64 internal representation.
type Coord struct {
	Value int64
}

// UnmarshalYAML decodes an integer or a textual timestamp.
func (c *Coord) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		c.Value = n
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: coordinate must be an integer or timestamp string", node.Line)
	}
	us, err := types.ParseTimestamp(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	c.Value = us
	return nil
}

// LoadSchema reads and parses a schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema parses schema YAML.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return &s, nil
}

// BuildCatalog constructs an in-memory catalog from the schema.
func BuildCatalog(s *Schema) (*catalog.Memory, error) {
	m := catalog.NewMemory()

	for _, htDef := range s.Hypertables {
		dims := make([]catalog.DimensionDef, len(htDef.Dimensions))
		for i, d := range htDef.Dimensions {
			dt, err := types.ParseDataType(d.Type)
			if err != nil {
				return nil, fmt.Errorf("hypertable %s: %w", htDef.Name, err)
			}
			var kind hypertable.DimensionKind
			switch d.Kind {
			case "range":
				kind = hypertable.RangeDimension
			case "hash":
				kind = hypertable.HashDimension
			default:
				return nil, fmt.Errorf("hypertable %s: dimension %q has unknown kind %q",
					htDef.Name, d.Column, d.Kind)
			}
			dims[i] = catalog.DimensionDef{
				Column:     d.Column,
				Type:       dt,
				Kind:       kind,
				Partitions: d.Partitions,
			}
		}

		if _, err := m.CreateHypertable(htDef.Name, dims); err != nil {
			return nil, err
		}

		for _, chDef := range htDef.Chunks {
			slices := make([]catalog.ChunkSlice, len(chDef.Slices))
			for i, sl := range chDef.Slices {
				cs := catalog.ChunkSlice{Column: sl.Column}
				switch {
				case sl.Partition != nil:
					cs.Partition = *sl.Partition
				case sl.Start != nil && sl.End != nil:
					cs.Start = sl.Start.Value
					cs.End = sl.End.Value
				default:
					return nil, fmt.Errorf("chunk %s: slice on %q needs start/end or partition",
						chDef.Name, sl.Column)
				}
				slices[i] = cs
			}
			if _, err := m.AddChunk(htDef.Name, chDef.Name, slices); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}
