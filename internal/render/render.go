// SPDX-License-Identifier: MPL-2.0

package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/modgraph/modgraph/internal/config"
	"github.com/modgraph/modgraph/internal/planner"
)

// document is the envelope shared by the structured formats. TOML needs a
// table at the top level, so plans are never emitted as a bare list.
type document struct {
	Plans []*planner.BuildPlan `json:"plans" yaml:"plans" toml:"plans"`
}

// Encode writes plans to w in format.
func Encode(w io.Writer, plans []*planner.BuildPlan, format config.OutputFormat) error {
	if ok, errs := format.IsValid(); !ok {
		return errs[0]
	}

	doc := document{Plans: plans}
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case config.OutputTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	case config.OutputDOT:
		return writeDOT(w, plans)
	default:
		return writeText(w, plans)
	}
}
