// SPDX-License-Identifier: MPL-2.0

package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/modgraph/modgraph/internal/planner"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

// writeDOT emits one digraph per plan. Edges point from dependent to
// dependency: public solid, private dashed, dynamic dotted. Dynamic targets
// that are not registered are drawn gray.
func writeDOT(w io.Writer, plans []*planner.BuildPlan) error {
	bw := bufio.NewWriter(w)
	for i, plan := range plans {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "digraph %s {\n", strconv.Quote(plan.Target))
		bw.WriteString("\trankdir=LR;\n")
		bw.WriteString("\tnode [shape=box];\n")

		for _, name := range plan.Order {
			fmt.Fprintf(bw, "\t%s;\n", strconv.Quote(string(name)))
		}

		for _, e := range plan.Edges() {
			attrs := ""
			if e.Visibility == descriptor.Private {
				attrs = " [style=dashed]"
			}
			fmt.Fprintf(bw, "\t%s -> %s%s;\n", strconv.Quote(string(e.From)), strconv.Quote(string(e.To)), attrs)
		}

		missing := make(map[descriptor.ModuleName]bool)
		for _, m := range plan.Modules {
			for _, dyn := range m.DynamicDependencies {
				if !dyn.Available && !missing[dyn.To] {
					missing[dyn.To] = true
					fmt.Fprintf(bw, "\t%s [color=gray, fontcolor=gray];\n", strconv.Quote(string(dyn.To)))
				}
				fmt.Fprintf(bw, "\t%s -> %s [style=dotted];\n", strconv.Quote(string(dyn.From)), strconv.Quote(string(dyn.To)))
			}
		}
		bw.WriteString("}\n")
	}
	return bw.Flush()
}
