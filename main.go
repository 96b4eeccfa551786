// SPDX-License-Identifier: MPL-2.0

// Command modgraph resolves module dependency graphs into build plans.
package main

import (
	"os"

	cmd "github.com/modgraph/modgraph/cmd/modgraph"
)

func main() {
	os.Exit(cmd.Execute())
}
