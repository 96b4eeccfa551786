// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

type (
	// LayeredTree describes a synthetic module tree: Layers rows of Width
	// modules, each depending on Fanout modules of the row below it.
	LayeredTree struct {
		Layers int
		Width  int
		Fanout int
		// DynamicEvery adds a dynamic dependency on an unregistered plugin
		// to every n-th module. Zero disables it.
		DynamicEvery int
	}

	treeDescriptor struct {
		Version             string   `json:"version"`
		PublicIncludePaths  []string `json:"public_include_paths"`
		PrivateIncludePaths []string `json:"private_include_paths"`
		PublicDependencies  []string `json:"public_dependencies,omitempty"`
		PrivateDependencies []string `json:"private_dependencies,omitempty"`
		DynamicDependencies []string `json:"dynamic_dependencies,omitempty"`
	}
)

// ModuleName returns the name of the module at layer and index.
func (lt LayeredTree) ModuleName(layer, index int) string {
	return fmt.Sprintf("L%02dM%03d", layer, index)
}

// Len returns the number of modules in the tree.
func (lt LayeredTree) Len() int { return lt.Layers * lt.Width }

// Files returns the tree as JSON descriptor files keyed by relative path.
// Even dependency slots are public and odd ones private, so both
// visibilities are exercised.
func (lt LayeredTree) Files() map[string]string {
	files := make(map[string]string, lt.Len())
	n := 0
	for layer := range lt.Layers {
		for i := range lt.Width {
			name := lt.ModuleName(layer, i)
			d := treeDescriptor{
				Version:             "1.0.0",
				PublicIncludePaths:  []string{name + "/Public"},
				PrivateIncludePaths: []string{name + "/Private"},
			}
			if layer > 0 {
				for slot := range min(lt.Fanout, lt.Width) {
					dep := lt.ModuleName(layer-1, (i+slot)%lt.Width)
					if slot%2 == 0 {
						d.PublicDependencies = append(d.PublicDependencies, dep)
					} else {
						d.PrivateDependencies = append(d.PrivateDependencies, dep)
					}
				}
			}
			n++
			if lt.DynamicEvery > 0 && n%lt.DynamicEvery == 0 {
				d.DynamicDependencies = []string{"Plugin" + name}
			}

			data, err := json.Marshal(d)
			if err != nil {
				panic(err)
			}
			files[strings.Join([]string{"Source", name, name + ".build.json"}, "/")] = string(data)
		}
	}
	return files
}
