// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/modgraph/modgraph/internal/dag"
	"github.com/modgraph/modgraph/internal/depgraph"
	"github.com/modgraph/modgraph/internal/registry"
	"github.com/modgraph/modgraph/pkg/descriptor"
)

type Id int

const (
	DescriptorParseErrorId Id = iota + 1
	InvalidDescriptorId
	DuplicateModuleId
	UnknownModuleId
	UnresolvedDependencyId
	DependencyCycleId
	IncompatibleVersionId
	ConfigLoadFailedId
	NoDescriptorsFoundId
	PermissionDeniedId
)

// ErrNoDescriptors is returned when discovery finds no descriptor files.
var ErrNoDescriptors = errors.New("no module descriptors found")

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	slug     string      // name accepted by 'modgraph explain'
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

// Slug returns the short name of the issue, e.g. "dependency-cycle".
func (i *Issue) Slug() string {
	return i.slug
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	descriptorParseErrorIssue = &Issue{
		id:   DescriptorParseErrorId,
		slug: "descriptor-parse",
		mdMsg: `
# Failed to parse a module descriptor!

A ` + "`<Name>.build.<ext>`" + ` file could not be decoded.

## Common issues:
- Invalid syntax for the file's format (CUE, JSON, TOML, YAML or HCL)
- Unknown field names (fields are spelled with underscores, e.g. ` + "`public_dependencies`" + `)
- A ` + "`name`" + ` field that differs from the file name prefix
- HCL files with zero or several ` + "`module`" + ` blocks

## Things you can try:
- Check the error message above for the file, line and field path
- Run with verbose mode for the full error chain:
~~~
$ modgraph --verbose validate
~~~

## Example descriptor (Engine.build.cue):
~~~cue
version: "4.27.0"
public_include_paths: ["Engine/Public"]
private_include_paths: ["Engine/Private"]
public_dependencies: ["Core", "CoreUObject"]
private_dependencies: ["RenderCore"]
dynamic_dependencies: ["Niagara"]
~~~`,
	}

	invalidDescriptorIssue = &Issue{
		id:   InvalidDescriptorId,
		slug: "invalid-descriptor",
		mdMsg: `
# Invalid module descriptor!

The descriptor parsed, but breaks one of the rules every module must follow.

## Rules:
- Module names start with a letter and use letters, digits, ` + "`_`" + `, ` + "`-`" + ` or ` + "`.`" + `-separated segments
- A module never lists itself as a dependency
- A dependency is either public or private, not both
- ` + "`version`" + ` is a semantic version and every ` + "`dependency_versions`" + ` entry names a declared dependency

## Things you can try:
- Move a dependency that appears in both lists to the one you mean
- Remove the self reference`,
	}

	duplicateModuleIssue = &Issue{
		id:   DuplicateModuleId,
		slug: "duplicate-module",
		mdMsg: `
# Duplicate module!

Two descriptor files declare the same module name. Module names must be unique
across all scanned roots.

## Things you can try:
- Rename one of the modules (and its file)
- Narrow the scanned roots so only one copy is found:
~~~
$ modgraph plan Source
~~~`,
	}

	unknownModuleIssue = &Issue{
		id:   UnknownModuleId,
		slug: "unknown-module",
		mdMsg: `
# Unknown module!

The module you asked for is not registered in the scanned roots.

## Things you can try:
- List the modules that were found:
~~~
$ modgraph plan --format text
~~~

- Check for typos; module names are case sensitive`,
	}

	unresolvedDependencyIssue = &Issue{
		id:   UnresolvedDependencyId,
		slug: "unresolved-dependency",
		mdMsg: `
# Unresolved dependency!

A module declares a public or private dependency on a module that was not
found. Static dependencies must always resolve; only dynamic dependencies may
be absent.

## Things you can try:
- Add the missing module's descriptor to one of the roots
- Add the root that contains it:
~~~
$ modgraph plan Source Plugins ThirdParty
~~~

- If the module is only loaded at run time, move it to ` + "`dynamic_dependencies`",
	}

	dependencyCycleIssue = &Issue{
		id:   DependencyCycleId,
		slug: "dependency-cycle",
		mdMsg: `
# Dependency cycle detected!

Static dependencies form a loop, so no build order exists. The reported path
starts and ends at the same module, for example ` + "`A -> B -> A`" + `.

## Things you can try:
- Break the loop by moving shared code into a new module both can depend on
- If one side is only needed at run time, make it a dynamic dependency
- Inspect the graph:
~~~
$ modgraph graph | dot -Tsvg > graph.svg
~~~`,
	}

	incompatibleVersionIssue = &Issue{
		id:   IncompatibleVersionId,
		slug: "incompatible-version",
		mdMsg: `
# Incompatible dependency version!

A module constrains the version of one of its dependencies, and the registered
dependency does not satisfy it (or declares no version at all).

## Things you can try:
- Update the dependency's ` + "`version`" + `
- Relax the constraint in ` + "`dependency_versions`" + `:
~~~cue
dependency_versions: Core: ">=4.0.0 <6.0.0"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		slug: "config-load-failed",
		mdMsg: `
# Failed to load configuration!

The modgraph configuration file could not be read or is invalid.

## Things you can try:
- Show where modgraph looks for its config:
~~~
$ modgraph config path
~~~

- Write a fresh default config:
~~~
$ modgraph config init
~~~

- Check the CUE syntax; valid output formats are text, json, yaml, toml and dot`,
	}

	noDescriptorsFoundIssue = &Issue{
		id:   NoDescriptorsFoundId,
		slug: "no-descriptors",
		mdMsg: `
# No module descriptors found!

None of the scanned roots contains a ` + "`<Name>.build.<ext>`" + ` file.

## Search rules:
1. Roots given on the command line, otherwise ` + "`roots`" + ` from the config
2. Directories are scanned recursively
3. Hidden directories, ` + "`Binaries`" + `, ` + "`Intermediate`" + ` and ` + "`node_modules`" + ` are skipped

## Things you can try:
- Pass the root explicitly:
~~~
$ modgraph plan ./Source
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id:   PermissionDeniedId,
		slug: "permission-denied",
		mdMsg: `
# Permission denied!

You don't have permission to read a descriptor or write an output file.

## Things you can try:
- Check file/directory permissions
- Write metrics to a directory you own:
~~~
$ modgraph plan --metrics-textfile ./modgraph.prom
~~~`,
	}

	issues = map[Id]*Issue{
		descriptorParseErrorIssue.Id(): descriptorParseErrorIssue,
		invalidDescriptorIssue.Id():    invalidDescriptorIssue,
		duplicateModuleIssue.Id():      duplicateModuleIssue,
		unknownModuleIssue.Id():        unknownModuleIssue,
		unresolvedDependencyIssue.Id(): unresolvedDependencyIssue,
		dependencyCycleIssue.Id():      dependencyCycleIssue,
		incompatibleVersionIssue.Id():  incompatibleVersionIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		noDescriptorsFoundIssue.Id():   noDescriptorsFoundIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}

	// errorIssues is checked in order; the first match wins.
	errorIssues = []struct {
		target error
		id     Id
	}{
		{descriptor.ErrParseDescriptor, DescriptorParseErrorId},
		{descriptor.ErrNameMismatch, DescriptorParseErrorId},
		{descriptor.ErrInvalidDescriptor, InvalidDescriptorId},
		{registry.ErrDuplicateModule, DuplicateModuleId},
		{registry.ErrUnknownModule, UnknownModuleId},
		{depgraph.ErrUnresolvedDependency, UnresolvedDependencyId},
		{dag.ErrCycle, DependencyCycleId},
		{depgraph.ErrIncompatibleVersion, IncompatibleVersionId},
		{ErrNoDescriptors, NoDescriptorsFoundId},
		{fs.ErrPermission, PermissionDeniedId},
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	out := slices.Collect(maps.Values(issues))
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by slug.
func Lookup(slug string) (*Issue, bool) {
	for _, i := range issues {
		if i.slug == slug {
			return i, true
		}
	}
	return nil, false
}

// ForError returns the issue that explains err, if any. An explicit
// IssueId on an ActionableError in the chain takes precedence.
func ForError(err error) (*Issue, bool) {
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae.Issue()
	}
	return forCause(err)
}

func forCause(err error) (*Issue, bool) {
	if err == nil {
		return nil, false
	}
	for _, m := range errorIssues {
		if errors.Is(err, m.target) {
			return issues[m.id], true
		}
	}
	return nil, false
}
