// Package assets resolves the link order of stylesheet and script files.
//
// A scan root is walked recursively and every file with the configured suffix
// is recorded together with the depth of the folder it was found in (the
// root is depth 1). Files found deeper are the generic base layer and are
// emitted first; files closer to the root are the most specific overrides and
// are emitted last, so that under last-wins cascade semantics root-level rules
// win. Ties within one depth keep the raw directory enumeration order unless
// WithSortedSiblings is used.
//
// Directories named "ignore" are skipped with their whole subtree, and
// ".gitignore" files are never tracked.
package assets
