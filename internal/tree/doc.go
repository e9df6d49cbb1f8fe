// Package tree models the virtual directory hierarchy stored in a container.
//
// A DirectoryContent node holds two independently keyed namespaces: files and
// subdirectories. A file and a subdirectory may share a name. Trees are built
// once by the archive engine when the container index is read and are treated
// as immutable afterwards; a mutation of the container produces a new tree.
//
// Container paths are slash-separated and relative to the root:
//
//	docs/2024/report.pdf
//
// Use CleanPath to normalize operator input before looking paths up.
package tree
