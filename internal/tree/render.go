package tree

import (
	"bufio"
	"fmt"
	"io"
)

const (
	straightRight   = "├"
	straight        = "│"
	upRight         = "└"
	space           = " "
	directoryPrefix = "<DIR>"
	filePrefix      = "<FILE>"
)

// Render draws d as a line-drawing tree. Directories come before files. The
// last element of every node gets the corner connector: the last file when
// the node has files, otherwise the last directory.
func Render(w io.Writer, d *DirectoryContent) error {
	bw := bufio.NewWriter(w)
	renderNode(bw, d, "")
	return bw.Flush()
}

func renderNode(w *bufio.Writer, d *DirectoryContent, prefix string) {
	lastDir := ""
	if len(d.files) == 0 && len(d.dirs) > 0 {
		for name := range d.Dirs() {
			lastDir = name
		}
	}
	lastFile := ""
	for name := range d.Files() {
		lastFile = name
	}

	for name, dir := range d.Dirs() {
		if name == lastDir && len(d.files) == 0 {
			fmt.Fprintf(w, "%s%s%s %s\n", prefix, upRight, directoryPrefix, name)
			renderNode(w, dir, prefix+space)
			continue
		}
		fmt.Fprintf(w, "%s%s%s %s\n", prefix, straightRight, directoryPrefix, name)
		renderNode(w, dir, prefix+straight)
	}
	for name, entry := range d.Files() {
		connector := straightRight
		if name == lastFile {
			connector = upRight
		}
		fmt.Fprintf(w, "%s%s%s %s %s\n", prefix, connector, filePrefix, name, FormatFlags(entry))
	}
}

// FormatFlags reports the four presence flags of a file entry.
func FormatFlags(e FileEntry) string {
	return fmt.Sprintf("has_content: %t, has_key: %t, has_digest: %t, has_signature: %t",
		e.HasContent, e.HasKey, e.HasDigest, e.IsSigned)
}
