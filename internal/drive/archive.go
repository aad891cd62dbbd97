package drive

import "strings"

// Recognized archive extensions. Matching is byte-exact against the final
// extension, so uppercase variants are not treated as archives.
var archiveExtensions = map[string]struct{}{
	"zip": {},
	"rar": {},
	"7z":  {},
	"tar": {},
	"gz":  {},
}

// IsArchive reports whether the node is a file whose final extension is one
// of the recognized archive formats.
func IsArchive(node Node) bool {
	if node.Dir {
		return false
	}
	ext := node.Name
	if idx := strings.LastIndexByte(node.Name, '.'); idx >= 0 {
		ext = node.Name[idx+1:]
	}
	_, ok := archiveExtensions[ext]
	return ok
}

// FilterArchives returns the archive files from a listing, order preserved.
func FilterArchives(nodes []Node) []Node {
	var archives []Node
	for _, node := range nodes {
		if IsArchive(node) {
			archives = append(archives, node)
		}
	}
	return archives
}

// FolderName derives the expected extraction folder name by stripping the
// final extension only: "notes.tar.gz" becomes "notes.tar". Names without an
// extension, or dotfiles like ".hidden", are returned unchanged.
func FolderName(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return name
	}
	return name[:idx]
}
