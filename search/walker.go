package search

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions is the fixed set of file extensions the engine
// recognizes. Matching is case-insensitive on the lower-cased extension.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".docx": true,
	".pdf":  true,
	".xlsx": true,
	".xls":  true,
	".html": true,
	".htm":  true,
	".php":  true,
}

// IsSupportedFile checks if a path carries a supported extension.
func IsSupportedFile(path string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Enumerate walks the tree rooted at root and returns every regular file
// whose extension is in the supported set, in lexical walk order. Symlinks
// to regular files are followed; broken symlinks are skipped. Unreadable
// subtrees are skipped silently and the walk continues with their siblings;
// an empty result is an empty slice, never an error.
func Enumerate(root string) []string {
	var files []string

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}
		if d.IsDir() || !IsSupportedFile(path) {
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if info, serr := os.Stat(path); serr == nil && info.Mode().IsRegular() {
				files = append(files, path)
			}
		}
		return nil
	})

	return files
}
