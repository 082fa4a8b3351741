package fileio

import "path/filepath"

// filepathEvalSymlinks resolves path to its canonical, symlink-free form.
// It is a thin wrapper so callers in this package go through one name
// regardless of which stdlib helper backs it.
func filepathEvalSymlinks(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}
