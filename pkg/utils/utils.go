// Package utils holds the helpers shared by the render farm roles and the
// programs that write frames to disk.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// CreateFolder creates dir and its parents. An existing directory is not
// an error, an existing file of the same name is.
func CreateFolder(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("%s exists and is not a directory", dir)
	case !os.IsNotExist(err):
		return err
	}

	return os.MkdirAll(dir, os.ModeDir|0o755)
}

// CreateParent creates the folder an output file goes into
func CreateParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return CreateFolder(dir)
}
