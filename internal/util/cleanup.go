package util

import (
	"fmt"
	"io"
	"os"
)

// RemoveEmptyDirs removes every dir that exists and has no entries.
// Asset folders are created up front, so a run with --skip-imgs or one
// that failed every download would otherwise leave them behind.
func RemoveEmptyDirs(w io.Writer, dirs ...string) {
	for _, dir := range dirs {
		RemoveIfEmpty(w, dir)
	}
}

func RemoveIfEmpty(w io.Writer, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	if len(entries) == 0 {
		if err := os.Remove(dir); err == nil {
			fmt.Fprintf(w, "Removed empty folder: %s\n", dir)
		}
	}
}
