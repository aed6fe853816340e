package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	consts "github.com/khanhnv2901/site-inspector/internal/shared/constants"
	"github.com/khanhnv2901/site-inspector/internal/shared/security"
)

// resolveOutputPath makes an output file path absolute and creates its
// directory. The file name itself must not be a directory reference.
func resolveOutputPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("output path is required")
	}
	dir, name := filepath.Split(path)
	switch name {
	case "", ".", "..":
		return "", fmt.Errorf("output path %q must name a file", path)
	}
	if dir == "" {
		dir = "."
	}

	target, err := security.ResolveWithin(dir, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return target, nil
}
