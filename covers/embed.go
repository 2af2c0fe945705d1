// Package covers ships the built-in cover template file.
package covers

import (
	_ "embed"
	"fmt"
	"os"
)

// DefaultName is the name of the built-in file in error messages.
const DefaultName = "default.covers"

//go:embed default.covers
var defaultFile []byte

// Default returns a copy of the built-in cover template file.
func Default() []byte {
	out := make([]byte, len(defaultFile))
	copy(out, defaultFile)
	return out
}

// Load returns the template file at path, or the built-in one when path is empty.
func Load(path string) (name string, data []byte, err error) {
	if path == "" {
		return DefaultName, Default(), nil
	}
	data, err = os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("读取封面模板 %s 失败: %w", path, err)
	}
	return path, data, nil
}
