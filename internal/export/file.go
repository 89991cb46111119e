package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/popdyn/internal/experiment"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 500
)

// Formats lists the extensions [File] understands.
var Formats = []string{"csv", "json", "svg", "png"}

// File writes v to path in the format named by its extension.
func File(path string, v *experiment.View, solver string) (err error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv", "json", "svg", "png":
	default:
		return fmt.Errorf("unsupported export format %q (want one of %s)", ext, strings.Join(Formats, ", "))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	switch ext {
	case "csv":
		return WriteCSV(f, v)
	case "json":
		return WriteJSON(f, v, solver)
	case "svg":
		return WriteSVG(f, v, DefaultWidth, DefaultHeight)
	default:
		return WritePNG(f, v, DefaultWidth, DefaultHeight)
	}
}
