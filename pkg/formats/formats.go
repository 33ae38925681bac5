// Package formats reads and writes the files torus terrain is exported as:
// THF height fields, Wavefront OBJ meshes and 16-bit grayscale TIFF height
// textures.
package formats

import (
	"bufio"
	"fmt"
	"os"

	"go.uber.org/multierr"
)

// writeFile creates path and hands fill a buffered writer. Flush and close
// errors are reported along with fill's.
func writeFile(path string, fill func(w *bufio.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		return err
	}
	return w.Flush()
}
