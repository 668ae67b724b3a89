package scene

import (
	"fmt"
	"io"

	"golang.org/x/exp/mmap"
)

// LoadFile memory-maps the scene file at path and reads it.
func LoadFile(path string, opts Options) (*Scene, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindIO, Err: fmt.Errorf("could not open file %q: %w", path, err)}
	}
	defer reader.Close()

	return Read(io.NewSectionReader(reader, 0, int64(reader.Len())), opts)
}
