package cif

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// LoadFile returns the contents of a CIF file as one in-memory buffer.
// Paths ending in ".gz" are decompressed first; the parser only ever
// sees plain bytes.
func LoadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "decompressing %s", path)
		}
		defer gz.Close()
		r = gz
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return data, nil
}

// ReadAny parses a normal or gzipped CIF file.
func ReadAny(path string) (*Document, error) {
	data, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewParser().ParseBytes(path, data)
}
