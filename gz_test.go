package cif

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestReadAny(t *testing.T) {
	dir := t.TempDir()
	content := "data_gz\n_a 1\n"

	plain := filepath.Join(dir, "x.cif")
	if err := os.WriteFile(plain, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	packed := filepath.Join(dir, "x.cif.gz")
	f, err := os.Create(packed)
	if err != nil {
		t.Fatal(err)
	}
	w := gzip.NewWriter(f)
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{plain, packed} {
		doc, err := ReadAny(path)
		if err != nil {
			t.Fatalf("ReadAny(%s) failed: %v", path, err)
		}
		if len(doc.Blocks) != 1 || doc.Blocks[0].Name != "gz" {
			t.Errorf("ReadAny(%s) parsed %+v", path, doc.Blocks)
		}
	}
}

func TestReadAny_MissingFile(t *testing.T) {
	if _, err := ReadAny(filepath.Join(t.TempDir(), "absent.cif")); err == nil {
		t.Error("ReadAny of a missing file succeeded")
	}
}
