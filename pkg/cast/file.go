package cast

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadFile loads a recording, decompressing by extension.
func ReadFile(path string) (*Recording, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fi.Close()

	rec, err := LoadCompressed(fi, CompressionFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// LoadCompressed decompresses r with c and loads the recording from it.
func LoadCompressed(r io.Reader, c Compression) (*Recording, error) {
	cr, err := NewCompressedReader(r, c)
	if err != nil {
		return nil, fmt.Errorf("open %s stream: %w", c, err)
	}
	defer cr.Close()
	return Load(cr)
}

// WriteFile saves the recording to path, compressing by extension.
// The data goes to a temporary file next to path first and is renamed into
// place once fully written, so path is never left half written.
func (rec *Recording) WriteFile(path string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}

	if err := rec.Save(f.bf); err != nil {
		f.abort()
		return err
	}
	return f.commit()
}

type F struct {
	path string
	f    *os.File
	cw   io.WriteCloser
	bf   *bufio.Writer
}

func createFile(path string) (F, error) {
	var f F
	fi, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return f, err
	}
	cw, err := NewCompressedWriter(fi, CompressionFor(path))
	if err != nil {
		fi.Close()
		os.Remove(fi.Name())
		return f, err
	}
	bf := bufio.NewWriter(cw)
	f = F{path, fi, cw, bf}
	return f, nil
}

func (f F) commit() error {
	if err := f.bf.Flush(); err != nil {
		f.abort()
		return err
	}
	// Close the codec first.
	if err := f.cw.Close(); err != nil {
		f.abort()
		return err
	}
	if err := f.f.Chmod(0644); err != nil {
		f.abort()
		return err
	}
	if err := f.f.Close(); err != nil {
		os.Remove(f.f.Name())
		return err
	}
	if err := os.Rename(f.f.Name(), f.path); err != nil {
		os.Remove(f.f.Name())
		return err
	}
	return nil
}

func (f F) abort() {
	f.f.Close()
	os.Remove(f.f.Name())
}
