// Package imagefile reads and persists whole firmware images.
package imagefile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Load reads the entire file. Zstandard compressed images are decompressed
// transparently, the returned buffer is always the raw image.
func Load(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", filename, err)
	}

	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress input %s: %w", filename, err)
	}
	return raw, nil
}

// Write persists data to filename. The data goes to a temporary file in the
// same directory first, which is renamed over filename once it is complete,
// so readers never observe a partial image.
func Write(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)

	unlock, err := lock(dir)
	if err != nil {
		return fmt.Errorf("lock %s: %w", dir, err)
	}
	defer unlock()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*")
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write output %s: %w", filename, err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("write output %s: %w", filename, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("write output %s: %w", filename, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write output %s: %w", filename, err)
	}
	if err = os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("write output %s: %w", filename, err)
	}
	return nil
}
