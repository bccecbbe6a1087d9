package session

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Archive compresses the log at path to path+".zst" and removes the
// original. It returns the path of the archive.
func Archive(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening log for archival: %w", err)
	}
	defer src.Close() //nolint:errcheck

	archivePath := path + ".zst"
	dst, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}

	enc, err := zstd.NewWriter(dst)
	if err != nil {
		dst.Close() //nolint:errcheck
		return "", fmt.Errorf("initializing zstd writer: %w", err)
	}

	if _, err := io.Copy(enc, src); err != nil {
		enc.Close() //nolint:errcheck
		dst.Close() //nolint:errcheck
		return "", fmt.Errorf("compressing log: %w", err)
	}
	if err := enc.Close(); err != nil {
		dst.Close() //nolint:errcheck
		return "", fmt.Errorf("finalizing archive: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("closing archive: %w", err)
	}

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("removing archived log: %w", err)
	}
	return archivePath, nil
}

// ReadArchive decompresses a .zst experiment log and returns its raw NDJSON
// bytes.
func ReadArchive(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close() //nolint:errcheck

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("initializing zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompressing archive: %w", err)
	}
	return data, nil
}
