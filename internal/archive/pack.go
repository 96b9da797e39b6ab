package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrEntryNotFound is returned by Extract when the archive lacks the entry.
var ErrEntryNotFound = errors.New("archive entry not found")

// Pack zips files into one archive. Entry names are the file paths relative to
// rootDir with forward slashes; files outside rootDir are rejected.
func Pack(files []string, rootDir string) ([]byte, []string, error) {
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no files to pack")
	}

	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve root dir: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	items := make([]string, 0, len(files))

	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %s: %w", file, err)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, nil, fmt.Errorf("%s is not under %s", file, rootDir)
		}
		name := filepath.ToSlash(rel)

		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", file, err)
		}

		w, err := zw.Create(name)
		if err != nil {
			return nil, nil, fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, nil, fmt.Errorf("write entry %s: %w", name, err)
		}
		items = append(items, name)
	}

	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), items, nil
}

// Extract returns the content of the named entry.
func Extract(data []byte, entry string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != entry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", entry, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", entry, err)
		}
		return content, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
}
