package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
)

// Write streams the archive to w as a zip. Entry order and timestamps
// follow the Files slice, so the same archive always produces the same
// layout.
func Write(a *Archive, w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, f := range a.Files {
		header := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		}
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create %s in archive: %w", f.Name, err)
		}
		if _, err := entry.Write(f.Body); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// WriteFile writes the archive as a zip file at path.
func WriteFile(a *Archive, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	if err := Write(a, file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}
	return nil
}
