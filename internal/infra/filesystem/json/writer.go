package json

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writer writes deployment outputs, creating parent directories on demand.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// WriteBytes writes raw bytes to the specified path, replacing any content.
func (w *Writer) WriteBytes(path string, data []byte) error {
	if err := w.ensureDir(path); err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}

	return nil
}

// AppendBytes appends data to path, creating the file if needed.
func (w *Writer) AppendBytes(path string, data []byte) error {
	if err := w.ensureDir(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open '%s': %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to '%s': %w", path, err)
	}

	return f.Close()
}

func (w *Writer) ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}
	return nil
}
