package encoding

import (
	"fmt"
	"os"
)

// Serializable provides a clean, simple interface for serializing and deserializing values.
type Serializable[T any] interface {
	Serialize() ([]byte, error)
	Deserialize([]byte) error
}

// WriteFile serializes v and writes it to path with 0o644 permissions.
func WriteFile[T any](path string, v Serializable[T]) error {
	data, err := v.Serialize()
	if err != nil {
		return fmt.Errorf("serialize %s: %w", path, err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads path and deserializes it into v.
func ReadFile[T any](path string, v Serializable[T]) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err = v.Deserialize(data); err != nil {
		return fmt.Errorf("deserialize %s: %w", path, err)
	}
	return nil
}
