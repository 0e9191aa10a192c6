package yamlfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
)

// Source serves a snapshot from a YAML fixture. The file is re-read on every
// call so edits show up on the next evaluation.
type Source struct {
	path string
}

func New(path string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat snapshot file: %w", err)
	}
	return &Source{path: path}, nil
}

func (s *Source) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}
	return Decode(raw)
}

// Decode parses a snapshot document; unknown keys are rejected.
func Decode(raw []byte) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&snapshot); err != nil && !errors.Is(err, io.EOF) {
		return domain.Snapshot{}, domain.WrapError(domain.ErrInvalidInput, "decode snapshot", err)
	}
	return snapshot, nil
}
