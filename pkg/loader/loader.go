package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DocumentExtractionError reports a document that could not be read or
// partitioned. Ingestion maps it to an error result instead of aborting the
// surrounding batch.
type DocumentExtractionError struct {
	Path string
	Err  error
}

func (e *DocumentExtractionError) Error() string {
	return fmt.Sprintf("failed to extract document %s: %v", e.Path, e.Err)
}

func (e *DocumentExtractionError) Unwrap() error {
	return e.Err
}

// Partitioner splits a source document into ordered text elements. An
// element is a coherent block of text (a paragraph, a table row group, a
// heading with its body) that the chunker sizes afterwards.
type Partitioner interface {
	Partition(ctx context.Context, path string) ([]string, error)
}

// Registry routes documents to a Partitioner by file extension.
type Registry struct {
	partitioners map[string]Partitioner
}

// NewRegistry creates an empty partitioner registry.
func NewRegistry() *Registry {
	return &Registry{
		partitioners: map[string]Partitioner{},
	}
}

// Register binds a partitioner to a file extension (with leading dot,
// case-insensitive).
func (r *Registry) Register(ext string, p Partitioner) {
	r.partitioners[strings.ToLower(ext)] = p
}

// Partition dispatches to the partitioner registered for the document's
// extension. Unsupported extensions yield a DocumentExtractionError.
func (r *Registry) Partition(ctx context.Context, path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	p, ok := r.partitioners[ext]
	if !ok {
		return nil, &DocumentExtractionError{
			Path: path,
			Err:  fmt.Errorf("unsupported file type %q", ext),
		}
	}
	return p.Partition(ctx, path)
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// SplitElements breaks raw document text into paragraph-level elements at
// blank lines. Elements are trimmed; empty ones are dropped.
func SplitElements(text string) []string {
	parts := blankLines.Split(text, -1)
	elements := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		elements = append(elements, part)
	}
	return elements
}
