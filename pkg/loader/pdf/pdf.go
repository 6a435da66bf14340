package pdf

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/lumen-fi/advisor/pkg/loader"
)

// PDFPartitioner partitions PDF documents by extracting their text with
// pdftotext and splitting it into paragraph elements. Extraction results
// are cached per path.
type PDFPartitioner struct {
	cache   map[string][]string
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFPartitioner creates a pdftotext-based PDF partitioner.
func NewPDFPartitioner() *PDFPartitioner {
	return &PDFPartitioner{
		cache: make(map[string][]string),
	}
}

// Partition extracts the PDF's text and splits it into paragraph elements.
func (p *PDFPartitioner) Partition(ctx context.Context, path string) ([]string, error) {
	p.cacheMu.RLock()
	if cached, ok := p.cache[path]; ok {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	result, err, _ := p.group.Do(path, func() (any, error) {
		p.cacheMu.RLock()
		if cached, ok := p.cache[path]; ok {
			p.cacheMu.RUnlock()
			return cached, nil
		}
		p.cacheMu.RUnlock()

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, &loader.DocumentExtractionError{Path: path, Err: err}
		}

		text, err := parsePDF(ctx, content)
		if err != nil {
			return nil, &loader.DocumentExtractionError{Path: path, Err: err}
		}

		elements := loader.SplitElements(string(text))

		p.cacheMu.Lock()
		p.cache[path] = elements
		p.cacheMu.Unlock()

		return elements, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}
