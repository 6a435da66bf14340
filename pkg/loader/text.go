package loader

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
)

// TextPartitioner partitions plain-text documents from the local filesystem
// with caching, so repeated ingestion of the same path reads the file once.
type TextPartitioner struct {
	cache   map[string][]string
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewTextPartitioner creates a filesystem-based plain-text partitioner.
func NewTextPartitioner() *TextPartitioner {
	return &TextPartitioner{
		cache: make(map[string][]string),
	}
}

// Partition reads the file and splits it into paragraph elements. Results
// are cached per path.
func (p *TextPartitioner) Partition(ctx context.Context, path string) ([]string, error) {
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
			return nil, &DocumentExtractionError{Path: path, Err: err}
		}

		elements := SplitElements(string(content))

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
