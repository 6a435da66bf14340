package chunker

import (
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/lumen-fi/advisor/pkg/common"
)

const (
	// MinElementLength drops partition fragments too short to carry
	// meaningful context (headings, page numbers, stray lines).
	MinElementLength = 100

	// ResplitThreshold triggers recursive re-splitting when any element
	// exceeds it, so no chunk blows past the embedding-friendly size.
	ResplitThreshold = 2000

	chunkSize    = 1000
	chunkOverlap = 200
)

// Chunker turns partitioned document elements into bounded-size chunks.
// Elements under the minimum length are dropped. If every surviving element
// fits the threshold they become chunks directly; otherwise the whole text
// is re-split recursively with overlap.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// New creates a Chunker with the standard financial-document settings.
func New() *Chunker {
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
		),
	}
}

// Chunk produces ordered chunks for one document. Chunk indices are
// contiguous from zero; an empty result means the document had no usable
// text.
func (c *Chunker) Chunk(elements []string, sourceDocument, ownerID string) ([]common.Chunk, error) {
	texts := make([]string, 0, len(elements))
	for _, el := range elements {
		if len(el) < MinElementLength {
			continue
		}
		texts = append(texts, el)
	}

	if needsResplit(texts) {
		joined := joinElements(texts)
		split, err := c.splitter.SplitText(joined)
		if err != nil {
			return nil, err
		}
		texts = split
	}

	chunks := make([]common.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, common.Chunk{
			Text:           text,
			SourceDocument: sourceDocument,
			OwnerID:        ownerID,
			Index:          i,
		})
	}
	return chunks, nil
}

func needsResplit(texts []string) bool {
	for _, t := range texts {
		if len(t) > ResplitThreshold {
			return true
		}
	}
	return false
}

func joinElements(texts []string) string {
	joined := ""
	for i, t := range texts {
		if i > 0 {
			joined += "\n\n"
		}
		joined += t
	}
	return joined
}
