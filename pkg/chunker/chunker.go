package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Package chunker splits a document into fixed-stride overlapping
// windows. Splitting is purely positional so re-chunking the same text
// with the same options always yields the same boundaries, which is
// what lets re-ingestion replace a document's chunks atomically.

type Options struct {
	// ChunkSize is the window length in characters (runes).
	ChunkSize int
	// Overlap is how many characters consecutive windows share.
	Overlap int
}

func (o Options) Validate() error {
	if o.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", o.ChunkSize)
	}
	if o.Overlap < 0 || o.Overlap >= o.ChunkSize {
		return fmt.Errorf("overlap must be in [0, chunk size), got %d", o.Overlap)
	}
	return nil
}

// Piece is one window over the document. Offsets are rune offsets,
// end exclusive.
type Piece struct {
	Seq         int
	StartOffset int
	EndOffset   int
	Content     string
}

// Split cuts doc into overlapping pieces covering the whole document
// with no gaps. A document shorter than one window yields exactly one
// piece. Empty, whitespace-only or non-UTF-8 input is rejected.
func Split(doc string, opts Options) ([]Piece, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc) == "" {
		return nil, fmt.Errorf("document is empty")
	}
	if !utf8.ValidString(doc) {
		return nil, fmt.Errorf("document is not valid utf-8 text")
	}

	runes := []rune(doc)
	stride := opts.ChunkSize - opts.Overlap

	var pieces []Piece
	for start := 0; ; start += stride {
		end := start + opts.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, Piece{
			Seq:         len(pieces),
			StartOffset: start,
			EndOffset:   end,
			Content:     string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}

	return pieces, nil
}
