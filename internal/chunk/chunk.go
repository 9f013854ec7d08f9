// Copyright 2026 Hybridcore
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package chunk splits ingested text into overlapping pieces for embedding.
// Selection among the three packing strategies is length-tiered and
// deterministic: the same input text always selects the same strategy and
// produces the same chunks.
package chunk

import (
	"regexp"
	"strings"
)

// Params records the chunk_size/overlap a strategy ran with, attached to
// every chunk's provenance metadata.
type Params struct {
	ChunkSize int
	Overlap   int
}

// Chunk is one packed piece of text, not yet embedded.
type Chunk struct {
	Index         int
	Text          string
	Strategy      string
	ChunkerName   string
	ChunkerParams Params
}

// Chunker packs text into an ordered slice of Chunks.
type Chunker interface {
	Chunk(text string) []Chunk
}

// Length tiers and their strategy parameters (spec §4.2).
const (
	sentenceThreshold = 2000
	paragraphThreshold = 10000
)

// SelectChunker picks a Chunker for text by length tier: sentence-boundary
// packing below 2000 characters, paragraph packing below 10000, a fixed
// character window otherwise.
func SelectChunker(text string) Chunker {
	switch {
	case len(text) < sentenceThreshold:
		return NewSentenceChunker(200, 20)
	case len(text) < paragraphThreshold:
		return NewParagraphChunker(500, 50)
	default:
		return NewFixedChunker(1000, 100)
	}
}

var sentenceBoundary = regexp.MustCompile(`[.!?]+\s+`)

// SentenceChunker splits text on sentence-ending punctuation followed by
// whitespace and greedily packs sentences into buffers no larger than
// chunkSize (a single sentence longer than chunkSize becomes its own
// chunk). When a buffer fills, the next buffer is seeded with trailing
// sentences from the previous one totalling up to overlap characters, so
// context carries across the boundary the same way the fixed-window
// strategy's stride does; the carried sentences are dropped when keeping
// them would push the next buffer past chunkSize.
type SentenceChunker struct {
	chunkSize int
	overlap   int
}

// NewSentenceChunker returns a SentenceChunker with the given parameters.
func NewSentenceChunker(chunkSize, overlap int) *SentenceChunker {
	return &SentenceChunker{chunkSize: chunkSize, overlap: overlap}
}

func (c *SentenceChunker) Chunk(text string) []Chunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	var buf []string
	bufLen := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		chunks = append(chunks, c.newChunk(len(chunks), strings.Join(buf, " ")))
	}

	carry := func() ([]string, int) {
		var tail []string
		tailLen := 0
		for i := len(buf) - 1; i >= 0; i-- {
			sLen := len(buf[i]) + 1
			if tailLen+sLen > c.overlap {
				break
			}
			tail = append([]string{buf[i]}, tail...)
			tailLen += sLen
		}
		return tail, tailLen
	}

	for _, s := range sentences {
		sLen := len(s) + 1
		if bufLen+sLen > c.chunkSize && len(buf) > 0 {
			flush()
			buf, bufLen = carry()
			if bufLen+sLen > c.chunkSize {
				buf, bufLen = nil, 0
			}
		}
		buf = append(buf, s)
		bufLen += sLen
	}
	flush()

	return chunks
}

func (c *SentenceChunker) newChunk(index int, text string) Chunk {
	return Chunk{
		Index:         index,
		Text:          text,
		Strategy:      "sentence",
		ChunkerName:   "sentence_boundary",
		ChunkerParams: Params{ChunkSize: c.chunkSize, Overlap: c.overlap},
	}
}

func splitSentences(text string) []string {
	locs := sentenceBoundary.FindAllStringIndex(text, -1)
	var out []string
	start := 0
	for _, loc := range locs {
		sentence := strings.TrimSpace(text[start:loc[0]+1])
		if sentence != "" {
			out = append(out, sentence)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// ParagraphChunker packs whole paragraphs (separated by a blank line) until
// the next paragraph would overflow chunkSize. A single paragraph larger
// than chunkSize becomes its own chunk unsplit. Overlap is accepted for a
// uniform Chunker construction signature but, per spec §4.2, ignored:
// paragraph boundaries are considered natural enough breakpoints on their
// own.
type ParagraphChunker struct {
	chunkSize int
	overlap   int
}

// NewParagraphChunker returns a ParagraphChunker with the given parameters.
func NewParagraphChunker(chunkSize, overlap int) *ParagraphChunker {
	return &ParagraphChunker{chunkSize: chunkSize, overlap: overlap}
}

func (c *ParagraphChunker) Chunk(text string) []Chunk {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []Chunk
	var buf []string
	bufLen := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		chunks = append(chunks, c.newChunk(len(chunks), strings.Join(buf, "\n\n")))
		buf = nil
		bufLen = 0
	}

	for _, p := range paragraphs {
		if len(p) > c.chunkSize {
			flush()
			chunks = append(chunks, c.newChunk(len(chunks), p))
			continue
		}
		if bufLen+len(p) > c.chunkSize && len(buf) > 0 {
			flush()
		}
		buf = append(buf, p)
		bufLen += len(p) + 2
	}
	flush()

	return chunks
}

func (c *ParagraphChunker) newChunk(index int, text string) Chunk {
	return Chunk{
		Index:         index,
		Text:          text,
		Strategy:      "paragraph",
		ChunkerName:   "paragraph_packing",
		ChunkerParams: Params{ChunkSize: c.chunkSize, Overlap: c.overlap},
	}
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	var out []string
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// FixedChunker steps a fixed-width window across text with
// stride = chunkSize - overlap.
type FixedChunker struct {
	chunkSize int
	overlap   int
}

// NewFixedChunker returns a FixedChunker with the given parameters.
func NewFixedChunker(chunkSize, overlap int) *FixedChunker {
	return &FixedChunker{chunkSize: chunkSize, overlap: overlap}
}

func (c *FixedChunker) Chunk(text string) []Chunk {
	if text == "" {
		return nil
	}
	stride := c.chunkSize - c.overlap
	if stride <= 0 {
		stride = c.chunkSize
	}

	var chunks []Chunk
	for start := 0; start < len(text); start += stride {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, Chunk{
			Index:         len(chunks),
			Text:          text[start:end],
			Strategy:      "fixed",
			ChunkerName:   "fixed_window",
			ChunkerParams: Params{ChunkSize: c.chunkSize, Overlap: c.overlap},
		})
		if end == len(text) {
			break
		}
	}
	return chunks
}
