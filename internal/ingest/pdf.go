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

package ingest

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hybridcore/ragcore/internal/chunk"
)

// PDFExtractor turns a PDF file into page-level chunks, feeding the
// ingestion pipeline's pre-chunked entry point (spec §4.2 entry point 2).
// A page boundary is treated as a natural chunk boundary rather than
// re-running the length-tiered chunk.SelectChunker over concatenated text,
// since a PDF's layout already segments the document for the reader.
type PDFExtractor struct{}

// NewPDFExtractor returns a PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// PageChunk is one page's extracted text, addressed by 1-based page number.
type PageChunk struct {
	Page int
	Text string
}

// ExtractPages opens the PDF at path and returns one PageChunk per
// non-blank page.
func (e *PDFExtractor) ExtractPages(path string) ([]PageChunk, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: opening pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	out := make([]PageChunk, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("ingest: extracting pdf page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, PageChunk{Page: i, Text: text})
	}
	return out, nil
}

// ToChunks converts pages into chunk.Chunk values, one per page, so the
// pipeline's embed+persist stage can treat them identically to any other
// chunker's output.
func ToChunks(pages []PageChunk) []chunk.Chunk {
	out := make([]chunk.Chunk, len(pages))
	for i, p := range pages {
		out[i] = chunk.Chunk{
			Index:         i,
			Text:          p.Text,
			Strategy:      "pdf_page",
			ChunkerName:   "pdf_page_extractor",
			ChunkerParams: chunk.Params{ChunkSize: 0, Overlap: 0},
		}
	}
	return out
}
