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

package extract

import (
	"regexp"
	"strings"

	"github.com/hybridcore/ragcore/internal/graph"
	"github.com/hybridcore/ragcore/internal/identity"
)

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)

// MarkdownExtractor produces one MARKDOWN_MODULE artifact per file and one
// MARKDOWN_SECTION per ATX heading ("# ", "## ", ... "###### "), nested
// according to heading level.
type MarkdownExtractor struct{}

// NewMarkdownExtractor returns a MarkdownExtractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{}
}

type markdownHeading struct {
	level     int
	text      string
	startLine int // 0-based index into lines
}

// Extract implements Extractor.
func (e *MarkdownExtractor) Extract(relativePath string, content []byte) ([]*graph.Artifact, error) {
	text := string(content)
	lines := strings.Split(text, "\n")

	moduleID := identity.BuildModuleCanonicalID(relativePath)
	module := &graph.Artifact{
		Type:         graph.ArtifactMarkdownModule,
		ID:           moduleID,
		Name:         relativePath,
		RelativePath: relativePath,
		Text:         text,
		StartLine:    1,
	}

	headings := findHeadings(lines)
	if len(headings) == 0 {
		return []*graph.Artifact{module}, nil
	}

	artifacts := []*graph.Artifact{module}
	dedup := identity.NewSlugDeduper()

	// stack holds the currently-open headings, outermost first; each entry
	// remembers its own slug so a deeper heading can address it as parent.
	type stackEntry struct {
		heading markdownHeading
		slug    string
		id      string
	}
	var stack []stackEntry

	for i, h := range headings {
		for len(stack) > 0 && stack[len(stack)-1].heading.level >= h.level {
			stack = stack[:len(stack)-1]
		}

		slug := dedup.Dedupe(h.text)

		var parentID, canonicalID string
		if len(stack) == 0 {
			parentID = moduleID
			canonicalID = identity.BuildSectionCanonicalID(relativePath, slug)
		} else {
			parent := stack[len(stack)-1]
			parentID = parent.id
			canonicalID = identity.BuildNestedSectionCanonicalID(relativePath, parent.slug, slug)
		}

		endLine := len(lines)
		for _, next := range headings[i+1:] {
			if next.level <= h.level {
				endLine = next.startLine
				break
			}
		}
		sectionText := strings.Join(lines[h.startLine:endLine], "\n")

		var parentSlug string
		if len(stack) > 0 {
			parentSlug = stack[len(stack)-1].slug
		}

		artifact := &graph.Artifact{
			Type:         graph.ArtifactMarkdownSection,
			ID:           canonicalID,
			Name:         h.text,
			ParentID:     parentID,
			RelativePath: relativePath,
			Text:         sectionText,
			StartLine:    h.startLine + 1,
			Section: &graph.SectionMeta{
				Level:      h.level,
				Slug:       slug,
				ParentSlug: parentSlug,
				Heading:    h.text,
			},
		}
		artifacts = append(artifacts, artifact)

		stack = append(stack, stackEntry{heading: h, slug: slug, id: canonicalID})
	}

	return artifacts, nil
}

func findHeadings(lines []string) []markdownHeading {
	var headings []markdownHeading
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		headings = append(headings, markdownHeading{
			level:     len(m[1]),
			text:      m[2],
			startLine: i,
		})
	}
	return headings
}
