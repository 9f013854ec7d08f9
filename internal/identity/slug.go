// Copyright 2026 Hybridcore
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"fmt"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, collapses runs of non-alphanumeric characters to a
// single underscore, and trims leading/trailing underscores.
func Slugify(s string) string {
	lowered := strings.ToLower(s)
	collapsed := nonAlnum.ReplaceAllString(lowered, "_")
	return strings.Trim(collapsed, "_")
}

// SlugDeduper assigns deduplicated slugs within a single file: the first
// occurrence of a slug is returned unchanged, the second is suffixed "_2",
// the third "_3", and so on.
type SlugDeduper struct {
	seen map[string]int
}

// NewSlugDeduper returns a deduper with no prior history.
func NewSlugDeduper() *SlugDeduper {
	return &SlugDeduper{seen: make(map[string]int)}
}

// Dedupe returns the deduplicated slug for heading/name text, recording the
// occurrence for future calls.
func (d *SlugDeduper) Dedupe(text string) string {
	base := Slugify(text)
	count := d.seen[base]
	d.seen[base] = count + 1
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, count+1)
}
