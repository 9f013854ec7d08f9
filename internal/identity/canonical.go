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

package identity

import "strings"

// BuildModuleCanonicalID returns the canonical_id of a MODULE artifact: the
// relative path itself, unchanged.
//
// The upstream extractor this was ported from derived the module name by
// right-trimming the literal characters "p", "y" from the path (a
// strings.rstrip(".py")-style bug: rstrip treats its argument as a character
// set, not a suffix, so "apy.py".rstrip(".py") == "a" instead of "apy").
// Nothing is trimmed here: the path is returned as is, so that bug cannot
// reoccur.
func BuildModuleCanonicalID(relativePath string) string {
	return relativePath
}

// BuildSymbolCanonicalID returns the canonical_id of a code symbol:
// "<relative_path>#<symbol_path>". If symbolPath already carries the
// "<relative_path>#" prefix (a mistake some extractors make when they
// compose ids from an already-prefixed parent id), the prefix is stripped
// first so the result never double-prefixes.
func BuildSymbolCanonicalID(relativePath, symbolPath string) string {
	prefix := relativePath + "#"
	symbolPath = strings.TrimPrefix(symbolPath, prefix)
	return prefix + symbolPath
}

// BuildSectionCanonicalID returns the canonical_id of a top-level Markdown
// section: "<relative_path>#<slug>".
func BuildSectionCanonicalID(relativePath, slug string) string {
	return relativePath + "#" + slug
}

// BuildNestedSectionCanonicalID returns the canonical_id of a nested
// Markdown section: "<relative_path>#<parent_slug>.<slug>".
func BuildNestedSectionCanonicalID(relativePath, parentSlug, slug string) string {
	return relativePath + "#" + parentSlug + "." + slug
}
