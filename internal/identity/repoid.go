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

// Package identity implements the canonical identity model that threads
// through the whole retrieval core: repo_id (a deterministic UUID derived
// from a repository URL) and canonical_id (a deterministic, human-readable
// path within a repository or document).
package identity

import (
	"strings"

	"github.com/google/uuid"
)

// repoNamespace is the fixed UUID namespace every repo_id is derived under.
// Using a fixed namespace (rather than uuid.NameSpaceURL) keeps repo_ids
// stable even if this package later normalizes URLs differently than the
// stdlib URL namespace would; the namespace itself is never persisted.
var repoNamespace = uuid.MustParse("6f1f1b2a-9b0e-4c7a-8f8e-2f6a1a0d4b3c")

// BuildRepoID derives a deterministic repo_id from a repository URL.
//
// The URL is normalized before hashing so that equivalent URLs collapse to
// the same id: lowercased, a trailing "/" stripped, then a trailing ".git"
// stripped. Normalization is applied in that order so "HTTPS://Host/Repo.GIT/"
// and "https://host/repo" produce the same repo_id.
func BuildRepoID(repoURL string) uuid.UUID {
	normalized := normalizeRepoURL(repoURL)
	return uuid.NewSHA1(repoNamespace, []byte(normalized))
}

func normalizeRepoURL(repoURL string) string {
	u := strings.ToLower(strings.TrimSpace(repoURL))
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimSuffix(u, ".git")
	return u
}
