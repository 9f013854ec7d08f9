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

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Key prefixes for BadgerRepository's flat keyspace. Values are
// JSON-encoded; keys are built with \x00 as a field separator since it
// never appears in a repo_id, document_id or canonical_id.
const (
	prefixNode     = "node\x00"     // node\x00{repo_id}\x00{canonical_id}      -> DocumentNode
	prefixDocIndex = "docid\x00"    // docid\x00{document_id}                   -> docIndexEntry
	prefixRelFrom  = "relfrom\x00"  // relfrom\x00{from_document_id}\x00{seq}   -> DocumentRelationship
	prefixRelRepo  = "relrepo\x00"  // relrepo\x00{repo_id}\x00{seq}            -> DocumentRelationship
	prefixRepoMeta = "repometa\x00" // repometa\x00{repo_id}                    -> RepoSummary
)

type docIndexEntry struct {
	RepoID      string `json:"repo_id"`
	CanonicalID string `json:"canonical_id"`
}

// BadgerRepository is a Repository backed by a single embedded Badger
// key-value database, giving the CLI and a single-process server a
// durable store with no external dependency beyond a data directory.
type BadgerRepository struct {
	db *badger.DB
}

// BadgerOptions configures OpenBadgerRepository.
type BadgerOptions struct {
	// Dir is the on-disk data directory. Ignored when InMemory is true.
	Dir string
	// InMemory runs Badger's LSM tree entirely in memory, for tests.
	InMemory bool
}

// OpenBadgerRepository opens (creating if necessary) a Badger database
// at opts.Dir and returns a Repository over it.
func OpenBadgerRepository(opts BadgerOptions) (*BadgerRepository, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("store: opening badger database: %w", err)
	}
	return &BadgerRepository{db: db}, nil
}

func (b *BadgerRepository) Close() error {
	return b.db.Close()
}

func nodeKey(repoID, canonicalID string) []byte {
	return []byte(prefixNode + repoID + "\x00" + canonicalID)
}

func nodeRepoPrefix(repoID string) []byte {
	return []byte(prefixNode + repoID + "\x00")
}

func docIndexKey(documentID string) []byte {
	return []byte(prefixDocIndex + documentID)
}

func relFromPrefix(fromDocumentID string) []byte {
	return []byte(prefixRelFrom + fromDocumentID + "\x00")
}

func relRepoPrefix(repoID string) []byte {
	return []byte(prefixRelRepo + repoID + "\x00")
}

func repoMetaKey(repoID string) []byte {
	return []byte(prefixRepoMeta + repoID)
}

func (b *BadgerRepository) ReplaceRepo(ctx context.Context, repoID string, nodes []DocumentNode, relationships []DocumentRelationship) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := deletePrefix(txn, nodeRepoPrefix(repoID), func(value []byte) error {
			var n DocumentNode
			if err := json.Unmarshal(value, &n); err != nil {
				return err
			}
			return txn.Delete(docIndexKey(n.DocumentID))
		}); err != nil {
			return fmt.Errorf("deleting existing nodes: %w", err)
		}
		staleFromDocuments := map[string]struct{}{}
		if err := deletePrefix(txn, relRepoPrefix(repoID), func(value []byte) error {
			var rel DocumentRelationship
			if err := json.Unmarshal(value, &rel); err != nil {
				return err
			}
			staleFromDocuments[rel.FromDocumentID] = struct{}{}
			return nil
		}); err != nil {
			return fmt.Errorf("deleting existing repo relationships: %w", err)
		}
		// document ids are unique across repos, so every relfrom entry for
		// a from_document_id just orphaned by the repo-relationship delete
		// above belongs to this same generation and can be dropped too.
		for fromDocumentID := range staleFromDocuments {
			if err := deletePrefix(txn, relFromPrefix(fromDocumentID), nil); err != nil {
				return fmt.Errorf("deleting existing document relationships: %w", err)
			}
		}

		for _, n := range nodes {
			raw, err := json.Marshal(n)
			if err != nil {
				return err
			}
			if err := txn.Set(nodeKey(repoID, n.CanonicalID), raw); err != nil {
				return err
			}
			idxRaw, err := json.Marshal(docIndexEntry{RepoID: repoID, CanonicalID: n.CanonicalID})
			if err != nil {
				return err
			}
			if err := txn.Set(docIndexKey(n.DocumentID), idxRaw); err != nil {
				return err
			}
		}

		for i, rel := range relationships {
			raw, err := json.Marshal(rel)
			if err != nil {
				return err
			}
			seq := strconv.Itoa(i)
			if err := txn.Set([]byte(string(relFromPrefix(rel.FromDocumentID))+seq), raw); err != nil {
				return err
			}
			if err := txn.Set([]byte(string(relRepoPrefix(repoID))+seq), raw); err != nil {
				return err
			}
		}

		summary := RepoSummary{ID: repoID, NodeCount: len(nodes)}
		summaryRaw, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		return txn.Set(repoMetaKey(repoID), summaryRaw)
	})
}

// deletePrefix removes every key under prefix. onDelete, if non-nil, runs
// with the value of each deleted key before it is removed, letting
// callers clean up a secondary index as they go.
func deletePrefix(txn *badger.Txn, prefix []byte, onDelete func(value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = onDelete != nil
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := append([]byte(nil), item.Key()...)
		if onDelete != nil {
			if err := item.Value(func(val []byte) error {
				return onDelete(append([]byte(nil), val...))
			}); err != nil {
				return err
			}
		}
		keys = append(keys, key)
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (b *BadgerRepository) GetNodeByCanonicalID(ctx context.Context, repoID, canonicalID string) (DocumentNode, bool, error) {
	var node DocumentNode
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(repoID, canonicalID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &node)
		})
	})
	return node, found, err
}

func (b *BadgerRepository) ResolveDocumentIDs(ctx context.Context, repoID string, canonicalIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(canonicalIDs))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, id := range canonicalIDs {
			item, err := txn.Get(nodeKey(repoID, id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var n DocumentNode
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &n) }); err != nil {
				return err
			}
			out[id] = n.DocumentID
		}
		return nil
	})
	return out, err
}

func (b *BadgerRepository) NodesByCanonicalIDs(ctx context.Context, repoID string, canonicalIDs []string) ([]DocumentNode, error) {
	out := make([]DocumentNode, 0, len(canonicalIDs))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, id := range canonicalIDs {
			item, err := txn.Get(nodeKey(repoID, id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var n DocumentNode
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &n) }); err != nil {
				return err
			}
			out = append(out, n)
		}
		return nil
	})
	return out, err
}

func (b *BadgerRepository) AllNodes(ctx context.Context, repoID string) ([]DocumentNode, error) {
	var out []DocumentNode
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := nodeRepoPrefix(repoID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var n DocumentNode
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &n) }); err != nil {
				return err
			}
			out = append(out, n)
		}
		return nil
	})
	return out, err
}

func (b *BadgerRepository) scanRelationships(prefix []byte) ([]DocumentRelationship, error) {
	var out []DocumentRelationship
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rel DocumentRelationship
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &rel) }); err != nil {
				return err
			}
			out = append(out, rel)
		}
		return nil
	})
	return out, err
}

func (b *BadgerRepository) RelationshipsByRepo(ctx context.Context, repoID string) ([]DocumentRelationship, error) {
	return b.scanRelationships(relRepoPrefix(repoID))
}

func (b *BadgerRepository) RelationshipsByDocumentID(ctx context.Context, documentID string) ([]DocumentRelationship, error) {
	return b.scanRelationships(relFromPrefix(documentID))
}

func (b *BadgerRepository) ListRepos(ctx context.Context) ([]RepoSummary, error) {
	var out []RepoSummary
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixRepoMeta)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var s RepoSummary
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &s) }); err != nil {
				return err
			}
			out = append(out, s)
		}
		return nil
	})
	return out, err
}

func (b *BadgerRepository) UpdateSummary(ctx context.Context, ingestionID, summary string) error {
	canonicalID := fmt.Sprintf("file_document_%s", ingestionID)
	suffix := "\x00" + canonicalID

	return b.db.Update(func(txn *badger.Txn) error {
		var matchKey []byte
		var matchNode DocumentNode

		func() {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefixNode)
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
				key := it.Item().KeyCopy(nil)
				if !strings.HasSuffix(string(key), suffix) {
					continue
				}
				_ = it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &matchNode) })
				matchKey = key
				return
			}
		}()

		if matchKey == nil {
			return fmt.Errorf("store: no node found for ingestion %q", ingestionID)
		}
		matchNode.Summary = summary
		raw, err := json.Marshal(matchNode)
		if err != nil {
			return err
		}
		return txn.Set(matchKey, raw)
	})
}
