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
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/go-github/v57/github"
)

var (
	// validGitURLPattern matches valid SSH git URLs: git@host:path or ssh://.
	validGitURLPattern = regexp.MustCompile(`^(git@|ssh://)[\w.\-@:/%]+$`)

	// dangerousCharsPattern matches shell metacharacters that could enable
	// command injection via exec.Command.
	dangerousCharsPattern = regexp.MustCompile(`[;&|$` + "`" + `\n\r\\]`)

	// githubHTTPSPattern extracts owner/repo from a github.com HTTPS URL, so
	// RepoLoader can prefer the tarball API path over a shell-out clone.
	githubHTTPSPattern = regexp.MustCompile(`^https://github\.com/([\w.\-]+)/([\w.\-]+?)(?:\.git)?/?$`)
)

// RepoSource names where to load a repository from.
type RepoSource struct {
	Type  string // "git_url" or "local_path"
	Value string
}

// FileInfo is one file discovered under a repository root.
type FileInfo struct {
	Path     string // relative to repo root, slash-separated
	FullPath string // absolute
	Size     int64
	Language string
}

// LoadResult is everything RepoLoader.Load collects about one repository.
type LoadResult struct {
	RootPath    string
	Files       []FileInfo
	FileCount   int
	TotalSize   int64
	Languages   map[string]int
	SkipReasons map[string]int
}

// RepoLoader resolves a RepoSource to a local directory tree, via git
// clone, a GitHub tarball fetch, or a validated local path, and walks it
// into a LoadResult. Grounded on the teacher's pkg/ingestion/repo_loader.go,
// with a GitHub-API tarball path added per the domain-stack wiring for
// github.com/google/go-github/v57.
type RepoLoader struct {
	logger      *slog.Logger
	githubToken string

	tempDirs   []string
	tempDirsMu sync.Mutex
}

// NewRepoLoader returns a RepoLoader. githubToken, if non-empty, makes Load
// prefer the GitHub tarball API over shelling out to git clone for
// github.com HTTPS URLs.
func NewRepoLoader(logger *slog.Logger, githubToken string) *RepoLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepoLoader{logger: logger, githubToken: githubToken}
}

// Close removes every temporary directory this loader created.
func (rl *RepoLoader) Close() error {
	rl.tempDirsMu.Lock()
	defer rl.tempDirsMu.Unlock()

	var lastErr error
	for _, dir := range rl.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			rl.logger.Warn("ingest.repo.cleanup_error", "dir", dir, "err", err)
			lastErr = err
		}
	}
	rl.tempDirs = nil
	return lastErr
}

func (rl *RepoLoader) trackTempDir(dir string) {
	rl.tempDirsMu.Lock()
	defer rl.tempDirsMu.Unlock()
	rl.tempDirs = append(rl.tempDirs, dir)
}

// Load resolves source to a root directory and walks it, excluding any path
// matching excludeGlobs and any file over maxFileSize bytes (0 means no
// limit).
func (rl *RepoLoader) Load(ctx context.Context, source RepoSource, excludeGlobs []string, maxFileSize int64) (*LoadResult, error) {
	var rootPath string
	var err error

	switch source.Type {
	case "git_url":
		rootPath, err = rl.resolveGitURL(ctx, source.Value)
		if err != nil {
			return nil, fmt.Errorf("ingest: loading git repo: %w", err)
		}
	case "local_path":
		rootPath, err = filepath.Abs(source.Value)
		if err != nil {
			return nil, fmt.Errorf("ingest: resolving local path: %w", err)
		}
		if err := validateLocalPath(rootPath); err != nil {
			return nil, fmt.Errorf("ingest: invalid local path: %w", err)
		}
		info, err := os.Stat(rootPath)
		if err != nil {
			return nil, fmt.Errorf("ingest: stat local path: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("ingest: local path is not a directory: %s", rootPath)
		}
	default:
		return nil, fmt.Errorf("ingest: unsupported repo source type %q", source.Type)
	}

	rl.logger.Info("ingest.repo.load.start", "root", rootPath, "type", source.Type)

	files, skipReasons, err := rl.walkRepository(rootPath, excludeGlobs, maxFileSize)
	if err != nil {
		return nil, fmt.Errorf("ingest: walking repository: %w", err)
	}

	var totalSize int64
	languages := make(map[string]int)
	for _, f := range files {
		totalSize += f.Size
		if f.Language != "" {
			languages[f.Language]++
		}
	}

	result := &LoadResult{
		RootPath:    rootPath,
		Files:       files,
		FileCount:   len(files),
		TotalSize:   totalSize,
		Languages:   languages,
		SkipReasons: skipReasons,
	}
	rl.logger.Info("ingest.repo.load.complete", "files", result.FileCount, "total_size", totalSize, "languages", languages)
	return result, nil
}

// resolveGitURL prefers the GitHub tarball API for github.com HTTPS URLs
// when a token is configured, falling back to the teacher's git-clone path
// otherwise — both paths are kept (SPEC_FULL §2).
func (rl *RepoLoader) resolveGitURL(ctx context.Context, gitURL string) (string, error) {
	if rl.githubToken != "" {
		if owner, repo, ok := parseGitHubHTTPSURL(gitURL); ok {
			dir, err := rl.fetchGitHubTarball(ctx, owner, repo)
			if err == nil {
				return dir, nil
			}
			rl.logger.Warn("ingest.repo.github_tarball_fallback", "owner", owner, "repo", repo, "err", err)
		}
	}
	return rl.cloneGitRepo(gitURL)
}

func parseGitHubHTTPSURL(gitURL string) (owner, repo string, ok bool) {
	m := githubHTTPSPattern.FindStringSubmatch(gitURL)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// fetchGitHubTarball downloads repo's default-branch tarball via the
// GitHub API and extracts it to a temporary directory, avoiding a
// shell-out to git for the common case of a public or token-authorized
// GitHub repository.
func (rl *RepoLoader) fetchGitHubTarball(ctx context.Context, owner, repo string) (string, error) {
	client := github.NewClient(nil).WithAuthToken(rl.githubToken)

	link, _, err := client.Repositories.GetArchiveLink(ctx, owner, repo, github.Tarball, nil, 3)
	if err != nil {
		return "", fmt.Errorf("resolving tarball link: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading tarball: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tarball download returned status %d", resp.StatusCode)
	}

	tmpDir, err := os.MkdirTemp("", "ragcore-ingestion-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	if err := extractTarGz(resp.Body, tmpDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("extracting tarball: %w", err)
	}

	root, err := singleTopLevelDir(tmpDir)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", err
	}

	rl.trackTempDir(tmpDir)
	rl.logger.Info("ingest.repo.github_tarball.success", "owner", owner, "repo", repo, "root", root)
	return root, nil
}

// extractTarGz writes every regular file in a gzip-compressed tarball
// under destDir, preserving relative paths.
func extractTarGz(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, filepath.Clean(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			continue // guard against a malicious "../" entry
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
}

// singleTopLevelDir returns the lone top-level directory GitHub's tarball
// format always wraps its content in ("<owner>-<repo>-<sha>/...").
func singleTopLevelDir(parent string) (string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			return filepath.Join(parent, e.Name()), nil
		}
	}
	return "", fmt.Errorf("tarball contained no top-level directory")
}

// validateGitURL rejects shell metacharacters and malformed URLs before a
// value reaches exec.Command.
func validateGitURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("git URL is empty")
	}
	if dangerousCharsPattern.MatchString(gitURL) {
		return fmt.Errorf("git URL contains dangerous characters")
	}

	if strings.HasPrefix(gitURL, "http://") || strings.HasPrefix(gitURL, "https://") {
		parsed, err := url.Parse(gitURL)
		if err != nil {
			return fmt.Errorf("invalid URL format: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("git URL missing host")
		}
		if parsed.User != nil {
			if _, hasPassword := parsed.User.Password(); hasPassword {
				return fmt.Errorf("git URL should not contain embedded password")
			}
		}
		return nil
	}

	if strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://") {
		if !validGitURLPattern.MatchString(gitURL) {
			return fmt.Errorf("invalid SSH git URL format")
		}
		return nil
	}

	if strings.HasPrefix(gitURL, "file://") {
		return nil
	}

	return fmt.Errorf("unsupported git URL protocol: must be https://, git@, ssh://, or file://")
}

// cloneGitRepo shallow-clones gitURL into a fresh temp directory.
func (rl *RepoLoader) cloneGitRepo(gitURL string) (string, error) {
	if err := validateGitURL(gitURL); err != nil {
		return "", fmt.Errorf("invalid git URL: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "ragcore-ingestion-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	// #nosec G204 - gitURL is validated above to reject shell metacharacters.
	cmd := exec.Command("git", "clone", "--depth", "1", "--quiet", gitURL, tmpDir)

	logURL := sanitizeGitURLForLog(gitURL)
	rl.logger.Info("ingest.repo.clone.start", "url", logURL, "temp_dir", tmpDir)

	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("git clone failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	rl.logger.Info("ingest.repo.clone.success", "url", logURL, "temp_dir", tmpDir)
	rl.trackTempDir(tmpDir)
	return tmpDir, nil
}

func sanitizeGitURLForLog(gitURL string) string {
	parsed, err := url.Parse(gitURL)
	if err != nil {
		return gitURL
	}
	parsed.RawQuery = ""
	if parsed.User != nil {
		parsed.User = url.User("***")
	}
	return parsed.String()
}

// validateLocalPath rejects path traversal and access to sensitive system
// directories.
func validateLocalPath(path string) error {
	cleaned := filepath.Clean(path)
	if cleaned != path {
		return fmt.Errorf("path contains traversal attempts: %s", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path: %w", err)
	}
	if strings.Contains(absPath, "..") {
		return fmt.Errorf("path contains suspicious patterns after resolution: %s", absPath)
	}
	if !filepath.IsAbs(absPath) {
		return fmt.Errorf("path did not resolve to absolute path: %s", absPath)
	}
	if absPath == "" || absPath == "/" {
		return fmt.Errorf("path is empty or root directory, which is not allowed")
	}

	for _, sensitive := range []string{"/etc", "/sys", "/proc", "/dev", "/boot", "/root"} {
		if absPath == sensitive || strings.HasPrefix(absPath, sensitive+"/") {
			return fmt.Errorf("path is in sensitive system directory: %s", absPath)
		}
	}
	return nil
}

func (rl *RepoLoader) walkRepository(rootPath string, excludeGlobs []string, maxFileSize int64) ([]FileInfo, map[string]int, error) {
	var files []FileInfo
	skipReasons := make(map[string]int)

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			rl.logger.Warn("ingest.repo.walk_error", "path", path, "err", err)
			return nil
		}

		relPath, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if relPath != "." && shouldExclude(relPath, excludeGlobs) {
				skipReasons["excluded_dir"]++
				return filepath.SkipDir
			}
			return nil
		}

		if shouldExclude(relPath, excludeGlobs) {
			skipReasons["excluded"]++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if maxFileSize > 0 && info.Size() > maxFileSize {
			skipReasons["too_large"]++
			rl.logger.Warn("ingest.repo.skip_large_file", "path", relPath, "size", info.Size(), "limit", maxFileSize)
			return nil
		}

		files = append(files, FileInfo{
			Path:     filepath.ToSlash(relPath),
			FullPath: path,
			Size:     info.Size(),
			Language: detectLanguageFromPath(relPath),
		})
		return nil
	})

	return files, skipReasons, err
}

func shouldExclude(path string, excludeGlobs []string) bool {
	normalized := filepath.ToSlash(path)
	for _, pattern := range excludeGlobs {
		if matchesGlob(normalized, pattern) {
			return true
		}
	}
	return false
}

// matchesGlob supports *, **, ?, and character classes, matching pattern
// against path or against any path suffix (an implicit **/ prefix), so
// exclude globs read the way .gitignore-style tooling expects.
func matchesGlob(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)

	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
		parts := strings.Split(path, "/")
		for i := range parts {
			subpath := strings.Join(parts[i:], "/")
			if subpath == prefix || strings.HasPrefix(subpath, prefix+"/") {
				return true
			}
		}
	}

	if strings.HasPrefix(pattern, "*.") && !strings.Contains(pattern, "/") {
		return strings.HasSuffix(path, pattern[1:])
	}

	if strings.HasPrefix(pattern, "**/") {
		suffix := pattern[3:]
		if path == suffix || strings.HasSuffix(path, "/"+suffix) {
			return true
		}
		if matchGlobPattern(path, suffix) {
			return true
		}
		parts := strings.Split(path, "/")
		for i := range parts {
			if matchGlobPattern(strings.Join(parts[i:], "/"), suffix) {
				return true
			}
		}
		return false
	}

	if !strings.ContainsAny(pattern, "*?[") {
		return path == pattern || strings.HasSuffix(path, "/"+pattern) || strings.HasPrefix(path, pattern+"/")
	}

	if matchGlobPattern(path, pattern) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		if matchGlobPattern(strings.Join(parts[i:], "/"), pattern) {
			return true
		}
	}
	return false
}

func matchGlobPattern(path, pattern string) bool {
	return matchGlobRecursive(path, pattern, 0, 0)
}

func matchGlobRecursive(path, pattern string, pi, pti int) bool {
	for pi < len(path) || pti < len(pattern) {
		if pti >= len(pattern) {
			return false
		}

		if pti+1 < len(pattern) && pattern[pti] == '*' && pattern[pti+1] == '*' {
			nextPti := pti + 2
			if nextPti < len(pattern) && pattern[nextPti] == '/' {
				nextPti++
			}
			if nextPti >= len(pattern) {
				return true
			}
			for i := pi; i <= len(path); i++ {
				if matchGlobRecursive(path, pattern, i, nextPti) {
					return true
				}
			}
			return false
		}

		if pattern[pti] == '*' {
			nextPti := pti + 1
			if nextPti >= len(pattern) {
				for i := pi; i <= len(path); i++ {
					if i == len(path) || path[i] == '/' {
						if i == len(path) {
							return true
						}
					}
				}
				return false
			}
			for i := pi; i <= len(path); i++ {
				if i > pi && path[i-1] == '/' {
					break
				}
				if matchGlobRecursive(path, pattern, i, nextPti) {
					return true
				}
			}
			return false
		}

		if pattern[pti] == '?' {
			if pi >= len(path) || path[pi] == '/' {
				return false
			}
			pi++
			pti++
			continue
		}

		if pattern[pti] == '[' {
			if pi >= len(path) {
				return false
			}
			closeIdx := pti + 1
			if closeIdx < len(pattern) && (pattern[closeIdx] == '!' || pattern[closeIdx] == '^') {
				closeIdx++
			}
			if closeIdx < len(pattern) && pattern[closeIdx] == ']' {
				closeIdx++
			}
			for closeIdx < len(pattern) && pattern[closeIdx] != ']' {
				closeIdx++
			}
			if closeIdx >= len(pattern) {
				if path[pi] != '[' {
					return false
				}
				pi++
				pti++
				continue
			}
			if !matchCharClass(path[pi], pattern[pti+1:closeIdx]) {
				return false
			}
			pi++
			pti = closeIdx + 1
			continue
		}

		if pi >= len(path) || path[pi] != pattern[pti] {
			return false
		}
		pi++
		pti++
	}

	return pi == len(path) && pti == len(pattern)
}

func matchCharClass(c byte, class string) bool {
	if len(class) == 0 {
		return false
	}
	negated := false
	idx := 0
	if class[0] == '!' || class[0] == '^' {
		negated = true
		idx = 1
	}
	matched := false
	for idx < len(class) {
		if idx+2 < len(class) && class[idx+1] == '-' {
			if c >= class[idx] && c <= class[idx+2] {
				matched = true
			}
			idx += 3
			continue
		}
		if c == class[idx] {
			matched = true
		}
		idx++
	}
	if negated {
		return !matched
	}
	return matched
}

var languageByExtension = map[string]string{
	".py":  "python",
	".md":  "markdown",
	".go":  "go",
	".js":  "javascript",
	".ts":  "typescript",
	".jsx": "javascript",
	".tsx": "typescript",
	".rb":  "ruby",
	".rs":  "rust",
	".java": "java",
}

func detectLanguageFromPath(path string) string {
	return languageByExtension[strings.ToLower(filepath.Ext(path))]
}
