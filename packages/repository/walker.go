package repository

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"repoinsight/types"
)

// textExtensions is the allowlist of file suffixes treated as summarizable
// text. Matching is by suffix so bare names like "dockerfile" work too.
var textExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".json", ".md", ".yaml", ".yml",
	".html", ".css", ".scss", ".go", ".java", ".cs", ".php", ".rb", ".rs", ".swift",
	"dockerfile", ".env.example", ".gitignore", ".toml", ".ini", ".xml", ".sh",
	".sql", ".properties", ".gradle", "requirements.txt", "package.json", "composer.json",
}

// defaultIgnoreDirs are directories excluded from enumeration when ignore
// rules are enabled. The .git directory is excluded unconditionally.
var defaultIgnoreDirs = []string{
	"node_modules", ".svn", ".hg",
	"dist", "build", ".next", ".nuxt", "out",
	"coverage", ".nyc_output",
	"__pycache__", ".pytest_cache",
	".vscode", ".idea", ".venv", "venv", "env",
	"target", "bin", "obj", ".gradle", ".mvn",
	".turbo", ".vercel", ".netlify",
}

// defaultIgnoreFiles are exact file names excluded when ignore rules are
// enabled, mostly lockfiles and local environment files.
var defaultIgnoreFiles = []string{
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "bun.lockb",
	"go.sum", "pipfile.lock", "poetry.lock", "gemfile.lock",
	"composer.lock", "mix.lock", "pubspec.lock",
	".env", ".env.local", ".env.production", ".env.development",
}

// walker enumerates the text files of a local checkout.
type walker struct {
	root              string
	useIgnoreRules    bool
	maxFileSize       int64
	gitignorePatterns []string
}

func newWalker(root string, useIgnoreRules bool, maxFileSize int64) *walker {
	w := &walker{
		root:           root,
		useIgnoreRules: useIgnoreRules,
		maxFileSize:    maxFileSize,
	}
	if useIgnoreRules {
		w.parseGitignore()
	}
	return w
}

// collect walks the checkout and returns one FileEntry per readable text
// file, in sorted path order (WalkDir visits lexically).
func (w *walker) collect() ([]types.FileEntry, error) {
	var entries []types.FileEntry

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, relErr := filepath.Rel(w.root, path)
		if relErr != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			if w.useIgnoreRules && w.shouldIgnoreDirectory(relPath, d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		if !isTextPath(d.Name()) {
			return nil
		}
		if w.useIgnoreRules && w.shouldIgnoreFile(relPath, d.Name()) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			slog.Warn("Skipping unreadable file", "path", relPath, "error", infoErr)
			return nil
		}
		if w.maxFileSize > 0 && info.Size() > w.maxFileSize {
			slog.Info("Skipping oversized file", "path", relPath, "size", info.Size())
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("Skipping unreadable file", "path", relPath, "error", readErr)
			return nil
		}
		if isBinary(content) || strings.TrimSpace(string(content)) == "" {
			return nil
		}

		entries = append(entries, types.FileEntry{Path: relPath, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (w *walker) parseGitignore() {
	content, err := os.ReadFile(filepath.Join(w.root, ".gitignore"))
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			w.gitignorePatterns = append(w.gitignorePatterns, line)
		}
	}
}

func (w *walker) shouldIgnoreDirectory(relPath, name string) bool {
	for _, pattern := range w.gitignorePatterns {
		if matchesGitignore(pattern, relPath, name) {
			return true
		}
	}

	lowerName := strings.ToLower(name)
	for _, dir := range defaultIgnoreDirs {
		if lowerName == dir {
			return true
		}
	}
	return false
}

func (w *walker) shouldIgnoreFile(relPath, name string) bool {
	for _, pattern := range w.gitignorePatterns {
		if matchesGitignore(pattern, relPath, name) {
			return true
		}
	}

	lowerName := strings.ToLower(name)
	for _, ignored := range defaultIgnoreFiles {
		if lowerName == ignored {
			return true
		}
	}
	return false
}

func matchesGitignore(pattern, relPath, name string) bool {
	if matched, _ := filepath.Match(pattern, relPath); matched {
		return true
	}
	if matched, _ := filepath.Match(pattern, name); matched {
		return true
	}
	if strings.HasSuffix(pattern, "/") {
		dir := strings.TrimSuffix(pattern, "/")
		if relPath == dir || strings.HasPrefix(relPath, dir+"/") {
			return true
		}
	}
	return false
}

func isTextPath(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range textExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// isBinary flags content with NUL bytes or a high ratio of non-printable
// characters in the first 8 KiB.
func isBinary(content []byte) bool {
	checkSize := 8192
	if len(content) < checkSize {
		checkSize = len(content)
	}
	if checkSize == 0 {
		return false
	}

	nonPrintable := 0
	for i := 0; i < checkSize; i++ {
		if content[i] == 0 {
			return true
		}
		if content[i] < 32 && content[i] != '\n' && content[i] != '\r' && content[i] != '\t' {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(checkSize) > 0.30
}
