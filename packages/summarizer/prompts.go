package summarizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"repoinsight/types"
)

// defaultChunkSize is the per-chunk character budget for file content.
const defaultChunkSize = 4000

// chunkContent splits content into pieces of at most size characters,
// breaking on line boundaries where possible. Empty content yields a single
// empty chunk so callers always make at least one call.
func chunkContent(content string, size int) []string {
	if utf8.RuneCountInString(content) <= size {
		return []string{content}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, line := range strings.SplitAfter(content, "\n") {
		lineLen := utf8.RuneCountInString(line)

		// A single line longer than the budget is split hard.
		for lineLen > size {
			runes := []rune(line)
			if currentLen > 0 {
				chunks = append(chunks, current.String())
				current.Reset()
				currentLen = 0
			}
			chunks = append(chunks, string(runes[:size]))
			line = string(runes[size:])
			lineLen = utf8.RuneCountInString(line)
		}

		if currentLen+lineLen > size && currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		current.WriteString(line)
		currentLen += lineLen
	}
	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func fileChunkPrompt(path string, chunk, totalChunks int, content string) string {
	return fmt.Sprintf(`You are an expert software engineer. Analyze this code chunk.

File: %s (chunk %d/%d)

Instructions:
- **Purpose**: What is the primary role of this code?
- **Main Components**: List main classes, functions, or variables.
- **Key Logic**: Describe any notable algorithms or business logic.
- **Dependencies**: What frameworks or libraries are used?

Content:
`+"```"+`
%s
`+"```", path, chunk, totalChunks, content)
}

func projectPrompt(repo string, summaries []types.FileSummary) string {
	var sb strings.Builder
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("--- File: %s ---\n%s\n\n", s.Path, s.Summary))
	}

	return fmt.Sprintf(`You are an expert software architect.
Analyze the following file summaries from a codebase named '%s' and provide a high-level executive summary.

Focus on:
1. **Primary Purpose**: What does this application do?
2. **Core Technologies**: What are the main frameworks and libraries?
3. **Architecture**: What is the high-level architecture?

**File Summaries:**
%s`, repo, sb.String())
}
