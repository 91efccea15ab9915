package types

// FileEntry is a single text file read from a repository checkout: a
// repo-relative path plus the file's content. Binary and ignored files
// never become entries.
type FileEntry struct {
	Path    string
	Content string
}

// FileSummary pairs a file path with its generated summary. It only lives
// for the duration of one analyze request.
type FileSummary struct {
	Path    string
	Summary string
}

// AnalyzeRequest is the body of POST /analyze_repo.
type AnalyzeRequest struct {
	RepoURL string `json:"repo_url"`
}

// AnalyzeResponse is the success payload of POST /analyze_repo.
// FileCount is the number of text files read from the checkout, including
// files whose per-file summary failed.
type AnalyzeResponse struct {
	Repo           string `json:"repo"`
	FileCount      int    `json:"file_count"`
	ProjectSummary string `json:"project_summary"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
