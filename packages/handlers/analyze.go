package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"repoinsight/packages/repository"
	"repoinsight/packages/summarizer"
	"repoinsight/types"
)

// Fetcher acquires the file tree of a repository.
type Fetcher interface {
	Fetch(ctx context.Context, ref repository.RepoRef) ([]types.FileEntry, error)
}

// Summarizer produces per-file and project-level summaries.
type Summarizer interface {
	SummarizeFile(ctx context.Context, path, content string) (string, error)
	SummarizeProject(ctx context.Context, repo string, summaries []types.FileSummary) (string, error)
}

// Handler holds the analyze endpoint's dependencies.
type Handler struct {
	fetcher    Fetcher
	summarizer Summarizer
}

// NewHandler creates a Handler with the given collaborators.
func NewHandler(fetcher Fetcher, summarizer Summarizer) *Handler {
	return &Handler{
		fetcher:    fetcher,
		summarizer: summarizer,
	}
}

// AnalyzeRepo handles POST /analyze_repo. The pipeline is strictly
// sequential: validate, fetch, summarize each file, summarize the project.
// Each request is independent; nothing is persisted.
func (h *Handler) AnalyzeRepo(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: expected JSON with a repo_url field")
		return
	}
	if req.RepoURL == "" {
		writeError(w, http.StatusBadRequest, "repo_url is required")
		return
	}

	// Reject malformed URLs before any network call happens.
	ref, err := repository.ParseRepoURL(req.RepoURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid GitHub URL. Must be of the form https://github.com/username/projectname")
		return
	}

	ctx := r.Context()
	slog.Info("Starting analysis", "repo", ref.String())

	entries, err := h.fetcher.Fetch(ctx, ref)
	if err != nil {
		var fetchErr *repository.FetchError
		switch {
		case errors.Is(err, repository.ErrRepositoryNotFound):
			writeError(w, http.StatusBadRequest, "Repository not found or not publicly accessible: "+ref.String())
		case errors.As(err, &fetchErr):
			slog.Error("Fetch failed", "repo", ref.String(), "error", err)
			writeError(w, http.StatusBadRequest, "Failed to fetch repository: "+ref.String())
		default:
			slog.Error("Unexpected fetch error", "repo", ref.String(), "error", err)
			writeError(w, http.StatusInternalServerError, "Internal error while fetching repository")
		}
		return
	}

	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "No text files found to analyze.")
		return
	}

	// Per-file failures are recovered: the file is skipped and the batch
	// continues with whatever summaries succeeded.
	summaries := make([]types.FileSummary, 0, len(entries))
	for _, entry := range entries {
		summary, err := h.summarizer.SummarizeFile(ctx, entry.Path, entry.Content)
		if err != nil {
			slog.Warn("Skipping failed file summary", "repo", ref.String(), "path", entry.Path, "error", err)
			continue
		}
		summaries = append(summaries, types.FileSummary{Path: entry.Path, Summary: summary})
	}

	if len(summaries) == 0 {
		writeError(w, http.StatusBadGateway, "All file summaries failed.")
		return
	}

	projectSummary, err := h.summarizer.SummarizeProject(ctx, ref.String(), summaries)
	if err != nil {
		slog.Error("Project summary failed", "repo", ref.String(), "error", err)
		var sumErr *summarizer.SummarizationError
		if errors.As(err, &sumErr) {
			writeError(w, http.StatusBadGateway, "Failed to generate project summary.")
		} else {
			writeError(w, http.StatusInternalServerError, "Internal error while generating project summary")
		}
		return
	}

	slog.Info("Analysis complete", "repo", ref.String(),
		"filesRead", len(entries), "filesSummarized", len(summaries))

	// file_count reports files read from the checkout, not files whose
	// summary succeeded.
	writeJSON(w, http.StatusOK, types.AnalyzeResponse{
		Repo:           ref.String(),
		FileCount:      len(entries),
		ProjectSummary: projectSummary,
	})
}

// Home handles GET / with a pointer at the docs path.
func (h *Handler) Home(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Repository Insight API. Use /docs to see endpoints.",
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, types.ErrorResponse{Detail: detail})
}
