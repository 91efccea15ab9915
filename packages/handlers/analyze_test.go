package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoinsight/packages/handlers"
	"repoinsight/packages/repository"
	"repoinsight/packages/summarizer"
	"repoinsight/types"
)

type mockFetcher struct {
	entries []types.FileEntry
	err     error
	calls   int
}

func (m *mockFetcher) Fetch(_ context.Context, _ repository.RepoRef) ([]types.FileEntry, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

type mockSummarizer struct {
	fileSummaries map[string]string
	fileErrs      map[string]error

	projectSummary string
	projectErr     error

	fileCalls        int
	projectCalls     int
	projectSummaries []types.FileSummary
}

func (m *mockSummarizer) SummarizeFile(_ context.Context, path, _ string) (string, error) {
	m.fileCalls++
	if err, ok := m.fileErrs[path]; ok {
		return "", err
	}
	return m.fileSummaries[path], nil
}

func (m *mockSummarizer) SummarizeProject(_ context.Context, _ string, summaries []types.FileSummary) (string, error) {
	m.projectCalls++
	m.projectSummaries = summaries
	if m.projectErr != nil {
		return "", m.projectErr
	}
	return m.projectSummary, nil
}

func analyzeRequest(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze_repo", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func threeFileSetup() (*mockFetcher, *mockSummarizer, http.Handler) {
	fetcher := &mockFetcher{
		entries: []types.FileEntry{
			{Path: "cmd/main.go", Content: "package main"},
			{Path: "internal/store.go", Content: "package internal"},
			{Path: "readme.md", Content: "# readme"},
		},
	}
	sum := &mockSummarizer{
		fileSummaries: map[string]string{
			"cmd/main.go":       "S1",
			"internal/store.go": "S2",
			"readme.md":         "S3",
		},
		projectSummary: "Overall: combined",
	}
	return fetcher, sum, handlers.NewRouter(handlers.NewHandler(fetcher, sum))
}

func TestAnalyzeRepoInvalidURLMakesNoNetworkCalls(t *testing.T) {
	fetcher, sum, router := threeFileSetup()

	rec := analyzeRequest(t, router, `{"repo_url": "not-a-url"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["detail"])
	assert.Zero(t, fetcher.calls)
	assert.Zero(t, sum.fileCalls)
	assert.Zero(t, sum.projectCalls)
}

func TestAnalyzeRepoRejectsNonGitHubHosts(t *testing.T) {
	fetcher, _, router := threeFileSetup()

	rec := analyzeRequest(t, router, `{"repo_url": "https://gitlab.com/owner/name"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, fetcher.calls)
}

func TestAnalyzeRepoRejectsMalformedBody(t *testing.T) {
	fetcher, _, router := threeFileSetup()

	rec := analyzeRequest(t, router, `{"repo_url": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["detail"])
	assert.Zero(t, fetcher.calls)
}

func TestAnalyzeRepoRejectsMissingRepoURL(t *testing.T) {
	_, _, router := threeFileSetup()

	rec := analyzeRequest(t, router, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeRepoRepositoryNotFound(t *testing.T) {
	fetcher := &mockFetcher{err: repository.ErrRepositoryNotFound}
	sum := &mockSummarizer{}
	router := handlers.NewRouter(handlers.NewHandler(fetcher, sum))

	rec := analyzeRequest(t, router, `{"repo_url": "https://github.com/nobody/missing"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["detail"])
	assert.NotContains(t, body, "file_count")
	assert.Zero(t, sum.fileCalls)
}

func TestAnalyzeRepoFetchError(t *testing.T) {
	fetcher := &mockFetcher{err: &repository.FetchError{Op: "clone", Err: errors.New("network down")}}
	router := handlers.NewRouter(handlers.NewHandler(fetcher, &mockSummarizer{}))

	rec := analyzeRequest(t, router, `{"repo_url": "https://github.com/owner/name"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.NotContains(t, body, "file_count")
	// Raw upstream error text must not leak to the caller.
	assert.NotContains(t, body["detail"], "network down")
}

func TestAnalyzeRepoNoTextFiles(t *testing.T) {
	fetcher := &mockFetcher{entries: nil}
	router := handlers.NewRouter(handlers.NewHandler(fetcher, &mockSummarizer{}))

	rec := analyzeRequest(t, router, `{"repo_url": "https://github.com/owner/empty"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["detail"])
}

func TestAnalyzeRepoSuccess(t *testing.T) {
	fetcher, sum, router := threeFileSetup()

	rec := analyzeRequest(t, router, `{"repo_url": "https://github.com/golang/example"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "golang/example", resp.Repo)
	assert.Equal(t, 3, resp.FileCount)
	assert.Equal(t, "Overall: combined", resp.ProjectSummary)

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 3, sum.fileCalls)
	assert.Equal(t, 1, sum.projectCalls)
}

func TestAnalyzeRepoAcceptsGitSuffixAndTrailingSlash(t *testing.T) {
	for _, url := range []string{
		"https://github.com/golang/example.git",
		"https://github.com/golang/example/",
	} {
		_, _, router := threeFileSetup()
		rec := analyzeRequest(t, router, `{"repo_url": "`+url+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, "url: %s", url)

		var resp types.AnalyzeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "golang/example", resp.Repo)
	}
}

func TestAnalyzeRepoSkipsFailedFileSummary(t *testing.T) {
	fetcher, sum, _ := threeFileSetup()
	sum.fileErrs = map[string]error{
		"internal/store.go": &summarizer.SummarizationError{Path: "internal/store.go", Err: errors.New("quota")},
	}
	router := handlers.NewRouter(handlers.NewHandler(fetcher, sum))

	rec := analyzeRequest(t, router, `{"repo_url": "https://github.com/golang/example"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// file_count counts files read, including the one that failed to summarize.
	assert.Equal(t, 3, resp.FileCount)
	assert.Equal(t, "Overall: combined", resp.ProjectSummary)

	// The aggregate call ran with the two surviving summaries.
	require.Len(t, sum.projectSummaries, 2)
	assert.Equal(t, "cmd/main.go", sum.projectSummaries[0].Path)
	assert.Equal(t, "readme.md", sum.projectSummaries[1].Path)
}

func TestAnalyzeRepoAllFileSummariesFail(t *testing.T) {
	fetcher, sum, _ := threeFileSetup()
	sum.fileErrs = map[string]error{
		"cmd/main.go":       &summarizer.SummarizationError{Path: "cmd/main.go", Err: errors.New("quota")},
		"internal/store.go": &summarizer.SummarizationError{Path: "internal/store.go", Err: errors.New("quota")},
		"readme.md":         &summarizer.SummarizationError{Path: "readme.md", Err: errors.New("quota")},
	}
	router := handlers.NewRouter(handlers.NewHandler(fetcher, sum))

	rec := analyzeRequest(t, router, `{"repo_url": "https://github.com/golang/example"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, sum.projectCalls)
}

func TestAnalyzeRepoAggregateFailure(t *testing.T) {
	fetcher, sum, _ := threeFileSetup()
	sum.projectErr = &summarizer.SummarizationError{Err: errors.New("upstream 500")}
	router := handlers.NewRouter(handlers.NewHandler(fetcher, sum))

	rec := analyzeRequest(t, router, `{"repo_url": "https://github.com/golang/example"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["detail"])
	assert.NotContains(t, body["detail"], "upstream 500")
}

func TestAnalyzeRepoIsIdempotent(t *testing.T) {
	_, _, router := threeFileSetup()

	first := analyzeRequest(t, router, `{"repo_url": "https://github.com/golang/example"}`)
	second := analyzeRequest(t, router, `{"repo_url": "https://github.com/golang/example"}`)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestHome(t *testing.T) {
	_, _, router := threeFileSetup()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "/docs")
}

func TestHealth(t *testing.T) {
	_, _, router := threeFileSetup()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestDocsEndpoints(t *testing.T) {
	_, _, router := threeFileSetup()

	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swagger-ui")

	req = httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/analyze_repo")
}
