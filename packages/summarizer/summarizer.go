// Package summarizer wraps the external LLM APIs that produce per-file and
// project-level summaries. Two Gemini model handles are configured at
// startup: one for per-file calls, one for the aggregate call. When an
// OpenAI key is configured, a failed Gemini call is retried once against
// OpenAI before the error is reported.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"repoinsight/packages/config"
	"repoinsight/types"
)

// SummarizationError reports a failed summarization call. Path is empty for
// the aggregate project-level call.
type SummarizationError struct {
	Path string
	Err  error
}

func (e *SummarizationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("summarize project: %v", e.Err)
	}
	return fmt.Sprintf("summarize %s: %v", e.Path, e.Err)
}

func (e *SummarizationError) Unwrap() error {
	return e.Err
}

// Client calls the summarization APIs. Safe for concurrent use; the
// underlying genai client multiplexes requests.
type Client struct {
	client       *genai.Client
	fileModel    *genai.GenerativeModel
	projectModel *genai.GenerativeModel

	openai      *openai.Client
	openaiModel string
}

// NewClient builds the Gemini client and both model handles from the
// configuration. The OpenAI fallback client is only created when a key is
// configured.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client:       client,
		fileModel:    configureModel(client.GenerativeModel(cfg.FileModel), cfg.AI.File),
		projectModel: configureModel(client.GenerativeModel(cfg.ProjectModel), cfg.AI.Project),
	}

	if cfg.OpenAIFallbackEnabled() {
		c.openai = openai.NewClient(cfg.OpenAIAPIKey)
		c.openaiModel = cfg.OpenAIModel
		slog.Info("OpenAI fallback configured", "model", cfg.OpenAIModel)
	}

	return c, nil
}

// Close releases the underlying Gemini client.
func (c *Client) Close() error {
	return c.client.Close()
}

func configureModel(model *genai.GenerativeModel, gen config.GenerationConfig) *genai.GenerativeModel {
	model.SetTemperature(gen.Temperature)
	model.SetTopK(gen.TopK)
	model.SetTopP(gen.TopP)
	model.SetMaxOutputTokens(gen.MaxOutputTokens)
	return model
}

// SummarizeFile produces a short summary of one file. Content is chunked so
// large files stay within the model's input budget; chunk summaries are
// joined into the file summary. Errors are *SummarizationError and are meant
// to be recovered by the caller: a failed file is skipped, not fatal.
func (c *Client) SummarizeFile(ctx context.Context, path, content string) (string, error) {
	chunks := chunkContent(content, defaultChunkSize)

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		prompt := fileChunkPrompt(path, i+1, len(chunks), chunk)
		text, err := c.generate(ctx, c.fileModel, prompt)
		if err != nil {
			return "", &SummarizationError{Path: path, Err: err}
		}
		summaries = append(summaries, text)
	}

	return strings.Join(summaries, "\n\n---\n\n"), nil
}

// SummarizeProject produces the aggregate summary from the per-file
// summaries. A failure here is fatal for the request: there is no meaningful
// partial result without the aggregate.
func (c *Client) SummarizeProject(ctx context.Context, repo string, summaries []types.FileSummary) (string, error) {
	if len(summaries) == 0 {
		return "", &SummarizationError{Err: fmt.Errorf("no file summaries to aggregate")}
	}

	text, err := c.generate(ctx, c.projectModel, projectPrompt(repo, summaries))
	if err != nil {
		return "", &SummarizationError{Err: err}
	}
	return text, nil
}

// generate runs one Gemini call, falling back to OpenAI when configured.
func (c *Client) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err == nil {
		text, extractErr := extractText(resp)
		if extractErr == nil {
			return text, nil
		}
		err = extractErr
	}

	if c.openai == nil {
		return "", err
	}

	slog.Warn("Gemini call failed, falling back to OpenAI", "error", err)
	return c.generateWithOpenAI(ctx, prompt)
}

func (c *Client) generateWithOpenAI(ctx context.Context, prompt string) (string, error) {
	resp, err := c.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.openaiModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("openai fallback: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai fallback: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// extractText pulls the generated text out of a Gemini response.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in response")
	}
	return strings.TrimSpace(sb.String()), nil
}
