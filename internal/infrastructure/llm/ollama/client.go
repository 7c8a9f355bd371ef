package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bovicare/bovicare/internal/core/domain"
	"github.com/bovicare/bovicare/internal/infrastructure/resilience"
)

// Client talks to one Ollama instance. The generation, embedding and judge
// models are configured separately so the judge can run a smaller model
// than the answer generator.
type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	judgeModel string
	httpClient *http.Client
	exec       *resilience.Executor
}

func New(baseURL, genModel, embedModel, judgeModel string, exec *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		judgeModel: judgeModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		exec:       exec,
	}
}

// Generator produces the user-facing answer from ranked context chunks.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, question string, candidates []domain.Candidate) (string, error) {
	return g.client.generate(ctx, "generate_answer", map[string]any{
		"model":  g.client.genModel,
		"system": answerSystemPrompt,
		"prompt": buildAnswerPrompt(question, candidates),
		"stream": false,
	})
}

// Judge implements the relevance/grading arbiter on top of the judge
// model. ScoreStructured constrains the reply to JSON; ScoreText leaves
// the model free-form for the number-only fallback.
type Judge struct {
	client *Client
}

func NewJudge(client *Client) *Judge {
	return &Judge{client: client}
}

func (j *Judge) ScoreStructured(ctx context.Context, system, prompt string) (string, error) {
	return j.client.generate(ctx, "judge_structured", map[string]any{
		"model":  j.client.judgeModel,
		"system": system,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	})
}

func (j *Judge) ScoreText(ctx context.Context, system, prompt string) (string, error) {
	return j.client.generate(ctx, "judge_text", map[string]any{
		"model":  j.client.judgeModel,
		"system": system,
		"prompt": prompt,
		"stream": false,
	})
}

// Embedder builds dense vectors for chunks and queries.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}
	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "embed", "/api/embed", request, &response); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Classifier extracts disease metadata from document text.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	reply, err := c.client.generate(ctx, "classify_disease", map[string]any{
		"model":  c.client.genModel,
		"prompt": buildClassificationPrompt(text),
		"stream": false,
		"format": "json",
	})
	if err != nil {
		return domain.Classification{}, err
	}

	var result domain.Classification
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &result); err != nil {
		return domain.Classification{}, fmt.Errorf("parse classification json: %w", err)
	}
	if result.Tags == nil {
		result.Tags = []string{}
	}
	return result, nil
}

func (c *Client) generate(ctx context.Context, operation string, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, operation, "/api/generate", reqBody, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

// extractJSONObject trims prose the model sometimes wraps around the JSON
// body even in format=json mode.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
