package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/studyhall-ai/studyhall/pkg/ai"
	pkgerrors "github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/i18n"
)

const NAME = "openai"

type Config struct {
	Token          string  `toml:"token"`
	Endpoint       string  `toml:"endpoint"`
	ChatModel      string  `toml:"chat_model"`
	EmbeddingModel string  `toml:"embedding_model"`
	Dimension      int     `toml:"dimension"`
	BatchSize      int     `toml:"batch_size"`
	MaxRetries     int     `toml:"max_retries"`
	TimeoutSecond  int     `toml:"timeout_second"`
	RateLimitRPS   float64 `toml:"rate_limit_rps"`
	Lang           string  `toml:"lang"`
}

func (c *Config) FromENV() {
	c.Token = os.Getenv("STUDYHALL_AI_TOKEN")
	c.Endpoint = os.Getenv("STUDYHALL_AI_ENDPOINT")
	c.ChatModel = os.Getenv("STUDYHALL_AI_CHAT_MODEL")
	c.EmbeddingModel = os.Getenv("STUDYHALL_AI_EMBEDDING_MODEL")
	if d := os.Getenv("STUDYHALL_AI_EMBEDDING_DIMENSION"); d != "" {
		if v, err := strconv.Atoi(d); err == nil {
			c.Dimension = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.ChatModel == "" {
		c.ChatModel = openai.GPT4oMini
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = string(openai.LargeEmbedding3)
	}
	if c.Dimension <= 0 {
		c.Dimension = 1024
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 16
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.TimeoutSecond <= 0 {
		c.TimeoutSecond = 60
	}
	if c.Lang == "" {
		c.Lang = ai.MODEL_BASE_LANGUAGE_EN
	}
}

type Driver struct {
	client  *openai.Client
	cfg     Config
	limiter *rate.Limiter
}

func New(cfg Config) *Driver {
	cfg.applyDefaults()

	clientCfg := openai.DefaultConfig(cfg.Token)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	return &Driver{
		client:  openai.NewClientWithConfig(clientCfg),
		cfg:     cfg,
		limiter: limiter,
	}
}

func (s *Driver) Lang() string {
	return s.cfg.Lang
}

func (s *Driver) Model() string {
	return s.cfg.ChatModel
}

func (s *Driver) Dimension() int {
	return s.cfg.Dimension
}

// embedding sends texts in batches, order preserving. A batch the
// upstream rejects as too large is halved and resent, never dropped.
// Transient failures retry with exponential backoff, permanent ones
// surface as KindEmbeddingService.
func (s *Driver) embedding(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	result := ai.EmbeddingResult{}
	if len(content) == 0 {
		return result, nil
	}

	var queue [][]string
	for start := 0; start < len(content); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(content) {
			end = len(content)
		}
		queue = append(queue, content[start:end])
	}

	for len(queue) > 0 {
		batch := queue[0]
		queue = queue[1:]

		resp, err := s.createEmbeddingsWithRetry(ctx, batch)
		if err != nil {
			if isBatchTooLarge(err) && len(batch) > 1 {
				mid := len(batch) / 2
				// keep original order: halves go to the head of the queue
				queue = append([][]string{batch[:mid], batch[mid:]}, queue...)
				slog.Warn("embedding batch rejected as too large, halving",
					slog.Int("batch", len(batch)), slog.String("driver", NAME))
				continue
			}
			return result, pkgerrors.New("openai.Driver.embedding", i18n.ERROR_EMBEDDING_UPSTREAM, err).
				Kind(pkgerrors.KindEmbeddingService).Code(http.StatusBadGateway)
		}

		for _, d := range resp.Data {
			if len(d.Embedding) != s.cfg.Dimension {
				return result, pkgerrors.New("openai.Driver.embedding.dimension", i18n.ERROR_DIMENSION_MISMATCH,
					fmt.Errorf("got %d dimensions, index configured for %d", len(d.Embedding), s.cfg.Dimension)).
					Kind(pkgerrors.KindIngestion)
			}
			result.Data = append(result.Data, d.Embedding)
		}
		result.Model = string(resp.Model)
		result.Usage.Add(ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		})
	}

	return result, nil
}

func (s *Driver) createEmbeddingsWithRetry(ctx context.Context, batch []string) (openai.EmbeddingResponse, error) {
	var (
		resp openai.EmbeddingResponse
		err  error
	)
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if err = s.limiter.Wait(ctx); err != nil {
			return resp, err
		}

		callCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSecond)*time.Second)
		resp, err = s.client.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
			Model:      openai.EmbeddingModel(s.cfg.EmbeddingModel),
			Dimensions: s.cfg.Dimension,
			Input:      batch,
		})
		cancel()
		if err == nil {
			return resp, nil
		}
		if !isTransient(err) || attempt == s.cfg.MaxRetries {
			return resp, err
		}
		if werr := sleepBackoff(ctx, attempt, err); werr != nil {
			return resp, werr
		}
	}
	return resp, err
}

func (s *Driver) EmbeddingForQuery(ctx context.Context, content []string) (ai.EmbeddingResult, error) {
	return s.embedding(ctx, content)
}

func (s *Driver) EmbeddingForDocument(ctx context.Context, title string, content []string) (ai.EmbeddingResult, error) {
	if title != "" {
		prefixed := make([]string, len(content))
		for i, v := range content {
			prefixed[i] = title + "\n" + v
		}
		content = prefixed
	}
	return s.embedding(ctx, content)
}

// Generate wraps the chat completion call with timeout and bounded
// retries. Quota exhaustion and content policy rejections are never
// retried, they map to distinct error kinds so the caller can tell
// "try again" from "contact support".
func (s *Driver) Generate(ctx context.Context, messages []ai.MessageContext, opts ai.GenerateOptions) (*ai.GenerateResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       s.cfg.ChatModel,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxOutputTokens,
	}
	if opts.JSONResponse {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var (
		resp openai.ChatCompletionResponse
		err  error
	)
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if err = s.limiter.Wait(ctx); err != nil {
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSecond)*time.Second)
		resp, err = s.client.CreateChatCompletion(callCtx, req)
		cancel()
		if err == nil {
			break
		}
		if !isTransient(err) || attempt == s.cfg.MaxRetries {
			break
		}
		if werr := sleepBackoff(ctx, attempt, err); werr != nil {
			err = werr
			break
		}
	}
	if err != nil {
		return nil, classifyGenerateError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, pkgerrors.New("openai.Driver.Generate.choices", i18n.ERROR_INTERNAL,
			fmt.Errorf("completion returned no choices"))
	}

	return &ai.GenerateResponse{
		Message: resp.Choices[0].Message.Content,
		Usage: ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func classifyGenerateError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.New("openai.Driver.Generate.timeout", i18n.ERROR_LLM_TIMEOUT, err).
			Kind(pkgerrors.KindLLMTimeout).Code(http.StatusGatewayTimeout)
	case isQuotaExhausted(err):
		return pkgerrors.New("openai.Driver.Generate.quota", i18n.ERROR_LLM_QUOTA_EXCEEDED, err).
			Kind(pkgerrors.KindLLMQuotaExceeded).Code(http.StatusPaymentRequired)
	case isContentRejected(err):
		return pkgerrors.New("openai.Driver.Generate.rejected", i18n.ERROR_LLM_REJECTED, err).
			Kind(pkgerrors.KindLLMRejected).Code(http.StatusUnprocessableEntity)
	default:
		return pkgerrors.New("openai.Driver.Generate", i18n.ERROR_INTERNAL, err).Code(http.StatusBadGateway)
	}
}

var retryAfterRe = regexp.MustCompile(`(?i)try again in ([0-9.]+)s`)

// sleepBackoff waits 2^attempt seconds, or whatever retry-after hint
// the upstream put into the error, whichever is longer.
func sleepBackoff(ctx context.Context, attempt int, err error) error {
	wait := time.Second * time.Duration(1<<attempt)
	if m := retryAfterRe.FindStringSubmatch(err.Error()); len(m) == 2 {
		if secs, perr := strconv.ParseFloat(m[1], 64); perr == nil {
			hinted := time.Duration(secs * float64(time.Second))
			if hinted > wait {
				wait = hinted
			}
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if isQuotaExhausted(err) || isContentRejected(err) || isBatchTooLarge(err) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return true
		}
		return apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	// network level failure or per-call deadline
	return true
}

func isQuotaExhausted(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
		return true
	}
	return false
}

func isContentRejected(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if code, ok := apiErr.Code.(string); ok {
		if code == "content_filter" || code == "content_policy_violation" {
			return true
		}
	}
	return false
}

func isBatchTooLarge(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.HTTPStatusCode == http.StatusRequestEntityTooLarge {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return apiErr.HTTPStatusCode == http.StatusBadRequest &&
		(strings.Contains(msg, "too large") || strings.Contains(msg, "too many inputs") || strings.Contains(msg, "reduce"))
}
