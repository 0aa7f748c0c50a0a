package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/rushteam/courserec/core"
)

const (
	DefaultGeminiModel     = "text-embedding-004"
	DefaultGeminiDimension = 768
)

// GeminiEmbedder 通过 genai SDK 调用 Gemini 嵌入模型，把查询文本转换成向量。
//
//	emb, err := service.NewGeminiEmbedder(ctx, apiKey,
//		service.WithGeminiModel("text-embedding-004"),
//		service.WithGeminiTimeout(5*time.Second))
//	vec, err := emb.Embed(ctx, "machine learning and optimization")
type GeminiEmbedder struct {
	Model string

	// BaseURL 为空时使用 SDK 默认地址
	BaseURL string

	// TaskType 默认 RETRIEVAL_QUERY（与目录侧的 RETRIEVAL_DOCUMENT 配对）
	TaskType string

	// OutputDimensionality 输出维度，需与目录索引一致
	OutputDimensionality int

	Timeout time.Duration

	httpClient *http.Client
	client     *genai.Client
}

type GeminiOption func(*GeminiEmbedder)

func WithGeminiModel(model string) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.Model = model
	}
}

func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.BaseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithGeminiDimension(dim int) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.OutputDimensionality = dim
	}
}

func WithGeminiTaskType(taskType string) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.TaskType = taskType
	}
}

func WithGeminiTimeout(timeout time.Duration) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.Timeout = timeout
	}
}

func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.httpClient = client
	}
}

// NewGeminiEmbedder 创建 genai 客户端；缺少 API key 等客户端配置错误返回 CONFIGURATION。
func NewGeminiEmbedder(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiEmbedder, error) {
	e := &GeminiEmbedder{
		Model:                DefaultGeminiModel,
		TaskType:             "RETRIEVAL_QUERY",
		OutputDimensionality: DefaultGeminiDimension,
		Timeout:              10 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.httpClient == nil {
		e.httpClient = &http.Client{Timeout: e.Timeout}
	}
	if apiKey == "" {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeConfiguration, "gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  e.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: e.BaseURL},
	})
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleEmbedding, core.ErrorCodeConfiguration, "create gemini client", err)
	}
	e.client = client
	return e, nil
}

func (e *GeminiEmbedder) Name() string { return "gemini" }

func (e *GeminiEmbedder) Dimension() int { return e.OutputDimensionality }

// Embed 实现 core.Embedder。网络错误、超时、429、5xx 归为 UNAVAILABLE；其余 4xx 归为 CONFIGURATION。
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	cfg := &genai.EmbedContentConfig{TaskType: e.TaskType}
	if e.OutputDimensionality > 0 {
		dim := int32(e.OutputDimensionality)
		cfg.OutputDimensionality = &dim
	}

	res, err := e.client.Models.EmbedContent(ctx, e.Model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	if len(res.Embeddings) == 0 || res.Embeddings[0] == nil || len(res.Embeddings[0].Values) == 0 {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable, "gemini returned empty embedding")
	}

	values := res.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

func classifyGeminiError(err error) error {
	code, ok := apiErrorCode(err)
	if !ok {
		return core.AsUnavailable(core.ModuleEmbedding, "gemini embed request", err)
	}
	class := core.ErrorCodeConfiguration
	if code == http.StatusTooManyRequests || code >= 500 {
		class = core.ErrorCodeUnavailable
	}
	return core.WrapDomainError(core.ModuleEmbedding, class, fmt.Sprintf("gemini embed status %d", code), err)
}

// apiErrorCode 取出 SDK 返回的 HTTP 状态码，APIError 可能以值或指针形式返回
func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

var _ core.Embedder = (*GeminiEmbedder)(nil)
