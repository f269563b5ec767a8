package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"go.uber.org/zap"
)

// OpenAIClient usa la Responses API con salida JSON estricta.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIClient(apiKey, baseURL, model string, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{
		client: &client,
		model:  model,
		logger: logger,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.respond(ctx, prompt, nil)
}

func (c *OpenAIClient) GenerateStructured(ctx context.Context, prompt string, schema Schema) (string, error) {
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        schema.Name,
			Schema:      schema.Body,
			Strict:      openai.Bool(true),
			Description: openai.String(schema.Description),
			Type:        "json_schema",
		},
	}
	return c.respond(ctx, prompt, &format)
}

func (c *OpenAIClient) respond(ctx context.Context, prompt string, format *responses.ResponseFormatTextConfigUnionParam) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client is nil")
	}
	if c.model == "" {
		return "", errors.New("openai model is empty")
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(400),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if format != nil {
		params.Text = responses.ResponseTextConfigParam{Format: *format}
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		c.logger.Warn("openai responses call failed", zap.Error(err))
		return "", err
	}
	out := resp.OutputText()
	if strings.TrimSpace(out) == "" {
		return "", errors.New("llm empty response")
	}
	return out, nil
}
