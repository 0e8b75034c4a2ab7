package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/biolab/datalab/internal/config"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds one upstream call
	DefaultTimeout = 60 * time.Second

	systemPrompt = "Eres el asistente de DataLab, el sistema de laboratorio de BioLab. " +
		"Responde de forma breve y en el idioma del usuario."
)

// ErrNoReply is returned when the model answers with no choices
var ErrNoReply = errors.New("no choices in response")

// Message is one turn of a chat conversation
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

// Service talks to the OpenAI API for chat and audio transcription
type Service struct {
	client             openai.Client
	model              string
	transcriptionModel string
	logger             *zap.Logger
}

// NewService creates an assistant. httpClient may be nil.
func NewService(cfg config.OpenAIConfig, httpClient *http.Client, logger *zap.Logger) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(1),
	)

	return &Service{
		client:             client,
		model:              cfg.Model,
		transcriptionModel: cfg.TranscriptionModel,
		logger:             logger,
	}
}

// Chat sends the conversation and returns the assistant's reply
func (s *Service) Chat(ctx context.Context, messages []Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	params = append(params, openai.SystemMessage(systemPrompt))
	for _, m := range messages {
		switch m.Role {
		case "system":
			params = append(params, openai.SystemMessage(m.Content))
		case "assistant":
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}

	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(s.model),
		Messages: params,
	})
	if err != nil {
		s.logger.Warn("chat completion failed",
			zap.String("model", s.model),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoReply
	}

	s.logger.Debug("chat completion",
		zap.String("model", s.model),
		zap.Int("messages", len(messages)),
		zap.Duration("latency", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

// Transcribe converts recorded audio to text
func (s *Service) Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (string, error) {
	resp, err := s.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(audio, filename, contentType),
		Model: openai.AudioModel(s.transcriptionModel),
	})
	if err != nil {
		s.logger.Warn("transcription failed", zap.String("model", s.transcriptionModel), zap.Error(err))
		return "", fmt.Errorf("failed to transcribe: %w", err)
	}
	return resp.Text, nil
}
