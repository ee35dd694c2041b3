package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/answer24/supportchat/internal/config"
	chat "github.com/answer24/supportchat/internal/model/chat"
)

const supportSystemPrompt = "You are the answer24 support assistant for a yacht marketplace and " +
	"cashback webshop. Answer briefly and helpfully. When the user writes Dutch, answer in Dutch."

// Responder produces the assistant reply for a chat-storage request.
type Responder interface {
	Reply(ctx context.Context, history []chat.Message, message string) (string, error)
}

// ArkResponder generates replies through an Ark chat model, wired the same
// way as the production path: prompt template -> chat model chain.
type ArkResponder struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkResponder compiles the reply chain from the AI configuration.
func NewArkResponder(ctx context.Context, cfg config.AIConfig) (*ArkResponder, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile reply chain: %w", err)
	}

	return &ArkResponder{chain: runnable}, nil
}

// Reply runs the chain over the trailing history window.
func (r *ArkResponder) Reply(ctx context.Context, history []chat.Message, message string) (string, error) {
	response, err := r.chain.Invoke(ctx, map[string]any{
		"system":  supportSystemPrompt,
		"history": buildHistoryMessages(history),
		"query":   message,
	})
	if err != nil {
		return "", fmt.Errorf("run reply chain: %w", err)
	}
	return response.Content, nil
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	const historyLimit = 10

	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant, chat.RoleAgent:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}

// CannedResponder is the fallback when no model is configured: it reflects
// the question back with a fixed prefix so the round trip stays testable.
type CannedResponder struct{}

func (CannedResponder) Reply(_ context.Context, _ []chat.Message, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "How can I help you today?", nil
	}
	return fmt.Sprintf("Thanks for your message. A teammate will look into: %q", message), nil
}
