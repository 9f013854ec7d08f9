// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package llmfacade

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DefaultProvider creates a provider from environment variables, checking
// in order: OLLAMA_HOST/OLLAMA_BASE_URL/OLLAMA_MODEL, OPENAI_API_KEY,
// ANTHROPIC_API_KEY. Falls back to mock if nothing is configured.
func DefaultProvider() (Provider, error) {
	if os.Getenv("OLLAMA_HOST") != "" || os.Getenv("OLLAMA_BASE_URL") != "" || os.Getenv("OLLAMA_MODEL") != "" {
		return NewProvider(ProviderConfig{Type: "ollama"})
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return NewProvider(ProviderConfig{Type: "openai"})
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return NewProvider(ProviderConfig{Type: "anthropic"})
	}
	return NewProvider(ProviderConfig{Type: "mock"})
}

// ProviderFromEnv creates a provider from a specific environment variable,
// e.g. ProviderFromEnv("RAGCORE_LLM_PROVIDER").
func ProviderFromEnv(envVar string) (Provider, error) {
	providerType := os.Getenv(envVar)
	if providerType == "" {
		return DefaultProvider()
	}
	return NewProvider(ProviderConfig{Type: providerType})
}

// QuickGenerate is a convenience function for simple text generation against
// the environment-resolved default provider.
func QuickGenerate(ctx context.Context, prompt string) (string, error) {
	provider, err := DefaultProvider()
	if err != nil {
		return "", err
	}
	resp, err := provider.Generate(ctx, GenerateRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ContextPrompt assembles the {context, query} prompt spec §4.6 step 8
// hands to the LLM for answer synthesis.
type ContextPrompt struct {
	Query   string
	Context string
}

// SystemPrompt is the standing system instruction for answer synthesis.
const SystemPrompt = `You are a retrieval-augmented assistant. Answer the user's question using only the provided context. If the context does not contain enough information to answer, say so plainly rather than guessing. Cite the relevant source when it helps the reader locate the answer.`

// Build renders the synthesis prompt: the assembled context followed by the
// user's original query.
func (cp ContextPrompt) Build() string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	sb.WriteString(cp.Context)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(cp.Query)
	return sb.String()
}

// BuildChatMessages creates a chat message array carrying the synthesis
// system prompt and the rendered context+query user turn.
func BuildChatMessages(cp ContextPrompt) []Message {
	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: cp.Build()},
	}
}

// Answer invokes provider.Chat with the synthesis prompt and returns the
// generated answer text, applying model/provider overrides from the caller
// (spec §4.6 step 8's "provider/model overrides").
func Answer(ctx context.Context, provider Provider, cp ContextPrompt, model string) (string, error) {
	resp, err := provider.Chat(ctx, ChatRequest{
		Messages: BuildChatMessages(cp),
		Model:    model,
	})
	if err != nil {
		return "", fmt.Errorf("llmfacade: answer synthesis failed: %w", err)
	}
	return resp.Message.Content, nil
}
