// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides OpenRouter integration for remote LLM inference.
//
// OpenRouter provides access to multiple LLM providers through a single API,
// including Claude, GPT-4, and other models. This package implements secure
// communication with OpenRouter's API including retry logic and client-side
// rate limiting.
//
// # Key Types
//
//   - Client: HTTP client for OpenRouter API with retry and rate limiting
//   - ChatMessage: Chat message compatible with OpenRouter API format
//   - ChatResponse: Parsed completion with content and token usage
//   - ModelInfo: Catalog entry from the models endpoint
//
// # Usage
//
// Create a client and send a chat request:
//
//	client := cloud.NewClient(apiKey).WithRateLimit(20)
//	resp, err := client.Chat(ctx, []cloud.ChatMessage{
//	    cloud.NewUserMessage("Hello"),
//	})
//
// # Security
//
// API keys are never logged; request logging records only status codes
// and durations. All requests use TLS 1.2+ with a bounded response size.
package cloud
