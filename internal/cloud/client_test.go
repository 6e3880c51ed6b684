// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func chatJSON(content, model string) string {
	resp := map[string]any{
		"id":    "gen-1",
		"model": model,
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestClient_Chat(t *testing.T) {
	var gotAuth, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		gotModel = req.Model

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatJSON("Here is some code.", req.Model)))
	}))
	defer srv.Close()

	client := NewClient("sk-or-test").WithBaseURL(srv.URL)
	client.SetModel("sonnet")

	resp, err := client.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if resp.GetContent() != "Here is some code." {
		t.Errorf("content = %q", resp.GetContent())
	}
	if resp.Usage.TotalTokens != 30 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if gotAuth != "Bearer sk-or-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotModel != "anthropic/claude-3.5-sonnet" {
		t.Errorf("alias not resolved, model = %q", gotModel)
	}
}

func TestClient_Chat_NotConfigured(t *testing.T) {
	client := NewClient("")

	_, err := client.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Chat() error = %v, want ErrNotConfigured", err)
	}
}

func TestClient_Chat_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"invalid_key","message":"bad key"}}`))
	}))
	defer srv.Close()

	client := NewClient("sk-or-bad").WithBaseURL(srv.URL)

	_, err := client.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Chat() error = %v, want ErrAuthFailed", err)
	}
}

func TestClient_Chat_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		w.Write([]byte(chatJSON("recovered", "openrouter/auto")))
	}))
	defer srv.Close()

	client := NewClient("sk-or-test").WithBaseURL(srv.URL).WithMaxRetries(3)

	resp, err := client.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.GetContent() != "recovered" {
		t.Errorf("content = %q", resp.GetContent())
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d calls, want 3", calls.Load())
	}
}

func TestClient_Chat_DoesNotRetryAuthFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	client := NewClient("sk-or-test").WithBaseURL(srv.URL).WithMaxRetries(3)

	if _, err := client.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1", calls.Load())
	}
}

func TestClient_Chat_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"gen-1","model":"m","choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient("sk-or-test").WithBaseURL(srv.URL)

	_, err := client.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Chat() error = %v, want ErrEmptyResponse", err)
	}
}

func TestClient_Chat_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	defer srv.Close()

	client := NewClient("sk-or-test").WithBaseURL(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, []ChatMessage{NewUserMessage("hi")})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestClient_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"anthropic/claude-3.5-sonnet","name":"Claude 3.5 Sonnet","context_length":200000,"pricing":{"prompt":"0.000003","completion":"0.000015"}},
			{"id":"openai/gpt-4o","name":"GPT-4o","context_length":128000}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("").WithBaseURL(srv.URL)

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].ContextSize != 200000 || models[0].Pricing.Prompt != "0.000003" {
		t.Errorf("models[0] = %+v", models[0])
	}
}

func TestResolveModel(t *testing.T) {
	if got := ResolveModel("sonnet"); got != "anthropic/claude-3.5-sonnet" {
		t.Errorf("ResolveModel(sonnet) = %q", got)
	}
	if got := ResolveModel("mistralai/mixtral-8x7b"); got != "mistralai/mixtral-8x7b" {
		t.Errorf("unknown model should pass through, got %q", got)
	}
}

func TestClient_KeyFingerprint(t *testing.T) {
	client := NewClient("sk-or-secret")

	fp := client.KeyFingerprint()
	if fp == "none" || len(fp) != 8 {
		t.Errorf("fingerprint = %q", fp)
	}
	if fp == NewClient("sk-or-other").KeyFingerprint() {
		t.Error("different keys produced identical fingerprints")
	}
}
