package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gptui/internal/agent"
	"gptui/internal/logger"
)

func silenceLLMLogger(t *testing.T) {
	t.Helper()
	logger.SetGlobalLLMLogger(logger.NoopLLMLogger{})
	t.Cleanup(func() {
		logger.SetGlobalLLMLogger(nil)
	})
}

func writeSSE(w http.ResponseWriter, frames ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)
	for _, frame := range frames {
		_, _ = w.Write([]byte("data: " + frame + "\n\n"))
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func drain(t *testing.T, stream agent.Stream) []agent.Fragment {
	t.Helper()
	defer stream.Close()
	var out []agent.Fragment
	for stream.Next() {
		out = append(out, stream.Current())
	}
	return out
}

func contentText(frags []agent.Fragment) string {
	var sb strings.Builder
	for _, f := range frags {
		if c, ok := f.(agent.Content); ok {
			sb.WriteString(c.Delta)
		}
	}
	return sb.String()
}

func newTestClient(t *testing.T, baseURL, wire string) *Client {
	t.Helper()
	client, err := New(Options{
		APIKey:  "test",
		BaseURL: baseURL,
		Model:   "gpt-test",
		WireAPI: wire,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return client
}

func TestNew_RequiresKeyAndModel(t *testing.T) {
	if _, err := New(Options{Model: "m"}); err == nil {
		t.Fatalf("New() without api key expected error")
	}
	if _, err := New(Options{APIKey: "k"}); err == nil {
		t.Fatalf("New() without model expected error")
	}
}

func TestStream_ChatCompletionsSSE(t *testing.T) {
	silenceLLMLogger(t)

	var chatCalls atomic.Int64
	var sawStream bool
	var sawMessages int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		chatCalls.Add(1)
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Stream   bool              `json:"stream"`
			Messages []json.RawMessage `json:"messages"`
		}
		_ = json.Unmarshal(body, &payload)
		sawStream = payload.Stream
		sawMessages = len(payload.Messages)

		writeSSE(w,
			`{"id":"c1","object":"chat.completion.chunk","created":0,"model":"gpt-test","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"},"finish_reason":null}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":0,"model":"gpt-test","choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":"stop"}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":0,"model":"gpt-test","choices":[],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`,
			`[DONE]`,
		)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL+"/v1", "")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	stream, err := client.Stream(ctx, []agent.Message{
		agent.UserMessage("hi"),
		agent.AssistantMessage("hello"),
		agent.UserMessage("again"),
	})
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	frags := drain(t, stream)
	if err := stream.Err(); err != nil {
		t.Fatalf("stream.Err() = %v", err)
	}

	if got := contentText(frags); got != "Hello" {
		t.Fatalf("content = %q, want %q", got, "Hello")
	}
	var sawFinish, sawUsage, sawMeta bool
	for _, f := range frags {
		switch v := f.(type) {
		case agent.Finish:
			sawFinish = v.Reason == "stop"
		case agent.Usage:
			sawUsage = v.PromptTokens == 3 && v.CompletionTokens == 2
		case agent.Metadata:
			sawMeta = v.ID == "c1"
		}
	}
	if !sawFinish || !sawUsage || !sawMeta {
		t.Fatalf("missing non-content fragments: finish=%v usage=%v meta=%v (%#v)", sawFinish, sawUsage, sawMeta, frags)
	}
	if chatCalls.Load() != 1 {
		t.Fatalf("chat calls = %d, want 1", chatCalls.Load())
	}
	if !sawStream || sawMessages != 3 {
		t.Fatalf("request stream=%v messages=%d, want stream=true messages=3", sawStream, sawMessages)
	}
}

func TestStream_ChatKeepsChoiceIndex(t *testing.T) {
	silenceLLMLogger(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w,
			`{"id":"c2","object":"chat.completion.chunk","created":0,"model":"gpt-test","choices":[{"index":1,"delta":{"content":"b"},"finish_reason":null},{"index":0,"delta":{"content":"a"},"finish_reason":null}]}`,
			`[DONE]`,
		)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL, "chat")
	stream, err := client.Stream(context.Background(), []agent.Message{agent.UserMessage("hi")})
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	var indexes []int
	for _, f := range drain(t, stream) {
		if c, ok := f.(agent.Content); ok {
			indexes = append(indexes, c.Index)
		}
	}
	if len(indexes) != 2 || indexes[0] != 1 || indexes[1] != 0 {
		t.Fatalf("content indexes = %v, want [1 0]", indexes)
	}
}

func TestStream_HTTPErrorSurfacesThroughErr(t *testing.T) {
	silenceLLMLogger(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad request from proxy"}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL+"/v1", "")
	stream, err := client.Stream(context.Background(), []agent.Message{agent.UserMessage("hi")})
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	if frags := drain(t, stream); len(frags) != 0 {
		t.Fatalf("fragments = %#v, want none", frags)
	}
	err = stream.Err()
	if err == nil {
		t.Fatalf("stream.Err() expected error")
	}
	if !strings.Contains(err.Error(), "http_400") {
		t.Fatalf("stream.Err() = %q, want http_400 marker", err.Error())
	}
	if !strings.Contains(err.Error(), `{"message":"bad request from proxy"}`) {
		t.Fatalf("stream.Err() = %q, want raw response body", err.Error())
	}
}

func TestStream_ResponsesSSE(t *testing.T) {
	silenceLLMLogger(t)

	var responsesCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/responses":
			responsesCalls.Add(1)
			writeSSE(w,
				`{"type":"response.output_text.delta","delta":"o","output_index":0}`,
				`{"type":"response.output_text.delta","delta":"k","output_index":0}`,
				`{"type":"response.completed","response":{"usage":{"input_tokens":4,"output_tokens":1}}}`,
			)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL, "responses")
	stream, err := client.Stream(context.Background(), []agent.Message{
		{Role: agent.RoleSystem, Content: "be brief"},
		agent.UserMessage("hi"),
	})
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	frags := drain(t, stream)
	if err := stream.Err(); err != nil {
		t.Fatalf("stream.Err() = %v", err)
	}
	if got := contentText(frags); got != "ok" {
		t.Fatalf("content = %q, want %q", got, "ok")
	}
	if responsesCalls.Load() != 1 {
		t.Fatalf("responses calls = %d, want 1", responsesCalls.Load())
	}
}

func TestStream_ResponsesErrorEventBecomesFailure(t *testing.T) {
	silenceLLMLogger(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, `{"type":"error","message":"quota exceeded","code":"rate_limit","param":null,"sequence_number":1}`)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL, "responses")
	stream, err := client.Stream(context.Background(), []agent.Message{agent.UserMessage("hi")})
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	frags := drain(t, stream)
	if len(frags) != 1 {
		t.Fatalf("fragments = %#v, want exactly one failure", frags)
	}
	failure, ok := frags[0].(agent.Failure)
	if !ok || failure.Err == nil || failure.Err.Error() != "quota exceeded" {
		t.Fatalf("fragment = %#v, want Failure(quota exceeded)", frags[0])
	}
}

func TestStream_RejectsEmptyConversation(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", "")
	if _, err := client.Stream(context.Background(), nil); err == nil {
		t.Fatalf("Stream() with no messages expected error")
	}
}

func TestNormalizeBaseURL_EnsuresV1AndStripsEndpointSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "https://api.openai.com", want: "https://api.openai.com/v1"},
		{in: "https://api.openai.com/", want: "https://api.openai.com/v1"},
		{in: "https://example.com/openai", want: "https://example.com/openai/v1"},
		{in: "https://example.com/openai/v1", want: "https://example.com/openai/v1"},
		{in: "https://example.com/openai/v1/", want: "https://example.com/openai/v1"},
		{in: "https://example.com/openai/v1/chat/completions", want: "https://example.com/openai/v1"},
		{in: "https://example.com/openai/v1/responses/", want: "https://example.com/openai/v1"},
		{in: "https://example.com/v1/v1", want: "https://example.com/v1"},
		{in: "https://example.com/openai?foo=bar", want: "https://example.com/openai/v1?foo=bar"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := normalizeBaseURL(tc.in); got != tc.want {
				t.Fatalf("normalizeBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
