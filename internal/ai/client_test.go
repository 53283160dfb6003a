package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func completionBody(content string) string {
	return fmt.Sprintf(`{
		"id": "gen-123",
		"model": "openrouter/auto",
		"created": 1700000000,
		"object": "chat.completion",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`, content)
}

func testClient(t *testing.T, baseURL string) (*Client, *[]time.Duration) {
	t.Helper()
	c := NewClient(baseURL, "test-key", "openrouter/auto", "", "", 3, 5*time.Second)
	delays := &[]time.Duration{}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return c, delays
}

func TestSendMessage_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		fmt.Fprint(w, completionBody("hello"))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	res, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, SendOptions{})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Message != "hello" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if res.Usage.TotalTokens != 15 {
		t.Fatalf("unexpected usage: %+v", res.Usage)
	}
	if res.Raw == nil || res.Raw.ID != "gen-123" {
		t.Fatalf("raw response not passed through: %+v", res.Raw)
	}
	if !c.Connected() {
		t.Fatalf("expected connected flag set after success")
	}
}

func TestSendMessage_RetriesUntilSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, completionBody("ok"))
	}))
	defer srv.Close()

	c, delays := testClient(t, srv.URL)
	res, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, SendOptions{})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Message != "ok" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
	// 2^1 and 2^2 seconds between the three attempts
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d backoff delays, got %d", len(want), len(*delays))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Fatalf("delay %d: expected %s, got %s", i, d, (*delays)[i])
		}
	}
}

func TestSendMessage_ExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	_, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, SendOptions{MaxRetries: 3})
	if err == nil {
		t.Fatalf("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", n)
	}
	ge, ok := AsError(err)
	if !ok {
		t.Fatalf("expected gateway error, got %T", err)
	}
	if ge.Kind != KindRateLimitError {
		t.Fatalf("expected RATE_LIMIT_ERROR, got %s", ge.Kind)
	}
	if ge.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", ge.Status)
	}
}

func TestSendMessage_ClassifiesStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusUnauthorized, KindInvalidAPIKey},
		{http.StatusPaymentRequired, KindInsufficientCredits},
		{http.StatusNotFound, KindModelNotFound},
		{http.StatusTooManyRequests, KindRateLimitError},
		{http.StatusBadGateway, KindAPIError},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			fmt.Fprint(w, `{"error":{"message":"upstream"}}`)
		}))

		c, _ := testClient(t, srv.URL)
		_, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, SendOptions{MaxRetries: 1})
		srv.Close()

		ge, ok := AsError(err)
		if !ok {
			t.Fatalf("status %d: expected gateway error, got %v", tc.status, err)
		}
		if ge.Kind != tc.kind {
			t.Fatalf("status %d: expected %s, got %s", tc.status, tc.kind, ge.Kind)
		}
		if ge.Status != tc.status {
			t.Fatalf("status %d: status not preserved, got %d", tc.status, ge.Status)
		}
		if ge.Details == "" {
			t.Fatalf("status %d: expected raw body in details", tc.status)
		}
	}
}

func TestSendMessage_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c, _ := testClient(t, srv.URL)
	_, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, SendOptions{MaxRetries: 1})
	ge, ok := AsError(err)
	if !ok || ge.Kind != KindNetworkError {
		t.Fatalf("expected NETWORK_ERROR, got %v", err)
	}
	if c.Connected() {
		t.Fatalf("expected connected flag cleared")
	}
}

func TestSendMessage_ErrorObjectPrecedence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with an embedded error object and no valid shape
		fmt.Fprint(w, `{"error":{"message":"model is overloaded"}}`)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	_, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, SendOptions{MaxRetries: 1})
	ge, ok := AsError(err)
	if !ok || ge.Kind != KindAPIError {
		t.Fatalf("expected API_ERROR from error object, got %v", err)
	}
	if ge.Message != "model is overloaded" {
		t.Fatalf("unexpected message: %q", ge.Message)
	}
}

func TestSendMessage_MissingContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionBody(""))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	_, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, SendOptions{MaxRetries: 1})
	ge, ok := AsError(err)
	if !ok || ge.Kind != KindValidationError {
		t.Fatalf("expected VALIDATION_ERROR for empty content, got %v", err)
	}
}

func TestSendMessage_MalformedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x"}`)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	_, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, SendOptions{MaxRetries: 1})
	ge, ok := AsError(err)
	if !ok || ge.Kind != KindValidationError {
		t.Fatalf("expected VALIDATION_ERROR for incomplete shape, got %v", err)
	}
}

func TestSendMessage_RejectsInvalidMessages(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	cases := [][]Message{
		nil,
		{{Role: "robot", Content: "hi"}},
		{{Role: RoleUser, Content: ""}},
	}
	for i, msgs := range cases {
		_, err := c.SendMessage(context.Background(), msgs, SendOptions{})
		ge, ok := AsError(err)
		if !ok || ge.Kind != KindValidationError {
			t.Fatalf("case %d: expected VALIDATION_ERROR, got %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("expected no HTTP calls for invalid input, got %d", n)
	}
}

func TestSendMessage_ExtractsWrappedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionBody(`Here is a JSON array: [{"front":"Q","back":"A"}]`))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	rf := &ResponseFormat{Type: "json_schema", JSONSchema: JSONSchema{Name: "flashcards"}}
	res, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, SendOptions{ResponseFormat: rf})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Message != `[{"front":"Q","back":"A"}]` {
		t.Fatalf("expected embedded JSON, got %q", res.Message)
	}
}

func TestCheckHealth(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL)
	if !c.CheckHealth(context.Background()) || !c.Connected() {
		t.Fatalf("expected healthy")
	}

	healthy = false
	if c.CheckHealth(context.Background()) || c.Connected() {
		t.Fatalf("expected unhealthy")
	}
	if c.LastError() == nil {
		t.Fatalf("expected recorded error")
	}
}

func TestSendMessage_MissingAPIKey(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "", "openrouter/auto", "", "", 3, time.Second)
	_, err := c.SendMessage(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, SendOptions{})
	ge, ok := AsError(err)
	if !ok || ge.Kind != KindAPIError {
		t.Fatalf("expected API_ERROR for missing key, got %v", err)
	}
}
