package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLineNotifier_Push(t *testing.T) {
	var got linePushRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bot/message/push", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	n := NewLineNotifier(srv.URL, "secret-token")
	require.NoError(t, n.Push(context.Background(), "U123", "[Grid] 00632R @ 90.00"))

	assert.Equal(t, "Bearer secret-token", auth)
	assert.Equal(t, "U123", got.To)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "text", got.Messages[0].Type)
	assert.Equal(t, "[Grid] 00632R @ 90.00", got.Messages[0].Text)
}

func TestLineNotifier_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Authentication failed"}`))
	}))
	defer srv.Close()

	err := NewLineNotifier(srv.URL, "bad").Push(context.Background(), "U123", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	assert.Error(t, NewLineNotifier(srv.URL, "").Push(context.Background(), "U123", "hi"))
	assert.Error(t, NewLineNotifier(srv.URL, "tok").Push(context.Background(), "", "hi"))
}

func TestLineNotifier_TruncatesLongText(t *testing.T) {
	var got linePushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	long := strings.Repeat("網", lineMaxText+10)
	require.NoError(t, NewLineNotifier(srv.URL, "tok").Push(context.Background(), "U1", long))
	assert.Equal(t, lineMaxText, len([]rune(got.Messages[0].Text)))
}

func TestTelegramNotifier_Push(t *testing.T) {
	var sentText, sentChat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"grid","username":"gridwatch_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			sentChat = r.PostForm.Get("chat_id")
			sentText = r.PostForm.Get("text")
			w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier("123:abc", srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	require.NoError(t, n.Push(context.Background(), "42", "SELL_ALERT"))
	assert.Equal(t, "42", sentChat)
	assert.Equal(t, "SELL_ALERT", sentText)

	assert.Error(t, n.Push(context.Background(), "not-a-chat", "x"))
}

func TestTelegramNotifier_PushHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"grid","username":"gridwatch_bot"}}`))
			return
		}
		<-release
		w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`))
	}))
	defer srv.Close()
	defer close(release)

	n, err := NewTelegramNotifier("123:abc", srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = n.Push(ctx, "42", "BUY_ALERT")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier(zap.NewNop()).Push(context.Background(), "anyone", "text"))
}
