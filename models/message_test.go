package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationID(t *testing.T) {
	// Simetrik olmalı — kim başlatırsa başlatsın aynı kimlik üretilir
	assert.Equal(t, ConversationID("alice", "bob"), ConversationID("bob", "alice"))

	// Deterministik: küçük olan ID önce gelir
	assert.Equal(t, "alice:bob", ConversationID("bob", "alice"))
	assert.Equal(t, "alice:bob", ConversationID("alice", "bob"))

	// Aynı çift her zaman aynı sonucu verir
	first := ConversationID("u1", "u2")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ConversationID("u2", "u1"))
	}
}

func TestSendMessageRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     SendMessageRequest
		wantErr bool
	}{
		{
			name:    "valid message",
			req:     SendMessageRequest{ReceiverID: "bob", Content: "hello"},
			wantErr: false,
		},
		{
			name:    "missing receiver",
			req:     SendMessageRequest{ReceiverID: "", Content: "hello"},
			wantErr: true,
		},
		{
			name:    "empty content",
			req:     SendMessageRequest{ReceiverID: "bob", Content: ""},
			wantErr: true,
		},
		{
			name:    "whitespace only content",
			req:     SendMessageRequest{ReceiverID: "bob", Content: "   \t\n  "},
			wantErr: true,
		},
		{
			name:    "content at limit",
			req:     SendMessageRequest{ReceiverID: "bob", Content: strings.Repeat("a", 2000)},
			wantErr: false,
		},
		{
			name:    "content over limit",
			req:     SendMessageRequest{ReceiverID: "bob", Content: strings.Repeat("a", 2001)},
			wantErr: true,
		},
		{
			// Limit byte değil rune sayar — 2000 adet çok byte'lı karakter geçerli
			name:    "multibyte content at limit",
			req:     SendMessageRequest{ReceiverID: "bob", Content: strings.Repeat("ü", 2000)},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSendMessageRequestValidateTrimsContent(t *testing.T) {
	req := SendMessageRequest{ReceiverID: "bob", Content: "  hello world  "}
	require.NoError(t, req.Validate())

	// Validate content'i yerinde kırpar — persist edilen değer kırpılmış halidir
	assert.Equal(t, "hello world", req.Content)
}

func TestUserDisplayNameOrUsername(t *testing.T) {
	name := "Alice K."
	empty := ""

	withName := &User{Username: "alice", DisplayName: &name}
	assert.Equal(t, "Alice K.", withName.DisplayNameOrUsername())

	withoutName := &User{Username: "alice"}
	assert.Equal(t, "alice", withoutName.DisplayNameOrUsername())

	withEmptyName := &User{Username: "alice", DisplayName: &empty}
	assert.Equal(t, "alice", withEmptyName.DisplayNameOrUsername())
}
