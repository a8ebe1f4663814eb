package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSender records sent messages and can fail for one chat id
type mockSender struct {
	mu         sync.Mutex
	sent       []tgbotapi.MessageConfig
	failChatID int64
}

var _ Sender = (*mockSender)(nil)

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable type")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failChatID != 0 && msg.ChatID == m.failChatID {
		return tgbotapi.Message{}, errors.New("chat not found")
	}
	m.sent = append(m.sent, msg)
	return tgbotapi.Message{}, nil
}

func (m *mockSender) sentChatIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.sent))
	for _, msg := range m.sent {
		ids = append(ids, msg.ChatID)
	}
	return ids
}

func TestBroadcast(t *testing.T) {
	sender := &mockSender{}
	n := NewTelegramNotifier(sender, 1000)

	sent := n.Broadcast(context.Background(), []string{"100", "200", "300"}, "hello")

	assert.Equal(t, 3, sent)
	assert.Equal(t, []int64{100, 200, 300}, sender.sentChatIDs())

	require.NotEmpty(t, sender.sent)
	assert.Equal(t, tgbotapi.ModeMarkdown, sender.sent[0].ParseMode)
	assert.True(t, sender.sent[0].DisableWebPagePreview)
	assert.Equal(t, "hello", sender.sent[0].Text)
}

func TestBroadcastFailureDoesNotBlockOthers(t *testing.T) {
	sender := &mockSender{failChatID: 200}
	n := NewTelegramNotifier(sender, 1000)

	sent := n.Broadcast(context.Background(), []string{"100", "200", "300"}, "hello")

	assert.Equal(t, 2, sent)
	assert.Equal(t, []int64{100, 300}, sender.sentChatIDs())
}

func TestBroadcastSkipsMalformedChatID(t *testing.T) {
	sender := &mockSender{}
	n := NewTelegramNotifier(sender, 1000)

	sent := n.Broadcast(context.Background(), []string{"not-a-number", "100"}, "hello")

	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{100}, sender.sentChatIDs())
}

func TestBroadcastCanceledContext(t *testing.T) {
	sender := &mockSender{}
	n := NewTelegramNotifier(sender, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sent := n.Broadcast(ctx, []string{"100", "200"}, "hello")

	assert.Equal(t, 0, sent)
	assert.Empty(t, sender.sentChatIDs())
}
