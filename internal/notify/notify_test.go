package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund/internal/logger"
	"crowdfund/internal/model"
)

type recordingSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if r.err != nil {
		return tgbotapi.Message{}, r.err
	}
	r.sent = append(r.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(r.sent)}, nil
}

func TestTelegramWithdrawMessages(t *testing.T) {
	sender := &recordingSender{}
	n := NewTelegramWithSender(sender, -100, logger.Discard())
	w := model.Withdraw{ID: 4, UserID: uuid.New(), Amount: 12345, BankAccount: "HR1210010051863000160"}

	require.NoError(t, n.WithdrawRequested(context.Background(), w))
	require.NoError(t, n.WithdrawCompleted(context.Background(), w))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(-100), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "New withdraw request")
	assert.Contains(t, sender.sent[0].Text, "123.45 EUR")
	assert.Contains(t, sender.sent[1].Text, "Withdraw completed")
}

func TestTelegramSendFailure(t *testing.T) {
	n := NewTelegramWithSender(&recordingSender{err: errors.New("blocked")}, 1, logger.Discard())

	err := n.DepositMinted(context.Background(), model.Deposit{ID: 1, Amount: 100})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestLogNotifierNeverFails(t *testing.T) {
	n := NewLog(logger.Discard())
	assert.NoError(t, n.WithdrawDeleted(context.Background(), model.Withdraw{ID: 1}))
	assert.NoError(t, n.DepositMinted(context.Background(), model.Deposit{ID: 1}))
}
