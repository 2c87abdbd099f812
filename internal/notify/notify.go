// Package notify delivers operator notifications about withdraw and deposit
// activity. Delivery is best effort; callers log failures and move on.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"crowdfund/internal/logger"
	"crowdfund/internal/model"
)

type Notifier interface {
	WithdrawRequested(ctx context.Context, w model.Withdraw) error
	WithdrawCompleted(ctx context.Context, w model.Withdraw) error
	WithdrawDeleted(ctx context.Context, w model.Withdraw) error
	DepositMinted(ctx context.Context, d model.Deposit) error
}

// Sender is the subset of *tgbotapi.BotAPI used here.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	sender Sender
	chatID int64
	log    *logger.Logger
}

// NewTelegram connects to the bot API with token.
func NewTelegram(token string, chatID int64, log *logger.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewTelegramWithSender(bot, chatID, log), nil
}

func NewTelegramWithSender(sender Sender, chatID int64, log *logger.Logger) *Telegram {
	if log == nil {
		log = logger.NewDefault("notify")
	}
	return &Telegram{sender: sender, chatID: chatID, log: log}
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func (t *Telegram) WithdrawRequested(_ context.Context, w model.Withdraw) error {
	return t.send(withdrawText("New withdraw request", w))
}

func (t *Telegram) WithdrawCompleted(_ context.Context, w model.Withdraw) error {
	return t.send(withdrawText("Withdraw completed", w))
}

func (t *Telegram) WithdrawDeleted(_ context.Context, w model.Withdraw) error {
	return t.send(withdrawText("Withdraw deleted", w))
}

func (t *Telegram) DepositMinted(_ context.Context, d model.Deposit) error {
	return t.send(fmt.Sprintf("Deposit minted\nid: %d\nuser: %s\namount: %s EUR\nreference: %s",
		d.ID, d.UserID, formatAmount(d.Amount), d.Reference))
}

func withdrawText(title string, w model.Withdraw) string {
	return fmt.Sprintf("%s\nid: %d\nuser: %s\namount: %s EUR\naccount: %s",
		title, w.ID, w.UserID, formatAmount(w.Amount), w.BankAccount)
}

func formatAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// Log writes notifications to the log instead of delivering them.
type Log struct {
	log *logger.Logger
}

func NewLog(log *logger.Logger) *Log {
	if log == nil {
		log = logger.NewDefault("notify")
	}
	return &Log{log: log}
}

func (l *Log) WithdrawRequested(_ context.Context, w model.Withdraw) error {
	l.log.WithField("withdraw", w.ID).Info("withdraw requested")
	return nil
}

func (l *Log) WithdrawCompleted(_ context.Context, w model.Withdraw) error {
	l.log.WithField("withdraw", w.ID).Info("withdraw completed")
	return nil
}

func (l *Log) WithdrawDeleted(_ context.Context, w model.Withdraw) error {
	l.log.WithField("withdraw", w.ID).Info("withdraw deleted")
	return nil
}

func (l *Log) DepositMinted(_ context.Context, d model.Deposit) error {
	l.log.WithField("deposit", d.ID).Info("deposit minted")
	return nil
}
