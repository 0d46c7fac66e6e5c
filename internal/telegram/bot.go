package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"librarybot/internal/app"
)

// Config holds the transport-level settings.
type Config struct {
	Token             string
	ChannelID         string
	MaxUploadBytes    int64
	AllowedExtensions []string
}

// Bot binds the workflow engine to the Telegram API: command dispatch,
// submission parsing, review keyboards and channel forwarding.
type Bot struct {
	api *tgbotapi.BotAPI
	app *app.App
	cfg Config
}

// New connects to the Telegram API.
func New(cfg Config, engine *app.App) (*Bot, error) {
	if engine == nil {
		return nil, fmt.Errorf("app is required")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init telegram api: %w", err)
	}
	return &Bot{api: api, app: engine, cfg: cfg}, nil
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 10
	updates := b.api.GetUpdatesChan(u)
	slog.Info("bot_started", "username", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(update.Message)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	// Identity refresh happens on every inbound interaction.
	if err := b.app.UpsertUser(msg.From.ID, usernameOf(msg.From), firstNameOf(msg.From)); err != nil {
		slog.Error("upsert_user_failed", "error", err, "user_id", msg.From.ID)
	}
	switch {
	case msg.IsCommand():
		b.handleCommand(msg)
	case msg.Document != nil:
		b.handleDocument(msg)
	case msg.Text != "":
		b.handleText(msg)
	}
}

// reply sends a markdown message in reply to msg.
func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		slog.Error("send_failed", "error", err, "chat_id", msg.Chat.ID)
	}
}

func (b *Bot) replyWithKeyboard(msg *tgbotapi.Message, text string, markup tgbotapi.InlineKeyboardMarkup) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.ReplyToMessageID = msg.MessageID
	out.ReplyMarkup = markup
	if _, err := b.api.Send(out); err != nil {
		slog.Error("send_failed", "error", err, "chat_id", msg.Chat.ID)
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		slog.Error("answer_callback_failed", "error", err)
	}
}

func (b *Bot) editText(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		slog.Error("edit_failed", "error", err, "chat_id", chatID)
	}
}

// channelTarget resolves the configured publish destination: either an
// @username or a numeric chat ID. Zero/empty means "do not republish".
func (b *Bot) channelTarget() (int64, string, bool) {
	channel := strings.TrimSpace(b.cfg.ChannelID)
	if channel == "" {
		return 0, "", false
	}
	if strings.HasPrefix(channel, "@") {
		return 0, channel, true
	}
	id, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		slog.Error("invalid_channel_id", "channel", channel)
		return 0, "", false
	}
	return id, "", true
}

func usernameOf(u *tgbotapi.User) string {
	if u.UserName == "" {
		return "Unknown"
	}
	return u.UserName
}

func firstNameOf(u *tgbotapi.User) string {
	if u.FirstName == "" {
		return "User"
	}
	return u.FirstName
}
