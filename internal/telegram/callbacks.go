package telegram

import (
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"librarybot/internal/app"
	"librarybot/pkg/domain"
)

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	if err := b.app.UpsertUser(cb.From.ID, usernameOf(cb.From), firstNameOf(cb.From)); err != nil {
		slog.Error("upsert_user_failed", "error", err, "user_id", cb.From.ID)
	}
	data := cb.Data
	switch {
	case data == "submit_book":
		b.editText(cb.Message.Chat.ID, cb.Message.MessageID, submitHelpText)
		b.answerCallback(cb.ID, "Ready to receive your book submission!")
	case data == "show_help":
		b.editText(cb.Message.Chat.ID, cb.Message.MessageID, helpText)
		b.answerCallback(cb.ID, "")
	case data == "show_stats":
		b.showStatsCallback(cb)
	case data == "show_leaderboard", strings.HasPrefix(data, "leaderboard_"):
		b.showLeaderboardCallback(cb)
	case strings.HasPrefix(data, "approve_"):
		b.approveCallback(cb, strings.TrimPrefix(data, "approve_"))
	case strings.HasPrefix(data, "reject_"):
		b.rejectCallback(cb, strings.TrimPrefix(data, "reject_"))
	default:
		b.answerCallback(cb.ID, "")
	}
}

func (b *Bot) showStatsCallback(cb *tgbotapi.CallbackQuery) {
	stats, err := b.app.Stats()
	if err != nil {
		slog.Error("stats_failed", "error", err)
		b.answerCallback(cb.ID, msgGeneralError)
		return
	}
	b.editText(cb.Message.Chat.ID, cb.Message.MessageID, formatStats(stats))
	b.answerCallback(cb.ID, "")
}

func (b *Bot) showLeaderboardCallback(cb *tgbotapi.CallbackQuery) {
	period := strings.TrimPrefix(cb.Data, "leaderboard_")
	var (
		entries []app.Entry
		err     error
		name    string
		days    int
	)
	switch period {
	case "monthly":
		entries, err = b.app.MonthlyLeaderboard()
		name, days = "Monthly", 30
	case "alltime":
		entries, err = b.app.AllTimeLeaderboard()
		name, days = "All Time", 0
	default:
		// weekly, refresh, and the menu shortcut all show the weekly board
		entries, err = b.app.WeeklyLeaderboard()
		name, days = "Weekly", 7
	}
	if err != nil {
		slog.Error("leaderboard_failed", "error", err)
		b.answerCallback(cb.ID, msgGeneralError)
		return
	}
	markup := leaderboardKeyboard()
	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID, formatLeaderboard(entries, name, days), markup)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		slog.Error("edit_failed", "error", err, "chat_id", cb.Message.Chat.ID)
	}
	b.answerCallback(cb.ID, "📊 "+name+" leaderboard updated!")
}

func (b *Bot) approveCallback(cb *tgbotapi.CallbackQuery, id string) {
	if !b.app.IsAdmin(cb.From.ID) {
		b.answerCallback(cb.ID, "❌ Only administrators can approve books.")
		return
	}
	book, err := b.app.Approve(id, "@"+usernameOf(cb.From))
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			b.answerCallback(cb.ID, "❌ Submission not found. It may already be processed.")
			return
		}
		slog.Error("approve_failed", "error", err, "submission_id", id)
		b.answerCallback(cb.ID, msgGeneralError)
		return
	}
	b.markReviewed(cb, "✅ *APPROVED* by @"+usernameOf(cb.From))
	b.publishToChannel(book)
	b.answerCallback(cb.ID, "✅ Book approved and added to library!")
}

func (b *Bot) rejectCallback(cb *tgbotapi.CallbackQuery, id string) {
	if !b.app.IsAdmin(cb.From.ID) {
		b.answerCallback(cb.ID, "❌ Only administrators can reject books.")
		return
	}
	if err := b.app.Reject(id); err != nil {
		switch {
		case errors.Is(err, app.ErrNotFound):
			b.answerCallback(cb.ID, "❌ Submission not found. It may already be processed.")
		case errors.Is(err, app.ErrAlreadyApproved):
			b.answerCallback(cb.ID, "❌ This submission is already approved and cannot be rejected.")
		default:
			slog.Error("reject_failed", "error", err, "submission_id", id)
			b.answerCallback(cb.ID, msgGeneralError)
		}
		return
	}
	b.markReviewed(cb, "❌ *REJECTED* by @"+usernameOf(cb.From))
	b.answerCallback(cb.ID, "❌ Book rejected.")
}

// markReviewed strips the review keyboard and appends the verdict to the
// card. Document cards cannot be text-edited, so those get a reply
// message instead.
func (b *Bot) markReviewed(cb *tgbotapi.CallbackQuery, verdict string) {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	clear := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)
	if _, err := b.api.Send(clear); err != nil {
		slog.Debug("clear_markup_failed", "error", err)
	}
	if cb.Message.Text != "" {
		b.editText(chatID, messageID, cb.Message.Text+"\n\n"+verdict)
		return
	}
	out := tgbotapi.NewMessage(chatID, verdict)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.ReplyToMessageID = messageID
	if _, err := b.api.Send(out); err != nil {
		slog.Error("send_failed", "error", err, "chat_id", chatID)
	}
}

// publishToChannel forwards an approved book to the configured channel.
// Failures are logged, never surfaced to the approving admin.
func (b *Bot) publishToChannel(book domain.Submission) {
	chatID, username, ok := b.channelTarget()
	if !ok {
		return
	}
	text := formatChannelPost(book)
	var msg tgbotapi.Chattable
	if book.FileID != "" {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(book.FileID))
		doc.ChannelUsername = username
		doc.Caption = text
		doc.ParseMode = tgbotapi.ModeMarkdown
		msg = doc
	} else {
		out := tgbotapi.NewMessage(chatID, text)
		out.ChannelUsername = username
		out.ParseMode = tgbotapi.ModeMarkdown
		msg = out
	}
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("channel_publish_failed", "error", err, "submission_id", book.ID)
		return
	}
	slog.Info("channel_published", "submission_id", book.ID, "title", book.Title)
}
