package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"librarybot/internal/app"
	"librarybot/pkg/domain"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.replyWithKeyboard(msg, welcomeText(firstNameOf(msg.From)), mainMenuKeyboard())
	case "help":
		b.reply(msg, helpText)
	case "leaderboard":
		b.sendLeaderboard(msg)
	case "stats":
		b.sendStats(msg)
	case "mystats":
		b.sendUserStats(msg)
	case "search":
		b.sendSearch(msg)
	case "pending":
		b.sendPending(msg)
	case "broadcast":
		b.sendBroadcast(msg)
	default:
		b.reply(msg, msgUnknownCommand)
	}
}

func (b *Bot) sendLeaderboard(msg *tgbotapi.Message) {
	entries, err := b.app.WeeklyLeaderboard()
	if err != nil {
		slog.Error("leaderboard_failed", "error", err)
		b.reply(msg, msgGeneralError)
		return
	}
	b.replyWithKeyboard(msg, formatLeaderboard(entries, "Weekly", 7), leaderboardKeyboard())
}

func (b *Bot) sendStats(msg *tgbotapi.Message) {
	stats, err := b.app.Stats()
	if err != nil {
		slog.Error("stats_failed", "error", err)
		b.reply(msg, msgGeneralError)
		return
	}
	b.reply(msg, formatStats(stats))
}

func (b *Bot) sendUserStats(msg *tgbotapi.Message) {
	stats, err := b.app.UserStats(msg.From.ID)
	if err != nil {
		slog.Error("user_stats_failed", "error", err, "user_id", msg.From.ID)
		b.reply(msg, msgGeneralError)
		return
	}
	b.reply(msg, formatUserStats(stats))
}

func (b *Bot) sendSearch(msg *tgbotapi.Message) {
	query := strings.TrimSpace(msg.CommandArguments())
	if query == "" {
		b.reply(msg, "❌ Usage: /search <title or author>")
		return
	}
	results, err := b.app.SearchBooks(query)
	if err != nil {
		slog.Error("search_failed", "error", err)
		b.reply(msg, msgGeneralError)
		return
	}
	b.reply(msg, formatSearchResults(query, results))
}

func (b *Bot) sendPending(msg *tgbotapi.Message) {
	if !b.app.IsAdmin(msg.From.ID) {
		b.reply(msg, msgAdminOnly)
		return
	}
	pending, err := b.app.PendingBooks()
	if err != nil {
		slog.Error("pending_failed", "error", err)
		b.reply(msg, msgGeneralError)
		return
	}
	if len(pending) == 0 {
		b.reply(msg, msgNoPending)
		return
	}
	for _, book := range pending {
		b.sendReviewCard(msg.Chat.ID, book)
	}
	slog.Info("pending_reviewed", "admin", usernameOf(msg.From), "count", len(pending))
}

// sendReviewCard renders one pending submission with approve/reject
// buttons; uploaded documents are re-sent by file reference.
func (b *Bot) sendReviewCard(chatID int64, book domain.Submission) {
	markup := reviewKeyboard(book.ID)
	if book.FileID != "" {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(book.FileID))
		doc.Caption = formatPending(book)
		doc.ParseMode = tgbotapi.ModeMarkdown
		doc.ReplyMarkup = markup
		if _, err := b.api.Send(doc); err != nil {
			slog.Error("send_review_card_failed", "error", err, "submission_id", book.ID)
		}
		return
	}
	out := tgbotapi.NewMessage(chatID, formatPending(book))
	out.ParseMode = tgbotapi.ModeMarkdown
	out.ReplyMarkup = markup
	if _, err := b.api.Send(out); err != nil {
		slog.Error("send_review_card_failed", "error", err, "submission_id", book.ID)
	}
}

// sendBroadcast delivers an admin message to every known user. Delivery
// failures (blocked bot, deleted account) are counted, not fatal.
func (b *Bot) sendBroadcast(msg *tgbotapi.Message) {
	if !b.app.IsAdmin(msg.From.ID) {
		b.reply(msg, msgAdminOnly)
		return
	}
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(msg, "❌ Usage: /broadcast <message>")
		return
	}
	users, err := b.app.AllUsers()
	if err != nil {
		slog.Error("broadcast_failed", "error", err)
		b.reply(msg, msgGeneralError)
		return
	}
	if len(users) == 0 {
		b.reply(msg, "❌ No users found to broadcast to.")
		return
	}
	sent, failed := 0, 0
	for _, user := range users {
		out := tgbotapi.NewMessage(user.ID, fmt.Sprintf("📢 *Broadcast Message*\n\n%s", text))
		out.ParseMode = tgbotapi.ModeMarkdown
		if _, err := b.api.Send(out); err != nil {
			slog.Warn("broadcast_delivery_failed", "user_id", user.ID, "error", err)
			failed++
			continue
		}
		sent++
	}
	b.reply(msg, fmt.Sprintf("📤 Broadcast completed!\n✅ Sent to: %d users\n❌ Failed: %d users", sent, failed))
	slog.Info("broadcast_sent", "admin", usernameOf(msg.From), "sent", sent, "failed", failed)
}

func (b *Bot) handleDocument(msg *tgbotapi.Message) {
	doc := msg.Document
	if int64(doc.FileSize) > b.cfg.MaxUploadBytes {
		b.reply(msg, msgFileTooLarge)
		return
	}
	if !allowedExtension(doc.FileName, b.cfg.AllowedExtensions) {
		b.reply(msg, msgUnsupportedFile)
		return
	}
	parsed := submissionFromCaption(msg.Caption, doc.FileName)
	sub, err := b.app.Submit(app.SubmitRequest{
		Title:             parsed.Title,
		Author:            parsed.Author,
		SubmitterID:       msg.From.ID,
		SubmitterUsername: usernameOf(msg.From),
		SubmitterName:     firstNameOf(msg.From),
		DriveLink:         parsed.Link,
		FileID:            doc.FileID,
	})
	if err != nil {
		b.replySubmitError(msg, err)
		return
	}
	b.reply(msg, formatSubmitted(sub))
}

func (b *Bot) handleText(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if !strings.Contains(text, "|") {
		b.reply(msg, howToSubmitText)
		return
	}
	parsed, err := parseSubmission(text)
	switch {
	case errors.Is(err, errBadFormat):
		b.reply(msg, msgInvalidFormat)
		return
	case errors.Is(err, errEmptyFields):
		b.reply(msg, msgEmptyFields)
		return
	case err != nil:
		b.reply(msg, msgGeneralError)
		return
	}
	sub, err := b.app.Submit(app.SubmitRequest{
		Title:             parsed.Title,
		Author:            parsed.Author,
		SubmitterID:       msg.From.ID,
		SubmitterUsername: usernameOf(msg.From),
		SubmitterName:     firstNameOf(msg.From),
		DriveLink:         parsed.Link,
	})
	if err != nil {
		b.replySubmitError(msg, err)
		return
	}
	b.reply(msg, formatSubmitted(sub))
}

func (b *Bot) replySubmitError(msg *tgbotapi.Message, err error) {
	switch {
	case errors.Is(err, app.ErrRateLimited):
		b.reply(msg, msgRateLimited)
	case errors.Is(err, app.ErrEmptyField):
		b.reply(msg, msgEmptyFields)
	default:
		slog.Error("submit_failed", "error", err, "user_id", msg.From.ID)
		b.reply(msg, msgGeneralError)
	}
}
