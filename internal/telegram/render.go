package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"librarybot/internal/app"
	"librarybot/pkg/domain"
)

const (
	msgGeneralError    = "❌ An error occurred. Please try again later."
	msgAdminOnly       = "❌ This command is only available to administrators."
	msgInvalidFormat   = "❌ Invalid format. Use: `Title | Author | Google Drive Link (optional)`"
	msgEmptyFields     = "❌ Title and Author cannot be empty."
	msgFileTooLarge    = "❌ File is too large. Maximum size is 50MB."
	msgUnsupportedFile = "❌ Unsupported file type. Please upload PDF, DOC, DOCX, TXT, or EPUB files."
	msgRateLimited     = "❌ You've reached the daily submission limit. Please try again tomorrow."
	msgUnknownCommand  = "❌ Unknown command. Use /help to see available commands."
	msgNoPending       = "✅ No pending book submissions!"
)

const helpText = `📚 *IPM Library Bot Help*

*Book Submission Methods:*
1. *Text Format:*
   Send: ` + "`Title | Author | Google Drive Link`" + `
   Example: ` + "`1984 | George Orwell | https://drive.google.com/file/d/abc123/view`" + `

2. *PDF Upload:*
   Simply upload a PDF file with an optional caption

*Google Drive Link Requirements:*
• Set file sharing to "Anyone with the link can view"
• Copy the full Google Drive URL
• The bot will automatically format your link correctly

*Commands:*
• /start - Welcome message
• /help - This help message
• /leaderboard - Weekly top contributors
• /stats - Library statistics
• /mystats - Your submission record
• /search <query> - Search approved books

*Admin Commands:*
• /pending - Review pending submissions
• /broadcast <message> - Send message to all users

*Notes:*
• All submissions require admin approval
• Approved books are shared in our library channel`

const submitHelpText = `📚 *Submit a Book to IPM Library*

*Method 1 - Text Format:*
Send a message like: ` + "`Title | Author | Google Drive Link (optional)`" + `

*Important for Google Drive links:*
• Make sure your file is set to "Anyone with the link can view"
• The bot will automatically format your link correctly

*Method 2 - File Upload:*
Upload a PDF/document with optional caption

Start typing your book submission now!`

func welcomeText(firstName string) string {
	return fmt.Sprintf(`🏛️ Welcome to IPM Library Bot, %s!

📚 *How to submit a book:*
1. Send text in format: `+"`Title | Author | Google Drive Link (optional)`"+`
2. Or upload a PDF/document directly
3. Use the quick submit button below

📋 *Available commands:*
• /start - Show this welcome message
• /leaderboard - View weekly top contributors
• /help - Get detailed help

Happy reading! 📖`, firstName)
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 Submit Book", "submit_book"),
			tgbotapi.NewInlineKeyboardButtonData("🏆 Leaderboard", "show_leaderboard"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", "show_help"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Library Stats", "show_stats"),
		),
	)
}

func leaderboardKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Weekly", "leaderboard_weekly"),
			tgbotapi.NewInlineKeyboardButtonData("📆 Monthly", "leaderboard_monthly"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 All Time", "leaderboard_alltime"),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "leaderboard_refresh"),
		),
	)
}

func reviewKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", "approve_"+id),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", "reject_"+id),
		),
	)
}

func formatLeaderboard(entries []app.Entry, periodName string, days int) string {
	if len(entries) == 0 {
		return fmt.Sprintf("📊 No contributions in the %s period yet!", strings.ToLower(periodName))
	}
	title := periodName
	if days > 0 {
		title = fmt.Sprintf("%s (Last %d days)", periodName, days)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 *%s Leaderboard*\n\n", title)
	for i, entry := range entries {
		emoji := "📚"
		switch i {
		case 0:
			emoji = "🥇"
		case 1:
			emoji = "🥈"
		case 2:
			emoji = "🥉"
		}
		fmt.Fprintf(&b, "%s *%d.* %s (@%s) - %d book(s)\n", emoji, i+1, entry.User.Name, entry.User.Username, entry.Count)
	}
	return b.String()
}

func formatPending(book domain.Submission) string {
	var b strings.Builder
	b.WriteString("📚 *Pending Book Submission*\n\n")
	fmt.Fprintf(&b, "*Title:* %s\n", book.Title)
	fmt.Fprintf(&b, "*Author:* %s\n", book.Author)
	fmt.Fprintf(&b, "*Submitted by:* @%s (%s)\n", book.SubmitterUsername, book.SubmitterName)
	fmt.Fprintf(&b, "*Date:* %s\n", book.SubmittedAt.Format("2006-01-02 15:04"))
	if book.DriveLink != "" {
		fmt.Fprintf(&b, "*Google Drive:* [Open Link](%s)\n", book.DriveLink)
		status := "⚠️ Check Access"
		if strings.Contains(book.DriveLink, "usp=sharing") {
			status = "✅ Validated"
		}
		fmt.Fprintf(&b, "*Link Status:* %s\n", status)
	}
	if book.FileID != "" {
		b.WriteString("*File:* Uploaded document\n")
	}
	return b.String()
}

func formatStats(stats app.LibraryStats) string {
	var b strings.Builder
	b.WriteString("📊 *IPM Library Statistics*\n\n")
	fmt.Fprintf(&b, "📚 Total Books: %d\n", stats.TotalApprovedBooks)
	fmt.Fprintf(&b, "👥 Total Users: %d\n", stats.TotalUsers)
	fmt.Fprintf(&b, "⏳ Pending Submissions: %d\n", stats.PendingCount)
	if stats.MostActive != nil {
		fmt.Fprintf(&b, "\n🏆 Most Active Contributor: %s (%d books)\n", stats.MostActive.Name, stats.MostActive.Contributions)
	} else {
		b.WriteString("\n🏆 Most Active Contributor: None yet\n")
	}
	return b.String()
}

func formatUserStats(stats app.UserStats) string {
	name := "you"
	if stats.User != nil {
		name = stats.User.FirstName
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📈 *Submission stats for %s*\n\n", name)
	fmt.Fprintf(&b, "📬 Total Submissions: %d\n", stats.TotalSubmissions)
	fmt.Fprintf(&b, "✅ Approved: %d\n", stats.ApprovedCount)
	fmt.Fprintf(&b, "📊 Approval Rate: %.0f%%\n", stats.ApprovalRate)
	return b.String()
}

func formatSearchResults(query string, results []domain.Submission) string {
	if len(results) == 0 {
		return fmt.Sprintf("🔍 No approved books match %q.", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 *Search results for %q*\n\n", query)
	for _, book := range results {
		fmt.Fprintf(&b, "📚 %s — %s\n", book.Title, book.Author)
		if book.DriveLink != "" {
			fmt.Fprintf(&b, "   🔗 %s\n", book.DriveLink)
		}
	}
	return b.String()
}

func formatSubmitted(sub domain.Submission) string {
	var b strings.Builder
	b.WriteString("✅ *Book submitted successfully!*\n\n")
	fmt.Fprintf(&b, "📚 *Title:* %s\n", sub.Title)
	fmt.Fprintf(&b, "👤 *Author:* %s\n", sub.Author)
	if sub.DriveLink != "" {
		fmt.Fprintf(&b, "🔗 *Link:* %s\n", sub.DriveLink)
	}
	b.WriteString("\nYour submission has been sent for admin approval. You'll be notified once it's reviewed!")
	return b.String()
}

func formatChannelPost(book domain.Submission) string {
	var b strings.Builder
	b.WriteString("📚 *New Book Added to Library*\n\n")
	fmt.Fprintf(&b, "*Title:* %s\n", book.Title)
	fmt.Fprintf(&b, "*Author:* %s\n", book.Author)
	fmt.Fprintf(&b, "*Contributed by:* @%s\n", book.SubmitterUsername)
	if book.DriveLink != "" {
		fmt.Fprintf(&b, "*Google Drive:* %s", book.DriveLink)
	}
	return b.String()
}

const howToSubmitText = `❓ *How to submit a book:*

*Method 1 - Text Format:*
Send: ` + "`Title | Author | Google Drive Link (optional)`" + `
Example: ` + "`1984 | George Orwell | https://drive.google.com/file/d/abc123/view`" + `

*Method 2 - File Upload:*
Upload a PDF/document with optional caption

Use /help for more information.`
