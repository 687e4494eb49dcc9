// Telegram notification sink. Strictly fire-and-forget: a failed send
// is logged and dropped, queue state is never affected.

package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"go-easyapply-automation/internal/queue"
	"go-easyapply-automation/internal/scraper"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
	//telegram throttles bots around 1 msg/sec per chat
	limiter *rate.Limiter
}

func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Bot{
		api:     api,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}, nil
}

func (b *Bot) escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if err := b.limiter.Wait(context.Background()); err != nil {
		return
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("⚠️ Failed to send telegram message: %v", err)
	}
}

// SendListing announces a newly discovered job worth queueing.
func (b *Bot) SendListing(l scraper.Listing) {
	msgText := fmt.Sprintf("🏢 *%s*\n", b.escapeMarkdown(l.Company))
	msgText += fmt.Sprintf("🔗 [View Job](%s)\n", l.URL)
	msgText += fmt.Sprintf("📝 %s\n", b.escapeMarkdown(l.Title))

	loc := l.Location
	if loc == "" {
		loc = "N/A"
	}
	msgText += fmt.Sprintf("📍 %s\n", b.escapeMarkdown(loc))

	if l.Salary != "" {
		msgText += fmt.Sprintf("💰 %s\n", b.escapeMarkdown(l.Salary))
	}
	if l.HasEasyApply {
		msgText += "⚡ Easy Apply available\n"
	}
	msgText += fmt.Sprintf("🤖 Match Score: %d/100\n", l.MatchScore)
	msgText += fmt.Sprintf("🔖 Source: %s\n", b.escapeMarkdown(l.Source))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", l.URL),
		),
	)

	msg := tgbotapi.NewMessage(b.chatID, msgText)
	msg.ParseMode = "MarkdownV2"
	msg.ReplyMarkup = keyboard
	b.send(msg)
}

// ApplicationOutcome reports one finished attempt.
func (b *Bot) ApplicationOutcome(job queue.JobRef, success bool, errMsg string) {
	var msgText string
	if success {
		msgText = fmt.Sprintf("✅ Applied to *%s* @ %s", b.escapeMarkdown(job.Title), b.escapeMarkdown(job.Company))
	} else {
		msgText = fmt.Sprintf("❌ Application failed: *%s* @ %s\n%s",
			b.escapeMarkdown(job.Title), b.escapeMarkdown(job.Company), b.escapeMarkdown(errMsg))
	}
	msg := tgbotapi.NewMessage(b.chatID, msgText)
	msg.ParseMode = "MarkdownV2"
	b.send(msg)
}

// SafetyStop relays the gate's verdict verbatim; it usually needs
// human action.
func (b *Bot) SafetyStop(reason, recommendation string) {
	msgText := fmt.Sprintf("🚨 Automation stopped: %s", reason)
	if recommendation != "" {
		msgText += fmt.Sprintf("\n👉 %s", recommendation)
	}
	b.send(tgbotapi.NewMessage(b.chatID, msgText))
}

func (b *Bot) SendStatus(message string) {
	b.send(tgbotapi.NewMessage(b.chatID, "ℹ️ "+message))
}

func (b *Bot) SendError(err error) {
	b.send(tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err)))
}
