// Package notify delivers alerts for newly found postings.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gupywatch/gupywatch/internal/model"
)

// Ensure TelegramNotifier implements model.Notifier.
var _ model.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier sends posting alerts to a Telegram chat via the Bot API.
type TelegramNotifier struct {
	apiBase            string
	token              string
	chatID             string
	disableLinkPreview bool
	httpClient         *http.Client
	logger             *slog.Logger
}

// NewTelegramNotifier returns a notifier that posts each new job to a
// Telegram chat. An empty apiBase selects the public Bot API.
func NewTelegramNotifier(apiBase, token, chatID string, disableLinkPreview bool, httpClient *http.Client, logger *slog.Logger) *TelegramNotifier {
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	return &TelegramNotifier{
		apiBase:            apiBase,
		token:              token,
		chatID:             chatID,
		disableLinkPreview: disableLinkPreview,
		httpClient:         httpClient,
		logger:             logger,
	}
}

// sendMessageRequest mirrors the Telegram sendMessage payload.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send formats the posting as an HTML message and delivers it via sendMessage.
func (n *TelegramNotifier) Send(ctx context.Context, job model.Job, summary model.Summary) error {
	payload := sendMessageRequest{
		ChatID:                n.chatID,
		Text:                  buildMessage(job, summary),
		ParseMode:             "HTML",
		DisableWebPagePreview: n.disableLinkPreview,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to telegram: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read telegram response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, string(respBytes))
	}

	var tgResp sendMessageResponse
	if err := json.Unmarshal(respBytes, &tgResp); err != nil {
		return fmt.Errorf("parse telegram response: %w", err)
	}
	if !tgResp.OK {
		return fmt.Errorf("telegram rejected message: %s", tgResp.Description)
	}

	n.logger.Info("telegram alert sent", "company", job.Company, "title", job.Title)
	return nil
}

// buildMessage renders one posting as a Telegram HTML message. User-supplied
// fields are escaped; only our own <b>/<a> tags survive.
func buildMessage(job model.Job, summary model.Summary) string {
	var b strings.Builder

	b.WriteString("🔔 <b>New job found!</b>\n\n")
	fmt.Fprintf(&b, "<b>Search:</b> %s\n", html.EscapeString(job.SearchTitle))
	fmt.Fprintf(&b, "<b>Title:</b> <a href=\"%s\">%s</a>\n", html.EscapeString(job.URL), html.EscapeString(job.Title))
	fmt.Fprintf(&b, "<b>Company:</b> %s\n", html.EscapeString(job.Company))
	fmt.Fprintf(&b, "<b>Work model:</b> %s\n", html.EscapeString(job.WorkModel))
	if job.PublishedAt != nil {
		fmt.Fprintf(&b, "<b>Published:</b> %s\n", job.PublishedAt.Format("2006-01-02"))
	}

	if summary.Structured {
		writeSection(&b, "Responsibilities", summary.Responsibilities)
		writeSection(&b, "Mandatory skills", summary.MandatorySkills)
		writeSection(&b, "Benefits", summary.Benefits)
	} else if len(summary.Raw) > 0 {
		b.WriteString("\n<b>Summary</b>\n")
		for _, line := range summary.Raw {
			fmt.Fprintf(&b, "%s\n", html.EscapeString(line))
		}
	}

	return b.String()
}

func writeSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n<b>%s</b>\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "• %s\n", html.EscapeString(item))
	}
}

// SendTestMessage sends a dummy posting to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	now := time.Now()
	testJob := model.Job{
		GupyID:      0,
		SearchTitle: "test",
		Title:       "Test Notification",
		Company:     "Gupywatch",
		WorkModel:   "Remote",
		URL:         "https://portal.gupy.io",
		PublishedAt: &now,
	}
	return n.Send(ctx, testJob, model.Summary{})
}
