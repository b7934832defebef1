package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gupywatch/gupywatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleJob() model.Job {
	published := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return model.Job{
		GupyID:      101,
		SearchTitle: "backend",
		Title:       "Backend Engineer <Senior>",
		Company:     "Acme & Co",
		WorkModel:   "Remote",
		URL:         "https://acme.gupy.io/jobs/101",
		PublishedAt: &published,
	}
}

func TestTelegramNotifier_Send(t *testing.T) {
	var gotPath string
	var gotReq sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	n := NewTelegramNotifier(server.URL, "123:abc", "-100200", true, server.Client(), discardLogger())

	summary := model.Summary{
		Responsibilities: []string{"Build APIs"},
		MandatorySkills:  []string{"Go", "SQL"},
		Benefits:         []string{"Health insurance"},
		Structured:       true,
	}

	if err := n.Send(context.Background(), sampleJob(), summary); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.ChatID != "-100200" {
		t.Errorf("chat_id = %q", gotReq.ChatID)
	}
	if gotReq.ParseMode != "HTML" {
		t.Errorf("parse_mode = %q", gotReq.ParseMode)
	}
	if !gotReq.DisableWebPagePreview {
		t.Error("disable_web_page_preview should be true")
	}

	text := gotReq.Text
	for _, want := range []string{
		"backend",
		"Backend Engineer &lt;Senior&gt;", // HTML-escaped title
		"Acme &amp; Co",
		"<b>Mandatory skills</b>",
		"• Go",
		"• Health insurance",
		"2026-08-20",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q:\n%s", want, text)
		}
	}
}

func TestTelegramNotifier_RawSummaryFallback(t *testing.T) {
	var gotReq sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	n := NewTelegramNotifier(server.URL, "123:abc", "-100200", false, server.Client(), discardLogger())

	summary := model.Summary{Raw: []string{"Unstructured summary line."}}
	if err := n.Send(context.Background(), sampleJob(), summary); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if !strings.Contains(gotReq.Text, "Unstructured summary line.") {
		t.Errorf("message missing raw summary:\n%s", gotReq.Text)
	}
	if strings.Contains(gotReq.Text, "<b>Mandatory skills</b>") {
		t.Error("raw fallback should not render section headers")
	}
}

func TestTelegramNotifier_EmptySummaryOmitsSections(t *testing.T) {
	var gotReq sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	n := NewTelegramNotifier(server.URL, "123:abc", "-100200", false, server.Client(), discardLogger())

	if err := n.Send(context.Background(), sampleJob(), model.Summary{}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if strings.Contains(gotReq.Text, "<b>Summary</b>") {
		t.Error("empty summary should not render a summary block")
	}
}

func TestTelegramNotifier_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewTelegramNotifier(server.URL, "123:abc", "-100200", false, server.Client(), discardLogger())

	if err := n.Send(context.Background(), sampleJob(), model.Summary{}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestTelegramNotifier_APIRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "chat not found"})
	}))
	defer server.Close()

	n := NewTelegramNotifier(server.URL, "123:abc", "-100200", false, server.Client(), discardLogger())

	err := n.Send(context.Background(), sampleJob(), model.Summary{})
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("error = %v, want rejection description", err)
	}
}

func TestLogNotifier_Send(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	n := NewLogNotifier(logger)
	if err := n.Send(context.Background(), sampleJob(), model.Summary{}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Backend Engineer") {
		t.Errorf("log output missing job title: %s", buf.String())
	}
}

func TestSendTestMessage(t *testing.T) {
	var gotReq sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	n := NewTelegramNotifier(server.URL, "123:abc", "-100200", false, server.Client(), discardLogger())

	if err := SendTestMessage(context.Background(), n); err != nil {
		t.Fatalf("SendTestMessage() error = %v", err)
	}
	if !strings.Contains(gotReq.Text, "Test Notification") {
		t.Errorf("message = %s", gotReq.Text)
	}
}
