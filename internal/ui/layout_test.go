package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	appsync "github.com/nhle/cub-fuel-log/internal/sync"
)

// ─── Header ─────────────────────────────────────────────────────────────────

func TestHeaderStatus(t *testing.T) {
	refreshed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name    string
		conn    *appsync.Status
		want    string
		without string
	}{
		{"not monitored", nil, "3 records", "shell"},
		{"online", &appsync.Status{State: appsync.StateOnline, LastRefresh: refreshed}, "shell online", "since"},
		{"offline after refresh", &appsync.Status{State: appsync.StateOffline, LastRefresh: refreshed, Error: errors.New("down")}, "shell offline (since 09:30)", ""},
		{"offline never refreshed", &appsync.Status{State: appsync.StateOffline}, "shell offline", "since"},
		{"unregistered", &appsync.Status{State: appsync.StateUnregistered}, "shell unregistered", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeaderStatus(3, tt.conn)
			if !strings.HasPrefix(got, "3 records") {
				t.Errorf("HeaderStatus = %q, want record count first", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("HeaderStatus = %q, want %q", got, tt.want)
			}
			if tt.without != "" && strings.Contains(got, tt.without) {
				t.Errorf("HeaderStatus = %q, should not contain %q", got, tt.without)
			}
		})
	}
}

func TestRenderHeader_FillsWidth(t *testing.T) {
	f := NewFrame(80, 24)
	header := f.RenderHeader(12, &appsync.Status{State: appsync.StateOnline})
	if w := lipgloss.Width(header); w != 80 {
		t.Errorf("header width = %d, want 80", w)
	}
	if !strings.Contains(header, Title) || !strings.Contains(header, "12 records") {
		t.Errorf("header = %q, want title and record count", header)
	}
}

// ─── Frame ──────────────────────────────────────────────────────────────────

func TestContentHeight(t *testing.T) {
	if got := NewFrame(80, 24).ContentHeight(); got != 21 {
		t.Errorf("ContentHeight = %d, want 21", got)
	}
	if got := NewFrame(80, 2).ContentHeight(); got != 0 {
		t.Errorf("ContentHeight = %d, want 0", got)
	}
}

func TestRenderStatusBar_NoticeReplacesHints(t *testing.T) {
	f := NewFrame(60, 20)

	bar := f.RenderStatusBar("q quit", "", false)
	if !strings.Contains(bar, "q quit") {
		t.Errorf("status bar = %q, want hints", bar)
	}

	bar = f.RenderStatusBar("q quit", "Record saved.", false)
	if !strings.Contains(bar, "Record saved.") || strings.Contains(bar, "q quit") {
		t.Errorf("status bar = %q, want only the notice", bar)
	}
}

func TestRenderTabs(t *testing.T) {
	f := NewFrame(60, 20)
	strip := f.RenderTabs([]Tab{{Label: "1 Input"}, {Label: "2 Log", Active: true}})
	if !strings.Contains(strip, "1 Input") || !strings.Contains(strip, "2 Log") {
		t.Errorf("tabs = %q, want both labels", strip)
	}

	full := f.Render("H", strip, "C", "S")
	if lines := strings.Split(full, "\n"); len(lines) < 4 || !strings.HasPrefix(lines[0], "H") {
		t.Errorf("Render = %q, want header first then tabs, content and status", full)
	}
}
