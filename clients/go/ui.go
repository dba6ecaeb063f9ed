package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/eldtechnologies/omnidesk/clients/go/omnidesk"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8f98"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935"))
	successStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFC107"))
	assistStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4db6ac"))
	platformStyle = map[omnidesk.Platform]lipgloss.Style{
		omnidesk.PlatformWhatsApp:  lipgloss.NewStyle().Foreground(lipgloss.Color("#25D366")),
		omnidesk.PlatformInstagram: lipgloss.NewStyle().Foreground(lipgloss.Color("#E1306C")),
		omnidesk.PlatformMessenger: lipgloss.NewStyle().Foreground(lipgloss.Color("#0084FF")),
	}
)

func platformLabel(p omnidesk.Platform) string {
	label := fmt.Sprintf("%-9s", p)
	if st, ok := platformStyle[p]; ok {
		return st.Render(label)
	}
	return label
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func printConversations(convs []omnidesk.Conversation) {
	if len(convs) == 0 {
		fmt.Println(mutedStyle.Render("no conversations"))
		return
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("%-9s  %-20s  %-22s  %5s  %-14s  %s", "CHANNEL", "CUSTOMER", "ID", "MSGS", "LAST", "PREVIEW")))
	for _, c := range convs {
		flags := ""
		if c.Automation {
			flags = " [auto]"
		}
		fmt.Printf("%s  %-20s  %-22s  %5d  %-14s  %s%s\n",
			platformLabel(c.Platform),
			truncate(c.Name, 20),
			c.ExternalID(),
			c.MessageCount,
			ago(c.LastMessageAt),
			truncate(c.LastMessage, 40),
			mutedStyle.Render(flags),
		)
	}
}

func printMessages(msgs []omnidesk.Message) {
	for _, m := range msgs {
		who := userStyle.Render("customer")
		if m.Direction == omnidesk.DirectionOutbound {
			who = assistStyle.Render("agent   ")
		}
		fmt.Printf("%s %s  %s\n", mutedStyle.Render(m.CreatedAt.Local().Format("2006-01-02 15:04")), who, m.Body)
	}
}

func printTurn(t omnidesk.Turn) {
	label := assistStyle.Render("assistant>")
	if t.Role == omnidesk.RoleUser {
		label = userStyle.Render("you>")
	}
	if t.Failed {
		fmt.Println(label, errorStyle.Render(t.Content.Text))
		return
	}
	fmt.Println(label, t.Content.Text)
	for _, u := range t.Content.MediaURLs {
		fmt.Println("          ", mutedStyle.Render("media: "+u))
	}
}
