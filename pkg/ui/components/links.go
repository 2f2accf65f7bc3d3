package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Links holds the external references shown under the counter.
type Links struct {
	Explorer string
	Source   string
	Faucet   string
}

// LinksComponent renders the links block.
type LinksComponent struct {
	links Links
}

// NewLinksComponent creates a new links component.
func NewLinksComponent(links Links) *LinksComponent {
	return &LinksComponent{links: links}
}

// View renders the links, skipping empty ones.
func (l *LinksComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	linkStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Underline(true)

	rows := []struct {
		label string
		url   string
	}{
		{"Contract", l.links.Explorer},
		{"Source", l.links.Source},
		{"Faucet", l.links.Faucet},
	}

	var sb strings.Builder
	sb.WriteString(style.Render("LINKS"))
	for _, r := range rows {
		if r.url == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(style.Render(r.label + ": "))
		sb.WriteString(linkStyle.Render(r.url))
	}
	return sb.String()
}
