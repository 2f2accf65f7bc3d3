// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionInfo is what the connection block displays.
type ConnectionInfo struct {
	AccountText     string
	Connected       bool
	ProviderPresent bool
	ChainName       string
	ChainID         uint64
	BlockNumber     *uint64
}

// ConnectionComponent renders wallet and chain connection details.
type ConnectionComponent struct {
	info ConnectionInfo
}

// NewConnectionComponent creates a new connection component.
func NewConnectionComponent() *ConnectionComponent {
	return &ConnectionComponent{}
}

// Update replaces the displayed info.
func (c *ConnectionComponent) Update(info ConnectionInfo) {
	c.info = info
}

// View renders the connection component.
func (c *ConnectionComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("CONNECTION"))
	sb.WriteString("\n\n")

	if c.info.Connected {
		sb.WriteString(okStyle.Render(c.info.AccountText))
	} else {
		sb.WriteString(warnStyle.Render(c.info.AccountText))
	}
	sb.WriteString("\n\n")

	if !c.info.ProviderPresent {
		sb.WriteString(warnStyle.Render("No Ethereum provider detected."))
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render("Set ethereum.websocket_url or ethereum.http_url to read chain data."))
		return sb.String()
	}

	block := "…"
	if c.info.BlockNumber != nil {
		block = fmt.Sprintf("%d", *c.info.BlockNumber)
	}

	sb.WriteString(fmt.Sprintf("├─ Chain:        %s\n", c.info.ChainName))
	sb.WriteString(fmt.Sprintf("├─ Chain ID:     %d\n", c.info.ChainID))
	sb.WriteString(fmt.Sprintf("└─ Block number: %s", block))

	return sb.String()
}
