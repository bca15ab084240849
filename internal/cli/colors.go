package cli

import "github.com/charmbracelet/lipgloss"

// Glow colour palette
// Shared cool-glow theme colours for consistent branding across CLI and TUI
var (
	// Core glow colours (deep to bright)
	GlowBlue = lipgloss.Color("#5EC5FF") // Signature avatar blue
	GlowDeep = lipgloss.Color("#2E7BB5") // Deep water blue
	GlowIce  = lipgloss.Color("#BFE8FF") // Pale ice highlight

	// Accent colours
	CoolGray = lipgloss.Color("#8899AA") // Muted slate for subtle text
)
