package tui

import "github.com/charmbracelet/lipgloss/v2"

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	found   lipgloss.Style
	missing lipgloss.Style
	status  lipgloss.Style
	log     lipgloss.Style
	help    lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()

		return styles{
			title:   plain.Bold(true),
			label:   plain,
			found:   plain,
			missing: plain,
			status:  plain,
			log:     plain.Border(lipgloss.NormalBorder()),
			help:    plain,
		}
	}

	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12),
		found:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		missing: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		status:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		log: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")),
		help: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
