package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/crm-nexus/nexus/pipeline"
)

const columnWidth = 26

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(columnWidth).
			Padding(0, 1)

	columnTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("99"))

	cardNameStyle = lipgloss.NewStyle().Bold(true)
	cardMetaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	temperatureStyles = map[pipeline.Temperature]lipgloss.Style{
		pipeline.TemperatureHot:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		pipeline.TemperatureWarm: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		pipeline.TemperatureCold: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
)

// renderBoard draws the stage columns side by side, one card per
// opportunity in fetch order.
func renderBoard(columns []pipeline.Column) string {
	rendered := make([]string, 0, len(columns))
	for _, column := range columns {
		rendered = append(rendered, renderColumn(column))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func renderColumn(column pipeline.Column) string {
	var b strings.Builder
	b.WriteString(columnTitleStyle.Render(fmt.Sprintf("%s (%d)", column.Stage.Title(), len(column.Opportunities))))
	b.WriteString("\n")

	if len(column.Opportunities) == 0 {
		b.WriteString(cardMetaStyle.Render("—"))
	}
	for _, opportunity := range column.Opportunities {
		b.WriteString("\n")
		b.WriteString(renderCard(opportunity))
		b.WriteString("\n")
	}
	return columnStyle.Render(b.String())
}

func renderCard(o pipeline.Opportunity) string {
	lines := []string{cardNameStyle.Render(o.Name)}
	if o.Service != "" {
		lines = append(lines, cardMetaStyle.Render(o.Service))
	}
	meta := make([]string, 0, 2)
	if style, ok := temperatureStyles[o.Temperature]; ok {
		meta = append(meta, style.Render(string(o.Temperature)))
	}
	if o.EstAnnualPremium != nil {
		meta = append(meta, cardMetaStyle.Render(fmt.Sprintf("$%.0f", *o.EstAnnualPremium)))
	}
	if len(meta) > 0 {
		lines = append(lines, strings.Join(meta, " "))
	}
	return strings.Join(lines, "\n")
}
