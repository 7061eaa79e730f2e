package cmd

import (
	"encoding/json"
	"strings"

	"flowplane/internal/status"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusColor(name string) string {
	switch name {
	case "inactive":
		return colorGreen
	case "error":
		return colorRed
	case "active":
		return colorYellow
	case "submitted", "queued", "held":
		return colorCyan
	default:
		return ""
	}
}

func statusIcon(name string) string {
	switch name {
	case "inactive":
		return colorGreen + "✓" + colorReset
	case "error":
		return colorRed + "✗" + colorReset
	case "active":
		return colorYellow + "⏳" + colorReset
	case "submitted", "queued", "held":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(name string) string {
	c := statusColor(name)
	if c == "" {
		return statusIcon(name) + " " + name
	}
	return statusIcon(name) + " " + c + name + colorReset
}

// padStatus pads the colorized status to width visible characters.
func padStatus(name string, width int) string {
	pad := width - len(name) - 2
	if pad < 0 {
		pad = 0
	}
	return colorizeStatus(name) + strings.Repeat(" ", pad)
}

// overallStatus is the most significant status of a status document.
func overallStatus(doc map[string]string) string {
	if len(doc) == 0 {
		return status.Unknown.String()
	}
	highest := status.Unknown
	for _, name := range doc {
		s, err := status.Parse(name)
		if err != nil {
			continue
		}
		highest = status.Max(highest, s)
	}
	return highest.String()
}

func formatStatePoint(sp map[string]any) string {
	b, err := json.Marshal(sp)
	if err != nil {
		return "-"
	}
	return string(b)
}
