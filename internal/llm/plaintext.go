package llm

import (
	"regexp"
	"strings"
)

var bulletMarker = regexp.MustCompile(`^\s*[-*•]\s*`)

// ToPlainText strips simple markup tokens line by line so the text stays
// copy-paste friendly for downstream display: leading bullet markers,
// bold/emphasis delimiters, and inline-code backticks.
func ToPlainText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = bulletMarker.ReplaceAllString(line, "")
		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "__", "")
		line = strings.ReplaceAll(line, "`", "")
		lines[i] = line
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
