package agents

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// money renders an amount as US dollars with thousands separators.
func money(v float64) string {
	return message.NewPrinter(language.English).Sprintf("$%.2f", v)
}

// percentage renders a markup percentage without trailing zeros.
func percentage(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinOrNone(items []string, limit int) string {
	if len(items) == 0 {
		return "None"
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return strings.Join(items, ", ")
}

func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
