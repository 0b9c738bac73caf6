package service

import (
	"fmt"
	"strings"

	"ergocare-backend/models"
)

const unknownSource = "unknown_source"

// AssembleContext renders grouped chunks for the prompt and collects the
// citation sources in first-seen order. Output depends only on input order.
func AssembleContext(groups []models.DomainChunks) models.GroundedContext {
	var out []string
	sources := []string{}
	seen := make(map[string]bool)

	for _, g := range groups {
		out = append(out, fmt.Sprintf("\n===== DOMAIN: %s =====", strings.ToUpper(string(g.Domain))))
		if len(g.Chunks) == 0 {
			out = append(out, "NO DOCUMENTS FOUND.")
			continue
		}
		for i, c := range g.Chunks {
			src := c.Source
			if src == "" {
				src = unknownSource
			}
			out = append(out, fmt.Sprintf("\n[Doc %d] Source: %s\n%s\n", i+1, src, c.Text))
			if !seen[src] {
				seen[src] = true
				sources = append(sources, src)
			}
		}
	}

	return models.GroundedContext{
		Groups:   groups,
		Rendered: strings.Join(out, "\n"),
		Sources:  sources,
	}
}

// FormatSources renders the permitted citation list
func FormatSources(sources []string) string {
	if len(sources) == 0 {
		return "- [SOURCE: none]"
	}
	lines := make([]string, len(sources))
	for i, s := range sources {
		lines[i] = fmt.Sprintf("- [SOURCE: %s]", s)
	}
	return strings.Join(lines, "\n")
}
