package source

import (
	"fmt"
	"strings"
)

// Metadata holds #info directive values.
type Metadata struct {
	Title       string
	Author      string
	Version     string
	Description string
	Custom      map[string]string
}

// extractDirectives removes "#info key value" lines from text and collects
// their values. Each directive line is replaced by an empty line so that
// compiler diagnostics keep their line numbers.
func extractDirectives(text string) (string, Metadata, error) {
	md := Metadata{Custom: make(map[string]string)}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#info") {
			continue
		}
		if err := md.parseInfo(trimmed); err != nil {
			return "", md, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines[i] = ""
	}
	return strings.Join(lines, "\n"), md, nil
}

// parseInfo parses "#info key value". Surrounding quotes on the value are
// dropped.
func (m *Metadata) parseInfo(line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 || parts[0] != "#info" {
		return fmt.Errorf("invalid #info directive: %s", line)
	}
	key := strings.ToLower(parts[1])
	value := strings.Trim(strings.TrimSpace(parts[2]), "\"")

	switch key {
	case "title":
		m.Title = value
	case "author":
		m.Author = value
	case "version":
		m.Version = value
	case "description":
		m.Description = value
	default:
		m.Custom[key] = value
	}
	return nil
}
