package api

import "strings"

// SplitDiagramRequests turns "Use Case, DFD" into one request per diagram
// kind. Entries are trimmed and empty ones dropped.
func SplitDiagramRequests(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
