package insight

import "strings"

// maxSources caps how many citation lines are kept per answer.
const maxSources = 3

// ExtractSources scans a generated answer for lines that look like citations:
// a subreddit reference ("r/") together with the word "post" or "comment".
// It keeps at most maxSources lines in order of appearance. This is a
// heuristic with no precision or recall guarantee.
func ExtractSources(text string) []string {
	var sources []string
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "r/") {
			continue
		}
		if !strings.Contains(line, "post") && !strings.Contains(line, "comment") {
			continue
		}
		sources = append(sources, strings.TrimSpace(line))
		if len(sources) == maxSources {
			break
		}
	}
	return sources
}
