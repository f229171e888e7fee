package insight

import (
	"reflect"
	"testing"
)

func TestExtractSourcesCapsAtThree(t *testing.T) {
	text := `Based on the data:
- The r/startups post about churn shows a clear gap
- A comment in r/startups mentions pricing pain
- Another r/startups post asks for invoicing tools
- The r/startups comment thread on hiring is relevant
- One more r/startups post about cold outreach`

	got := ExtractSources(text)
	want := []string{
		"- The r/startups post about churn shows a clear gap",
		"- A comment in r/startups mentions pricing pain",
		"- Another r/startups post asks for invoicing tools",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractSourcesNoQualifyingLines(t *testing.T) {
	text := "General market commentary.\nNothing cited here.\n"
	if got := ExtractSources(text); len(got) != 0 {
		t.Errorf("expected no sources, got %v", got)
	}
}

func TestExtractSourcesRequiresSubredditReference(t *testing.T) {
	// "post"/"comment" alone does not qualify without an r/ reference.
	text := "This post is interesting.\nThat comment too.\n"
	if got := ExtractSources(text); len(got) != 0 {
		t.Errorf("expected no sources for lines without r/, got %v", got)
	}
}

func TestExtractSourcesTrimsWhitespace(t *testing.T) {
	got := ExtractSources("   the r/golang post about generics   \n")
	if len(got) != 1 || got[0] != "the r/golang post about generics" {
		t.Errorf("expected trimmed line, got %v", got)
	}
}
