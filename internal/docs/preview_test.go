package docs

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// multilineContentGenerator generates content with a controllable number of
// lines. Each line has at least 1 character to avoid producing empty strings.
func multilineContentGenerator() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		numLines := rapid.IntRange(1, 20).Draw(t, "numLines")
		lines := make([]string, numLines)
		for i := 0; i < numLines; i++ {
			lines[i] = rapid.StringMatching(`[A-Za-z0-9 .,!?]{1,80}`).Draw(t, "line")
		}
		return strings.Join(lines, "\n")
	})
}

func testContentPreview_NoTruncation_Properties(t *rapid.T) {
	content := multilineContentGenerator().Draw(t, "content")
	lineCount := CountLines(content)
	maxLines := rapid.IntRange(lineCount, lineCount+10).Draw(t, "maxLines")

	result := ContentPreview(content, maxLines)

	if result != content {
		t.Fatalf("Expected no truncation: content has %d lines, maxLines=%d, but got different output.\nInput:  %q\nOutput: %q",
			lineCount, maxLines, content, result)
	}
}

func TestContentPreview_NoTruncation_Properties(t *testing.T) {
	rapid.Check(t, testContentPreview_NoTruncation_Properties)
}

func FuzzContentPreview_NoTruncation_Properties(f *testing.F) {
	f.Add([]byte{0x00})
	f.Fuzz(rapid.MakeFuzz(testContentPreview_NoTruncation_Properties))
}

func testContentPreview_Truncation_Properties(t *rapid.T) {
	numLines := rapid.IntRange(2, 20).Draw(t, "numLines")
	lines := make([]string, numLines)
	for i := 0; i < numLines; i++ {
		lines[i] = rapid.StringMatching(`[A-Za-z0-9 ]{1,40}`).Draw(t, "line")
	}
	content := strings.Join(lines, "\n")

	// maxLines < numLines forces truncation
	maxLines := rapid.IntRange(1, numLines-1).Draw(t, "maxLines")

	result := ContentPreview(content, maxLines)

	// Output has exactly maxLines of content plus the "..." line.
	resultLines := strings.Split(result, "\n")
	if len(resultLines) != maxLines+1 {
		t.Fatalf("Expected %d lines in truncated output, got %d.\nmaxLines=%d, numLines=%d\nResult: %q",
			maxLines+1, len(resultLines), maxLines, numLines, result)
	}
	if resultLines[len(resultLines)-1] != "..." {
		t.Fatalf("Expected last line to be \"...\", got %q", resultLines[len(resultLines)-1])
	}
}

func TestContentPreview_Truncation_Properties(t *testing.T) {
	rapid.Check(t, testContentPreview_Truncation_Properties)
}

func FuzzContentPreview_Truncation_Properties(f *testing.F) {
	f.Add([]byte{0x00})
	f.Fuzz(rapid.MakeFuzz(testContentPreview_Truncation_Properties))
}

func TestContentPreview_EmptyContent(t *testing.T) {
	if got := ContentPreview("", 5); got != "" {
		t.Fatalf("Expected empty string for empty content, got %q", got)
	}
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one line", 1},
		{"a\nb", 2},
		{"a\nb\n", 3},
	}
	for _, c := range cases {
		if got := CountLines(c.content); got != c.want {
			t.Fatalf("CountLines(%q) = %d, want %d", c.content, got, c.want)
		}
	}
}
