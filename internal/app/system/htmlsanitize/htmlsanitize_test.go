package htmlsanitize_test

import (
	"testing"

	"github.com/jsong1004/ai-service/internal/app/system/htmlsanitize"
)

func TestPlainText_Empty(t *testing.T) {
	if got := htmlsanitize.PlainText(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestPlainText_Unchanged(t *testing.T) {
	in := "Called the CFO, follow up Monday"
	if got := htmlsanitize.PlainText(in); got != in {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestPlainText_StripsTags(t *testing.T) {
	in := "<p>Hello <strong>there</strong></p><script>alert('xss')</script>"
	if got := htmlsanitize.PlainText(in); got != "Hello there" {
		t.Errorf("expected tags stripped, got %q", got)
	}
}

func TestPlainText_KeepsAmpersand(t *testing.T) {
	in := "Smith & Sons"
	if got := htmlsanitize.PlainText(in); got != in {
		t.Errorf("expected %q, got %q", in, got)
	}
}

func TestPlainText_Trims(t *testing.T) {
	if got := htmlsanitize.PlainText("  <b>x</b>  "); got != "x" {
		t.Errorf("expected trimmed text, got %q", got)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"no tags here", true},
		{"<b>bold</b>", false},
		{"a < b", true},
	}
	for _, tt := range tests {
		if got := htmlsanitize.IsPlainText(tt.in); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
