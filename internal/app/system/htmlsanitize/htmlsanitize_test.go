package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/charityhub/internal/app/system/htmlsanitize"
)

func TestText_Empty(t *testing.T) {
	if got := htmlsanitize.Text(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestText_PlainText(t *testing.T) {
	if got := htmlsanitize.Text("Monthly food basket"); got != "Monthly food basket" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestText_StripsTags(t *testing.T) {
	if got := htmlsanitize.Text("<b>Rice</b> bags"); got != "Rice bags" {
		t.Errorf("expected tags stripped, got %q", got)
	}
}

func TestText_RemovesScript(t *testing.T) {
	if got := htmlsanitize.Text("<script>alert('xss')</script>Flour"); got != "Flour" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestText_KeepsAmpersand(t *testing.T) {
	if got := htmlsanitize.Text("Oil & sugar"); got != "Oil & sugar" {
		t.Errorf("expected ampersand kept as text, got %q", got)
	}
}
