package ua

import "testing"

func TestParse_DesktopChrome(t *testing.T) {
	raw := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/125.0.6422.60 Safari/537.36"
	info := Parse(raw, "en-US,en;q=0.9")

	if info.Browser != "Chrome" {
		t.Fatalf("browser = %q, want Chrome", info.Browser)
	}
	if info.Device != "Desktop" {
		t.Fatalf("device = %q, want Desktop", info.Device)
	}
	if info.IsBot {
		t.Fatalf("desktop chrome flagged as bot")
	}
	if info.PrimaryLang != "en-us" {
		t.Fatalf("lang = %q, want en-us", info.PrimaryLang)
	}
	if info.Raw != raw {
		t.Fatalf("raw not preserved")
	}
}

func TestParse_Empty(t *testing.T) {
	info := Parse("", "")
	if info.Device != "Other" || info.PrimaryLang != "" || info.Version != "" {
		t.Fatalf("unexpected info for empty UA: %#v", info)
	}
}

func TestPrimaryLang(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"fr":              "fr",
		"de-DE;q=0.8, en": "de-de",
		" pt-BR , en":     "pt-br",
	}
	for in, want := range cases {
		if got := primaryLang(in); got != want {
			t.Errorf("primaryLang(%q) = %q, want %q", in, got, want)
		}
	}
}
