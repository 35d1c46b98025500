package csvimport

import "testing"

func TestFormatSet_Match(t *testing.T) {
	tests := []struct {
		fs      *FormatSet
		raw     string
		want    string
		allowed bool
	}{
		{paraphrasingFormats, "Word Paraphrase", FormatWordParaphrase, true},
		{paraphrasingFormats, "WORD_PARAPHRASE", FormatWordParaphrase, true},
		{paraphrasingFormats, "paraphrase (sentence)", FormatSentenceParaphrase, true},
		{paraphrasingFormats, "phrase-paraphrase 2", FormatPhraseParaphrase, true},
		{paraphrasingFormats, "PW", "", false},
		{paraphrasingFormats, "123", "", false},
		{paraphrasingFormats, "", "", false},
		{scrambleFormats, "Sentence Structure Scramble", FormatSentenceScramble, true},
		{scrambleFormats, "word-order", FormatSentenceScramble, true},
		{scrambleFormats, "Word Paraphrase", "", false},
	}
	for _, tt := range tests {
		got, ok := tt.fs.Match(tt.raw)
		if ok != tt.allowed || got != tt.want {
			t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.allowed)
		}
		if tt.fs.IsAllowed(tt.raw) != tt.allowed {
			t.Errorf("IsAllowed(%q) = %v", tt.raw, !tt.allowed)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg := DefaultConfig()
	cfg.PlaceholderPolicy = "drop"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown policy")
	}
	cfg = DefaultConfig()
	cfg.Delimiter = '|'
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported delimiter")
	}
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": 0, "auto": 0, ",": ',', "semicolon": ';', "tab": '\t'} {
		got, err := ParseDelimiter(in)
		if err != nil || got != want {
			t.Errorf("ParseDelimiter(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}
	if _, err := ParseDelimiter("|"); err == nil {
		t.Error("expected error for pipe")
	}
}
