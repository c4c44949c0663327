package utils

import (
	"strings"
	"testing"
)

func TestSafeTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"empty string", "", 10, ""},
		{"zero maxLen", "hello", 0, ""},
		{"negative maxLen", "hello", -1, ""},
		{"short string", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 8, "hello..."},
		{"maxLen 3", "hello", 3, "h"},
		{"maxLen 4", "hello", 4, "h..."},
		{"unicode preserved", "你好世界", 4, "你好世界"},
		{"unicode truncate", "你好世界test", 6, "你好世..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeTruncate(tt.s, tt.maxLen); got != tt.want {
				t.Errorf("SafeTruncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestSanitizeOutput(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want string
	}{
		{"plain text", "abort: no repository found", "abort: no repository found"},
		{"keeps newline and tab", "a\nb\tc", "a\nb\tc"},
		{"ANSI color", "\x1b[31mabort\x1b[0m", "abort"},
		{"ANSI params", "\x1b[1;31;40mtext\x1b[0m", "text"},
		{"control chars", "x\x00\x01y", "xy"},
		{"incomplete escape", "\x1b[", ""},
		{"escape without bracket", "\x1bA", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeOutput(tt.s); got != tt.want {
				t.Errorf("SanitizeOutput(%q) = %q, want %q", tt.s, got, tt.want)
			}
		})
	}
}

func TestPlural(t *testing.T) {
	for _, tt := range []struct {
		n    int
		want string
	}{{0, "tests"}, {1, "test"}, {2, "tests"}} {
		if got := Plural(tt.n, "test"); got != tt.want {
			t.Errorf("Plural(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func BenchmarkSanitizeOutput(b *testing.B) {
	s := strings.Repeat("\x1b[31mabort\x1b[0m: detail ", 50)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SanitizeOutput(s)
	}
}
