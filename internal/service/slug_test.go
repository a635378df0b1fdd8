package service

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple name", "My Cool App!", "my-cool-app"},
		{"messy whitespace and hyphens", "  multiple   spaces--here ", "multiple-spaces-here"},
		{"already a slug", "sidequest-tracker", "sidequest-tracker"},
		{"punctuation dropped", "What's Next? v2.0", "whats-next-v20"},
		{"mixed case", "MyProject", "myproject"},
		{"leading and trailing hyphens", "---hello---", "hello"},
		{"tabs and newlines", "one\ttwo\nthree", "one-two-three"},
		{"empty", "", ""},
		{"only punctuation", "?!?!", ""},
		{"unicode dropped", "café ☕ corner", "caf-corner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Idempotence: re-slugging a slug must be a no-op. Imported repo names are
// often already slugs, and the update path re-derives slugs from names.
func TestSlugify_Idempotent(t *testing.T) {
	inputs := []string{"My Cool App!", "  multiple   spaces--here ", "plain", "v2.0 — the reckoning"}
	for _, in := range inputs {
		once := Slugify(in)
		twice := Slugify(once)
		if once != twice {
			t.Errorf("Slugify not idempotent for %q: %q → %q", in, once, twice)
		}
	}
}
