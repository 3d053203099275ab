package moderation

import "testing"

func TestModerateCleanText(t *testing.T) {
	inputs := []string{
		"On passe voir Mamie demain ?",
		"I'll bring the groceries at 5pm",
		"Bonjour à tous !",
		"constitution day is coming up", // contains "con" but not a denylisted word
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out, flagged := Moderate(in)
			if flagged {
				t.Fatalf("Moderate(%q) flagged clean text", in)
			}
			if out != in {
				t.Fatalf("Moderate(%q) altered clean text to %q", in, out)
			}
		})
	}
}

func TestModerateDenylist(t *testing.T) {
	inputs := []string{
		"t'es qu'un connard",
		"T'ES QU'UN CONNARD",
		"quelle salope celle-là",
		"what an asshole",
		"oh FUCK that",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out, flagged := Moderate(in)
			if !flagged {
				t.Fatalf("Moderate(%q) did not flag", in)
			}
			if out != ReplacementText {
				t.Fatalf("Moderate(%q) = %q, want replacement text", in, out)
			}
		})
	}
}

func TestModerateObfuscation(t *testing.T) {
	inputs := []string{
		"t'es un c0nnard",
		"c o n n a r d",
		"f*ck off",
		"b1tch please",
		"<b>con</b>nard", // markup split
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out, flagged := Moderate(in)
			if !flagged {
				t.Fatalf("Moderate(%q) did not flag obfuscated text", in)
			}
			if out != ReplacementText {
				t.Fatalf("Moderate(%q) = %q, want replacement text", in, out)
			}
		})
	}
}

func TestModerateEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		out, flagged := Moderate(in)
		if flagged {
			t.Fatalf("Moderate(%q) flagged empty input", in)
		}
		if out != in {
			t.Fatalf("Moderate(%q) altered empty input", in)
		}
	}
}
