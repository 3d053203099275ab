package moderation

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ReplacementText is what a flagged message is stored and displayed as.
const ReplacementText = "this message was hidden for inappropriate content"

// denylist holds literal substrings that flag a message outright. Matching is
// done on the lowercased, markup-stripped text.
var denylist = []string{
	"connard",
	"connasse",
	"enculé",
	"salope",
	"batard",
	"bâtard",
	"fdp",
	"ta gueule",
	"nique ta",
	"asshole",
	"bitch",
	"bastard",
	"fuck",
	"motherfucker",
	"son of a bitch",
}

// fuzzyPatterns catches leetspeak and spacing obfuscation of the same terms
// (c0nnard, c o n n a r d, f*ck, ...). Separators between letters are limited
// to avoid flagging ordinary sentences that merely contain the letters.
var fuzzyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`c[\W_]*[o0ô]+[\W_]*n[\W_]*n[\W_]*[a4@]+[\W_]*r[\W_]*d`),
	regexp.MustCompile(`s[\W_]*[a4@]+[\W_]*l[\W_]*[o0]+[\W_]*p[\W_]*e`),
	regexp.MustCompile(`\bp[\W_]*u[\W_]*t[\W_]*e\b`),
	regexp.MustCompile(`e[\W_]*n[\W_]*c[\W_]*u[\W_]*l[\W_]*[eé3]`),
	regexp.MustCompile(`b[\W_]*[a4@]+[\W_]*t[\W_]*[a4@]+[\W_]*r[\W_]*d`),
	regexp.MustCompile(`f[\W_]*[u*]+[\W_]*c[\W_]*k`),
	regexp.MustCompile(`b[\W_]*[i1!]+[\W_]*t[\W_]*c[\W_]*h`),
	regexp.MustCompile(`[a4@][\W_]*s[\W_]*s[\W_]*h[\W_]*[o0]+[\W_]*l[\W_]*e`),
}

// strict strips every tag so "<b>con</b>nard" is seen as "connard".
var strict = bluemonday.StrictPolicy()

// Moderate screens text before it is persisted or broadcast. It returns the
// text to store and whether the original was flagged. Flagged messages are
// replaced wholesale with ReplacementText; clean messages pass through
// unchanged. Empty input is never inappropriate.
func Moderate(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return text, false
	}

	probe := strings.ToLower(strings.TrimSpace(strict.Sanitize(text)))

	for _, word := range denylist {
		if strings.Contains(probe, word) {
			return ReplacementText, true
		}
	}

	for _, re := range fuzzyPatterns {
		if re.MatchString(probe) {
			return ReplacementText, true
		}
	}

	return text, false
}
