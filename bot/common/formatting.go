package common

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"engagebot/ledger"
)

// MaxMessageLength is the longest message the platform accepts
const MaxMessageLength = 2000

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

// ParseMention returns the user id in a mention like <@123> or <@!123>.
// Anything else is returned trimmed, so raw ids work too.
func ParseMention(arg string) string {
	arg = strings.TrimSpace(arg)
	if m := mentionPattern.FindStringSubmatch(arg); m != nil {
		return m[1]
	}
	return arg
}

// Mention formats a user mention
func Mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

// ParseAmount parses a numeric argument into a score value.
// Fractions are truncated toward zero and huge values are clamped.
func ParseAmount(arg string) (int64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, false
	}
	return ledger.Normalize(v), true
}

// CodeBlock wraps text in a code block unless it is going to the console
func CodeBlock(text string, console bool) string {
	if console {
		return text
	}
	return "```\n" + text + "\n```"
}

// JSONBlock wraps JSON output in a highlighted code block unless it is going to the console
func JSONBlock(text string, console bool) string {
	if console {
		return text
	}
	return "\n```json\n" + text + "\n```"
}
