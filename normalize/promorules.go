package normalize

import (
	"regexp"
	"strings"
)

// LineRule is one declarative promotional-line pattern. The table is data on
// purpose: new provider footers get a new row, not new code.
type LineRule struct {
	Pattern     *regexp.Regexp
	Description string
}

var promotionalLineRules = []LineRule{
	{regexp.MustCompile(`(?i)^Do You Yahoo!\?`), "Yahoo signup footer"},
	{regexp.MustCompile(`(?i)^Get your free @yahoo\.com address`), "Yahoo address ad"},
	{regexp.MustCompile(`(?i)^Tired of spam\?`), "Yahoo spam-guard ad"},
	{regexp.MustCompile(`(?i)^Yahoo! (Mail|Messenger|Groups|Photos|Shopping|Personals|Autos)\b`), "Yahoo product plug"},
	{regexp.MustCompile(`(?i)^Get the new Yahoo`), "Yahoo upgrade ad"},
	{regexp.MustCompile(`(?i)Get your FREE download of MSN Explorer`), "MSN Explorer download ad"},
	{regexp.MustCompile(`(?i)^The new MSN 8\b`), "MSN 8 ad"},
	{regexp.MustCompile(`(?i)^(STOP|Help STOP) (MORE )?SPAM with the new MSN 8`), "MSN 8 spam-filter ad"},
	{regexp.MustCompile(`(?i)^Protect your PC - .*(McAfee|VirusScan)`), "MSN security ad"},
	{regexp.MustCompile(`(?i)^(Add photos to your messages|Chat with friends online|Express yourself) with MSN`), "MSN Messenger ad"},
	{regexp.MustCompile(`(?i)^MSN (Photos|8) (is|helps)\b`), "MSN feature ad"},
	{regexp.MustCompile(`(?i)^Send and receive Hotmail on your mobile device`), "Hotmail mobile ad"},
	{regexp.MustCompile(`(?i)^Get your FREE,? private e-?mail`), "free-mailbox ad"},
	{regexp.MustCompile(`(?i)^Sign up for (AOL|FREE email)`), "AOL signup footer"},
	{regexp.MustCompile(`(?i)^Get AOL (Instant Messenger|Mail)`), "AOL product plug"},
	{regexp.MustCompile(`(?i)^Juno offers FREE or PREMIUM Internet access`), "Juno access ad"},
	{regexp.MustCompile(`(?i)^Join Juno today!`), "Juno signup footer"},
	{regexp.MustCompile(`(?i)^https?://(?:promo\.|join\.|explorer\.)?(?:msn|juno|yahoo)\.com\S*$`), "bare provider promo link"},
}

// dropPromotionalLines removes, line by line, every line matching a rule in
// the table above.
func dropPromotionalLines(text string) (string, error) {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if matchesPromotionalRule(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), nil
}

func matchesPromotionalRule(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, rule := range promotionalLineRules {
		if rule.Pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}
