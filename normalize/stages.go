package normalize

import (
	"regexp"
	"strings"
)

// quoteMarkerVariants are the reply-marker spellings seen in real threads,
// applied in order. De-quoting is deliberately drastic: quoted replies exist
// in their own dated notes already.
var quoteMarkerVariants = []string{
	">>  >> ",
	">>> ",
	">> ",
	">>  ",
	"  >  > ",
	" >  > ",
	" > ",
	">  > ",
	"> ",
	"> > >",
}

func collapseQuoteMarkers(text string) (string, error) {
	for _, variant := range quoteMarkerVariants {
		text = strings.ReplaceAll(text, variant, " ")
	}
	return text, nil
}

var (
	classMarginRe    = regexp.MustCompile(`(?s)#.*?\{margin:0;\}`)
	classNoSpacingRe = regexp.MustCompile(`(?s)#.*?NoSpacing`)
	msoStyleRe       = regexp.MustCompile(`(?s)p\..*?\{margin: ?0;?\}`)
)

// stripStyleRemnants removes inline CSS fragments that survive HTML clients,
// mostly Outlook paragraph styles. Selector blocks go first so their
// terminators are still present to match against.
func stripStyleRemnants(text string) (string, error) {
	text = classMarginRe.ReplaceAllString(text, "")
	text = classNoSpacingRe.ReplaceAllString(text, "")
	text = msoStyleRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "p.MsoNormal,p.MsoNoSpacing{margin:0}", " ")
	text = strings.ReplaceAll(text, "P {margin-top:0;margin-bottom:0;}", "")
	text = strings.ReplaceAll(text, "{margin:0;}", "")
	text = strings.ReplaceAll(text, "{margin: 0;}", "")
	return text, nil
}

var externalBannerRe = regexp.MustCompile(`(?i)\[External\]/\[Externe\]`)

func stripExternalBanner(text string) (string, error) {
	return externalBannerRe.ReplaceAllString(text, ""), nil
}

var clientSignatureRe = regexp.MustCompile(`(?i)Sent from .*|Get (Outlook for iOS|.* for Android)|Sent via .*`)

func stripClientSignatures(text string) (string, error) {
	return clientSignatureRe.ReplaceAllString(text, ""), nil
}

var (
	onWroteTruncateRe = regexp.MustCompile(`(?ims)^On\s.*?wrote:.*$`)
	leWroteTruncateRe = regexp.MustCompile(`(?ims)^Le .*?a écrit\s*:.*$`)
	htmlCommentRe     = regexp.MustCompile(`(?s)<!--.*?-->`)
	continuationRunRe = regexp.MustCompile(`(?:\\_){4}`)
)

// truncateQuotedReply cuts the message at the first quoted-reply marker. The
// replied-to text lives in its own note already, so everything from the
// marker on is dropped, along with HTML comments and the escaped-underscore
// continuation runs some clients leave behind.
func truncateQuotedReply(text string) (string, error) {
	text = onWroteTruncateRe.ReplaceAllString(text, "")
	text = leWroteTruncateRe.ReplaceAllString(text, "")
	text = htmlCommentRe.ReplaceAllString(text, "")
	text = continuationRunRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text), nil
}

var hashtagRe = regexp.MustCompile("(^|[^`])#([^\\s)\\].`]+)")

// escapeHashtags wraps #tokens in backticks so note-taking tools do not read
// them as tags. Already-wrapped tokens are left alone.
func escapeHashtags(text string) (string, error) {
	return hashtagRe.ReplaceAllString(text, "${1}`#${2}`"), nil
}

var (
	escapedUnderscoreRe   = regexp.MustCompile(`(?:\\_+)+`)
	doubleBackslashLineRe = regexp.MustCompile(`(?m)^\\\\$`)
)

func cleanEscapeArtifacts(text string) (string, error) {
	text = escapedUnderscoreRe.ReplaceAllString(text, "")
	text = doubleBackslashLineRe.ReplaceAllString(text, "")
	return text, nil
}

var wroteMarkerRe = regexp.MustCompile(`(?s)(On .*? wrote:)`)

func spaceWroteMarkers(text string) (string, error) {
	return wroteMarkerRe.ReplaceAllString(text, "\n${1}\n"), nil
}

var boldHeaderMarkerRe = regexp.MustCompile(`\*\*(From|Cc|Sent|To|Subject):\*\*`)

func unescapeHeaderMarkers(text string) (string, error) {
	return boldHeaderMarkerRe.ReplaceAllString(text, "\n${1}:"), nil
}

var emailHeaderLineRe = regexp.MustCompile(`(?i)^\s*(From:|Sent:|To:|Cc:|Subject:)`)

func isEmailHeaderLine(line string) bool {
	return emailHeaderLineRe.MatchString(line)
}

// reflowParagraphs reassembles hard-wrapped lines into paragraphs. Lines that
// look like email headers always start a paragraph of their own and are never
// merged with their neighbors; blank lines delimit paragraphs.
func reflowParagraphs(text string) (string, error) {
	lines := strings.Split(text, "\n")
	var paragraphs []string
	current := ""

	flush := func() {
		if strings.TrimSpace(current) != "" {
			paragraphs = append(paragraphs, strings.TrimSpace(current))
		}
		current = ""
	}

	for _, line := range lines {
		switch {
		case isEmailHeaderLine(line):
			flush()
			current += strings.TrimSpace(line) + "\n"
		case strings.TrimSpace(line) != "":
			current += line + " "
		default:
			flush()
		}
	}
	flush()

	return strings.Join(paragraphs, "\n\n"), nil
}

func dropTableRemnants(text string) (string, error) {
	text = strings.ReplaceAll(text, "| | | --- | |", " ")
	text = strings.ReplaceAll(text, "| | --- | |", " ")
	return text, nil
}

var (
	fromLineRe    = regexp.MustCompile(`(?m)^From: `)
	subjectLineRe = regexp.MustCompile(`(Subject: .*)`)
	forwardedRe   = regexp.MustCompile(`\n?-+\s*Forwarded message\s*-+`)
	originalMsgRe = regexp.MustCompile(`\n?-+\s*Original Message\s*-+\n?`)
)

func normalizeStructuralBanners(text string) (string, error) {
	text = fromLineRe.ReplaceAllString(text, "\nFrom: ")
	text = subjectLineRe.ReplaceAllString(text, "${1}\n")
	text = forwardedRe.ReplaceAllString(text, "\n\n*- Forwarded message *-")
	text = originalMsgRe.ReplaceAllString(text, "\n\n-- Original Message --\n\n")
	return text, nil
}

var (
	dividerBlockRe = regexp.MustCompile(`(?s)-=-=-[-=]*.*?-=-=-[-=]*\n?`)
	zoomInviteRe   = regexp.MustCompile(`(?s)Join Zoom Meeting.*`)
)

func truncateDividerBlocks(text string) (string, error) {
	text = dividerBlockRe.ReplaceAllString(text, "")
	text = zoomInviteRe.ReplaceAllString(text, "Join Zoom Meeting")
	return text, nil
}

// shortenLongRules trims legacy "=====" signature rules by nine characters to
// de-emphasize them. Rules of nine characters or fewer are left alone.
func shortenLongRules(text string) (string, error) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 9 && strings.Count(trimmed, "=") == len(trimmed) {
			lines[i] = strings.Repeat("=", len(trimmed)-9)
		}
	}
	return strings.Join(lines, "\n"), nil
}

var promptLineRe = regexp.MustCompile(`^\S+:`)

func endsSentence(line string) bool {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return true
	}
	return strings.ContainsRune(".!?:;", rune(line[len(line)-1]))
}

// rejoinSoftWrappedLines undoes the hard line wrapping some clients insert: a
// line that does not end a sentence is joined with the next one, unless the
// next line is quoted or looks like a "word:" prompt.
func rejoinSoftWrappedLines(text string) (string, error) {
	lines := strings.Split(text, "\n")
	var out []string

	i := 0
	for i < len(lines) {
		line := lines[i]
		for {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || endsSentence(trimmed) || i+1 >= len(lines) {
				break
			}
			next := strings.TrimSpace(lines[i+1])
			if next == "" || strings.HasPrefix(next, ">") || promptLineRe.MatchString(next) {
				break
			}
			line = strings.TrimRight(line, " \t") + " " + next
			i++
		}
		out = append(out, line)
		i++
	}

	return strings.Join(out, "\n"), nil
}

// spaceParagraphs inserts a blank line between consecutive non-blank lines.
func spaceParagraphs(text string) (string, error) {
	lines := strings.Split(text, "\n")
	var out []string
	for i, line := range lines {
		out = append(out, line)
		if i+1 < len(lines) && strings.TrimSpace(line) != "" && strings.TrimSpace(lines[i+1]) != "" {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n"), nil
}

// continueQuotePrefixes quote-prefixes the non-blank lines lying between the
// first and last quoted lines, so a quoted passage reads as one block.
func continueQuotePrefixes(text string) (string, error) {
	lines := strings.Split(text, "\n")
	first, last := -1, -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 || first == last {
		return text, nil
	}
	for i := first + 1; i < last; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, ">") {
			continue
		}
		lines[i] = "> " + lines[i]
	}
	return strings.Join(lines, "\n"), nil
}

var legalBoilerplateRe = regexp.MustCompile(`(?s)\*[^*]*This e-mail[^*]*\*`)

func stripLegalBoilerplate(text string) (string, error) {
	return legalBoilerplateRe.ReplaceAllString(text, ""), nil
}

var trailingQuoteMarkerRe = regexp.MustCompile(`(?m)( *> *)+$`)

func stripTrailingQuoteMarkers(text string) (string, error) {
	return trailingQuoteMarkerRe.ReplaceAllString(text, ""), nil
}

var (
	longDashRuleRe  = regexp.MustCompile(`(?m)^ *-{5,} *$`)
	underscoreRunRe = regexp.MustCompile(`_{4,}`)
	dateHeaderRe    = regexp.MustCompile(`(?m)^(Date: [A-Z][a-z]{2,8}, [A-Z][a-z]{2,8}\.? \d{1,2},? \d{4}(?:,? (?:at )?\d{1,2}:\d{2}(?: ?[AP]M)?)?) +(\S.*)$`)
)

func respaceDividers(text string) (string, error) {
	text = longDashRuleRe.ReplaceAllString(text, "\n---\n")
	text = underscoreRunRe.ReplaceAllString(text, "")
	text = dateHeaderRe.ReplaceAllString(text, "${1}\n${2}")
	return text, nil
}

var (
	tripleNewlineRe = regexp.MustCompile(`\n{3,}`)
	leadingSpaceRe  = regexp.MustCompile(`(?m)^[ \t]+`)
)

func normalizeWhitespace(text string) (string, error) {
	text = tripleNewlineRe.ReplaceAllString(text, "\n\n")
	text = leadingSpaceRe.ReplaceAllString(text, "")
	return text, nil
}
