package parse

import (
	"net/mail"
	"regexp"
	"strings"
)

var emailAddressRe = regexp.MustCompile(`[\w.+\-]+@[\w.\-]+`)

// extractAddresses parses a header value holding one or more comma-separated
// "Display Name" <addr> groups into lowercase email addresses, discarding the
// display names. Malformed lists fall back to scraping anything
// address-shaped, the way real mailboxes require.
func extractAddresses(headerValue string) []string {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" {
		return nil
	}

	if decoded, err := wordDecoder.DecodeHeader(headerValue); err == nil {
		headerValue = decoded
	}

	if list, err := mail.ParseAddressList(headerValue); err == nil {
		out := make([]string, 0, len(list))
		for _, addr := range list {
			out = append(out, strings.ToLower(addr.Address))
		}
		return out
	}

	matches := emailAddressRe.FindAllString(headerValue, -1)
	for i, m := range matches {
		matches[i] = strings.ToLower(m)
	}
	return matches
}
