package normalize

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// convertHTML converts any remaining HTML markup to Markdown. It is
// effectively idempotent on plain text; a conversion error keeps the
// pre-stage text per the pipeline contract.
func convertHTML(text string) (string, error) {
	out, err := htmltomarkdown.ConvertString(strings.TrimSpace(text))
	if err != nil {
		return "", err
	}
	return out, nil
}
