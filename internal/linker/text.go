package linker

import (
	"errors"
	"html"
	"io"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// HighlightOpen and HighlightClose wrap highlighted mentions.
const (
	HighlightOpen  = `<span style="background-color:yellow;">`
	HighlightClose = `</span>`
)

// blockElements end a line of extracted text.
var blockElements = map[string]bool{
	"p": true, "title": true, "br": true, "div": true, "h1": true, "h2": true, "h3": true,
}

// ExtractText reduces OCR XML or HTML to plain text. Text of block-level
// elements is placed on separate lines; scripts and styles are dropped.
func ExtractText(r io.Reader) (string, error) {
	z := xhtml.NewTokenizer(r)

	var (
		b    strings.Builder
		skip int
	)
	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.TrimSpace(b.String()), nil
			}
			return "", z.Err()
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				skip++
			case blockElements[tag]:
				newline()
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				if skip > 0 {
					skip--
				}
			case blockElements[tag]:
				newline()
			}
		case xhtml.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.Join(strings.Fields(string(z.Text())), " ")
			if text == "" {
				continue
			}
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
	}
}

// Highlight HTML-escapes text and wraps every standalone occurrence of ne
// in a highlight span. An occurrence is standalone when it is not directly
// preceded or followed by a letter, digit or underscore. Both strings are
// NFC-normalized first so composed and decomposed accents match.
func Highlight(text, ne string) string {
	text = html.EscapeString(norm.NFC.String(text))
	ne = strings.TrimSpace(ne)
	if ne == "" {
		return text
	}
	ne = html.EscapeString(norm.NFC.String(ne))

	re := regexp.MustCompile(`(^|[^\p{L}\p{N}_])(` + regexp.QuoteMeta(ne) + `)([^\p{L}\p{N}_]|$)`)
	return re.ReplaceAllString(text, "${1}"+HighlightOpen+"${2}"+HighlightClose+"${3}")
}
