package prompt

import (
	"regexp"
	"strings"
)

// Variables are the values substituted into a prompt template.
type Variables struct {
	Diff   string
	Files  string
	Branch string
	Lang   string
}

// Build replaces every {diff}, {files}, {branch} and {lang} in template.
// Other {...} tokens are left alone, and values are inserted verbatim in a
// single pass: a diff that itself contains "{branch}" keeps that text.
func Build(template string, v Variables) string {
	return strings.NewReplacer(
		"{diff}", v.Diff,
		"{files}", v.Files,
		"{branch}", v.Branch,
		"{lang}", v.Lang,
	).Replace(template)
}

var reTextBlock = regexp.MustCompile("(?ms)^```(?:\\w+)?\\s*([\\s\\S]+?)\\s*```$")

// ExtractOneTextCodeBlock returns the content of s when s is exactly one
// fenced code block. Otherwise it returns s trimmed and false.
func ExtractOneTextCodeBlock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	m := reTextBlock.FindStringSubmatch(s)
	if len(m) == 2 {
		return strings.TrimSpace(m[1]), true
	}
	return s, false
}
