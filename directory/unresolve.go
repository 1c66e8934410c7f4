// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/slackline/slackline/slack"
)

// bareRefPattern matches operator-typed references: a sigil followed
// by a name. Boundary checking (the sigil must start a word) is done
// separately because RE2 has no lookbehind.
var bareRefPattern = regexp.MustCompile(`(?i)[@#][-_.a-z0-9]+`)

// Unresolve rewrites human-readable names on a single outbound object
// back to wire identifiers, in place.
//
// A channel field holding a previously-resolved {id, name} object is
// reduced to a bare id: "@name" is treated as a direct-message lookup,
// "#name" as a channel, and an unsigiled name as a group. When the
// lookup fails the field keeps its object value — the caller treats an
// object-valued channel as not ready to send.
//
// Bare @name / #name references in the text field become the
// bracketed wire form; references that fail to resolve stay literal.
func (d *Directory) Unresolve(obj slack.Message) {
	if channel, ok := obj["channel"].(map[string]any); ok {
		if name, ok := channel["name"].(string); ok {
			// A resolved direct message reads "@peer"; the lookup
			// domain for it is the IM list, not the user list.
			ref := name
			if strings.HasPrefix(ref, "@") {
				ref = "~" + ref[1:]
			}
			if id, ok := d.conversationID(ref); ok {
				obj["channel"] = id
			}
		}
	}

	if text, ok := obj["text"].(string); ok {
		obj["text"] = d.unresolveText(text)
	}
}

// unresolveText replaces each word-initial sigiled name that resolves
// with its bracketed id form.
func (d *Directory) unresolveText(text string) string {
	matches := bareRefPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var builder strings.Builder
	last := 0
	for _, match := range matches {
		start, end := match[0], match[1]

		// The sigil must begin a word: a reference embedded in a
		// larger token (an email address, a path) is not a mention.
		if start > 0 {
			preceding, _ := utf8.DecodeLastRuneInString(text[:start])
			if isWordRune(preceding) {
				builder.WriteString(text[last:end])
				last = end
				continue
			}
		}

		sigil := text[start : start+1]
		if id, ok := d.conversationID(text[start:end]); ok {
			builder.WriteString(text[last:start])
			builder.WriteString("<" + sigil + id + ">")
		} else {
			builder.WriteString(text[last:end])
		}
		last = end
	}
	builder.WriteString(text[last:])
	return builder.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
