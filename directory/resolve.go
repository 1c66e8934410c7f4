// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/slackline/slackline/slack"
)

// resolvedKeys are the object fields whose string values are treated
// as entity ids on the inbound path.
var resolvedKeys = []string{"user", "user_id", "channel", "bot_id", "team"}

// textRefPattern matches the wire form of an embedded reference:
// <@U123>, <#C123>, or the labeled variant <#C123|general>.
var textRefPattern = regexp.MustCompile(`<([@#])([A-Z0-9]+)(\|[^>]+)?>`)

// unescaper reverses the wire escaping of message text and strips
// backspace control characters.
var unescaper = strings.NewReplacer(
	"\x08", "",
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
)

// Resolve rewrites wire identifiers in a decoded JSON tree to
// human-readable names, in place. Every object and array reachable
// from value is visited in pre-order.
//
// Recognized id fields become {id, name} objects — the id is kept
// alongside the name so the outbound path can round-trip it. An id
// absent from the index leaves the field as a bare string. An unknown
// id inside a text reference is different: it aborts this message with
// an error, and the caller drops the message.
func (d *Directory) Resolve(value any) error {
	switch node := value.(type) {
	case map[string]any:
		if err := d.resolveObject(node); err != nil {
			return err
		}
		for _, child := range node {
			if err := d.Resolve(child); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range node {
			if err := d.Resolve(child); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Directory) resolveObject(node map[string]any) error {
	for _, key := range resolvedKeys {
		id, ok := node[key].(string)
		if !ok {
			continue
		}
		entity, found := d.byID[id]
		if !found {
			continue
		}
		name, ok := d.displayName(entity)
		if !ok {
			continue
		}
		node[key] = map[string]any{"id": id, "name": name}
	}

	if text, ok := node["text"].(string); ok {
		resolved, err := d.resolveTextRefs(text)
		if err != nil {
			return err
		}
		node["text"] = resolved
	}

	// De-escape every remaining string field. This runs after the
	// reference substitutions so that escaped literals (&lt;) cannot
	// turn into reference syntax.
	for key, value := range node {
		if s, ok := value.(string); ok {
			node[key] = unescaper.Replace(s)
		}
	}
	return nil
}

// displayName computes the sigiled name for an entity: # for
// channels, @ plus the peer's name for direct messages, @ for users
// and bots, and the raw name otherwise (groups, the team). A
// direct message whose peer is missing from the index reports not-ok
// and the caller leaves the bare id in place.
func (d *Directory) displayName(entity slack.Entity) (string, bool) {
	switch {
	case entity.IsChannel:
		return "#" + entity.Name, true
	case entity.IsIM:
		peer, ok := d.byID[entity.User]
		if !ok {
			return "", false
		}
		return "@" + peer.Name, true
	case entity.IsBot != nil || strings.HasPrefix(entity.ID, "U") || strings.HasPrefix(entity.ID, "B"):
		return "@" + entity.Name, true
	default:
		return entity.Name, true
	}
}

// resolveTextRefs rewrites <@ID> and <#ID> references to sigiled
// names. Unlike field resolution, an id missing from the index here is
// an error for the whole message.
func (d *Directory) resolveTextRefs(text string) (string, error) {
	var refErr error
	resolved := textRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := textRefPattern.FindStringSubmatch(match)
		sigil, id := groups[1], groups[2]
		entity, ok := d.byID[id]
		if !ok {
			if refErr == nil {
				refErr = fmt.Errorf("directory: text reference to unknown id %q", id)
			}
			return match
		}
		return sigil + entity.Name
	})
	if refErr != nil {
		return text, refErr
	}
	return resolved, nil
}
