// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"encoding/json"
	"reflect"
	"testing"
)

// parse decodes a JSON object literal into the generic tree form the
// resolver operates on.
func parse(t *testing.T, raw string) map[string]any {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return obj
}

func resolvedField(t *testing.T, obj map[string]any, key string) (id, name string) {
	t.Helper()
	field, ok := obj[key].(map[string]any)
	if !ok {
		t.Fatalf("field %q not resolved: %v", key, obj[key])
	}
	id, _ = field["id"].(string)
	name, _ = field["name"].(string)
	return id, name
}

func TestResolveFields(t *testing.T) {
	dir := Build(testSnapshot())

	t.Run("sigils per entity kind", func(t *testing.T) {
		cases := []struct {
			key      string
			id       string
			wantName string
		}{
			{"user", "U2", "@bob"},
			{"user_id", "U1", "@alice"},
			{"channel", "C1", "#general"},
			{"bot_id", "B1", "@deploybot"},
			{"team", "T1", "acme"},
		}
		for _, testCase := range cases {
			obj := map[string]any{testCase.key: testCase.id}
			if err := dir.Resolve(obj); err != nil {
				t.Fatalf("Resolve(%s=%s) failed: %v", testCase.key, testCase.id, err)
			}
			id, name := resolvedField(t, obj, testCase.key)
			if id != testCase.id || name != testCase.wantName {
				t.Errorf("%s=%s resolved to {%s, %s}, want {%s, %s}",
					testCase.key, testCase.id, id, name, testCase.id, testCase.wantName)
			}
		}
	})

	t.Run("direct message resolves to peer name", func(t *testing.T) {
		obj := map[string]any{"channel": "D1"}
		if err := dir.Resolve(obj); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		id, name := resolvedField(t, obj, "channel")
		if id != "D1" || name != "@bob" {
			t.Errorf("direct message resolved to {%s, %s}, want {D1, @bob}", id, name)
		}
	})

	t.Run("unknown id left as bare string", func(t *testing.T) {
		obj := map[string]any{"user": "U404"}
		if err := dir.Resolve(obj); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if obj["user"] != "U404" {
			t.Errorf("unknown id mutated: %v", obj["user"])
		}
	})

	t.Run("unrecognized keys untouched", func(t *testing.T) {
		obj := map[string]any{"creator": "U1"}
		if err := dir.Resolve(obj); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if obj["creator"] != "U1" {
			t.Errorf("unrecognized key rewritten: %v", obj["creator"])
		}
	})

	t.Run("nested objects and arrays visited", func(t *testing.T) {
		obj := parse(t, `{"type":"message","attachments":[{"user":"U2"}],"edited":{"user":"U1"}}`)
		if err := dir.Resolve(obj); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		attachment := obj["attachments"].([]any)[0].(map[string]any)
		if _, name := resolvedField(t, attachment, "user"); name != "@bob" {
			t.Errorf("array element not resolved: %v", attachment)
		}
		edited := obj["edited"].(map[string]any)
		if _, name := resolvedField(t, edited, "user"); name != "@alice" {
			t.Errorf("nested object not resolved: %v", edited)
		}
	})
}

func TestResolveText(t *testing.T) {
	dir := Build(testSnapshot())

	t.Run("bracketed references", func(t *testing.T) {
		obj := map[string]any{"text": "hi <@U1>, see <#C1|general> and <@U2>"}
		if err := dir.Resolve(obj); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if obj["text"] != "hi @alice, see #general and @bob" {
			t.Errorf("unexpected text: %q", obj["text"])
		}
	})

	t.Run("unknown reference aborts the message", func(t *testing.T) {
		obj := map[string]any{"text": "hi <@U404>"}
		if err := dir.Resolve(obj); err == nil {
			t.Fatal("expected error for unknown text reference")
		}
	})

	t.Run("de-escaping", func(t *testing.T) {
		obj := map[string]any{"text": "a \x08&lt;tag&gt; &amp; more", "extra": "x&amp;y"}
		if err := dir.Resolve(obj); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if obj["text"] != "a <tag> & more" {
			t.Errorf("text not de-escaped: %q", obj["text"])
		}
		if obj["extra"] != "x&y" {
			t.Errorf("non-text string field not de-escaped: %q", obj["extra"])
		}
	})

	t.Run("escaped literal does not become a reference", func(t *testing.T) {
		obj := map[string]any{"text": "&lt;@U1&gt;"}
		if err := dir.Resolve(obj); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if obj["text"] != "<@U1>" {
			t.Errorf("unexpected text: %q", obj["text"])
		}
	})
}

func TestResolveEndToEndShape(t *testing.T) {
	// The full inbound transformation from the wire frame to the local
	// output object.
	dir := Build(testSnapshot())
	obj := parse(t, `{"type":"message","channel":"C1","user":"U1","text":"hi <@U1>"}`)
	if err := dir.Resolve(obj); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := map[string]any{
		"type":    "message",
		"channel": map[string]any{"id": "C1", "name": "#general"},
		"user":    map[string]any{"id": "U1", "name": "@alice"},
		"text":    "hi @alice",
	}
	if !reflect.DeepEqual(obj, want) {
		t.Errorf("resolved object mismatch:\n got %v\nwant %v", obj, want)
	}
}

func TestUnresolveChannel(t *testing.T) {
	dir := Build(testSnapshot())

	cases := []struct {
		name   string
		field  map[string]any
		wantID string
	}{
		{"channel by # name", map[string]any{"id": "C1", "name": "#general"}, "C1"},
		{"direct message by @ name", map[string]any{"id": "D1", "name": "@bob"}, "D1"},
		{"group by bare name", map[string]any{"id": "G1", "name": "secret"}, "G1"},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			obj := map[string]any{"type": "message", "channel": testCase.field}
			dir.Unresolve(obj)
			if obj["channel"] != testCase.wantID {
				t.Errorf("channel unresolved to %v, want %s", obj["channel"], testCase.wantID)
			}
		})
	}

	t.Run("unknown name leaves the object value", func(t *testing.T) {
		field := map[string]any{"id": "", "name": "#nowhere"}
		obj := map[string]any{"type": "message", "channel": field}
		dir.Unresolve(obj)
		if _, stillObject := obj["channel"].(map[string]any); !stillObject {
			t.Errorf("failed lookup should leave the object value, got %v", obj["channel"])
		}
	})
}

func TestUnresolveText(t *testing.T) {
	dir := Build(testSnapshot())

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"channel reference", "hello #general", "hello <#C1>"},
		{"user reference", "ping @bob now", "ping <@U2> now"},
		{"unknown name stays literal", "see #nowhere", "see #nowhere"},
		{"email not rewritten", "mail alice@general please", "mail alice@general please"},
		{"reference at start", "@alice hi", "<@U1> hi"},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			obj := map[string]any{"type": "message", "text": testCase.in}
			dir.Unresolve(obj)
			if obj["text"] != testCase.want {
				t.Errorf("unresolved text %q, want %q", obj["text"], testCase.want)
			}
		})
	}
}

func TestResolveUnresolveTextRoundTrip(t *testing.T) {
	dir := Build(testSnapshot())

	// Inbound bracketed ids become names; typing those names back
	// produces the bracketed form again.
	obj := map[string]any{"text": "see <#C1> and <@U2>"}
	if err := dir.Resolve(obj); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if obj["text"] != "see #general and @bob" {
		t.Fatalf("unexpected resolved text: %q", obj["text"])
	}

	dir.Unresolve(obj)
	if obj["text"] != "see <#C1> and <@U2>" {
		t.Errorf("round trip produced %q", obj["text"])
	}
}
