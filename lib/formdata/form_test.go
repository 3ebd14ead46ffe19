// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/formparse/lib/testutil"
)

func TestFormFieldHeaders(t *testing.T) {
	body := testutil.BuildBody("b",
		testutil.Part{Name: "note", ContentType: "text/plain; charset=utf-8", Content: []byte("first")},
		testutil.Field("plain", "p"),
		testutil.Part{Name: "note", Header: map[string]string{"X-Trace": "t2"}, Content: []byte("second")},
	)

	form := mustParse(t, body, "b", Options{Duplicates: CollectAll})
	headers := form.FieldHeader["note"]
	if len(headers) != len(form.Value["note"]) || len(headers) != 2 {
		t.Fatalf("note: %d headers for %d values, want 2 each", len(headers), len(form.Value["note"]))
	}
	if got := headers[0].Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Errorf("first note Content-Type = %q", got)
	}
	if got := headers[1].Get("X-Trace"); got != "t2" {
		t.Errorf("second note X-Trace = %q, want t2", got)
	}
	if got := form.Header("plain").Get("Content-Disposition"); got != `form-data; name="plain"` {
		t.Errorf("plain Content-Disposition = %q", got)
	}
	if form.Header("missing") != nil {
		t.Error("Header of an absent field should be nil")
	}

	form = mustParse(t, body, "b", Options{Duplicates: LastWins})
	if len(form.FieldHeader["note"]) != 1 {
		t.Fatalf("last wins: %d note headers, want 1", len(form.FieldHeader["note"]))
	}
	if form.Get("note") != "second" || form.Header("note").Get("X-Trace") != "t2" {
		t.Errorf("last wins: note = %q with headers %v, want the second part", form.Get("note"), form.Header("note"))
	}
}

func TestFormJSON(t *testing.T) {
	body := testutil.BuildBody("b",
		testutil.Part{Name: "meta", ContentType: "application/json", Content: []byte(`{"id": 7, "tags": ["a", "b"]}`)},
		testutil.Part{Name: "event", ContentType: "application/cloudevents+json; charset=utf-8", Content: []byte(`{"id": 8}`)},
		testutil.Field("bare", `{"id": 9}`),
		testutil.Part{Name: "text", ContentType: "text/plain", Content: []byte(`{"id": 10}`)},
		testutil.Part{Name: "broken", ContentType: "application/json", Content: []byte(`{"id":`)},
	)
	form := mustParse(t, body, "b", Options{})

	type record struct {
		ID   int      `json:"id"`
		Tags []string `json:"tags"`
	}
	for name, want := range map[string]int{"meta": 7, "event": 8, "bare": 9} {
		var got record
		if err := form.JSON(name, &got); err != nil {
			t.Errorf("JSON(%q): %v", name, err)
			continue
		}
		if got.ID != want {
			t.Errorf("JSON(%q).ID = %d, want %d", name, got.ID, want)
		}
	}
	var meta record
	if err := form.JSON("meta", &meta); err != nil || len(meta.Tags) != 2 {
		t.Errorf("meta tags = %v (%v), want [a b]", meta.Tags, err)
	}
	if form.Get("meta") != `{"id": 7, "tags": ["a", "b"]}` {
		t.Errorf("JSON fields must stay text values, got %q", form.Get("meta"))
	}

	var discard record
	if err := form.JSON("text", &discard); !errors.Is(err, ErrNotJSON) {
		t.Errorf("text/plain field: error = %v, want ErrNotJSON", err)
	}
	if err := form.JSON("absent", &discard); !errors.Is(err, ErrNoField) {
		t.Errorf("absent field: error = %v, want ErrNoField", err)
	}
	if err := form.JSON("broken", &discard); err == nil || errors.Is(err, ErrNotJSON) {
		t.Errorf("truncated JSON: error = %v, want a decode error", err)
	}
}
