package payphone_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/bluescreen10/storefront/payphone"
)

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	box := payphone.New(&buf, payphone.WithScriptURL("https://cdn.test/box.js"), payphone.WithLang("en"))

	err := box.Configure(json.RawMessage(`{"clientTransactionId":"abc","amount":2500,"reference":"</script><script>alert(1)</script>"}`))
	if err != nil {
		t.Fatal(err)
	}

	if err := box.Render("pp-button"); err != nil {
		t.Fatal(err)
	}

	page := buf.String()
	for _, want := range []string{
		`<html lang="en">`,
		`<script src="https://cdn.test/box.js" defer></script>`,
		`href="` + payphone.DefaultCSSURL + `"`,
		`<div id="pp-button"></div>`,
		`"clientTransactionId":"abc"`,
		`"amount":2500`,
		`.render("pp-button")`,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("expected page to contain '%s' got:\n%s", want, page)
		}
	}

	if strings.Contains(page, "</script><script>alert(1)") {
		t.Fatal("config must be escaped inside the script block")
	}
}

func TestConfigureRejects(t *testing.T) {
	tests := map[string]struct {
		raw string
		err error
	}{
		"array":        {`[1,2]`, payphone.ErrInvalidConfig},
		"null":         {`null`, payphone.ErrInvalidConfig},
		"garbage":      {`{`, payphone.ErrInvalidConfig},
		"no client id": {`{"amount":1}`, payphone.ErrMissingClientTransaction},
		"empty id":     {`{"clientTransactionId":""}`, payphone.ErrMissingClientTransaction},
		"numeric id":   {`{"clientTransactionId":12}`, payphone.ErrMissingClientTransaction},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			box := payphone.New(&bytes.Buffer{})
			if err := box.Configure(json.RawMessage(tt.raw)); !errors.Is(err, tt.err) {
				t.Fatalf("expected '%v' got '%v'", tt.err, err)
			}
		})
	}
}

func TestRenderWithoutConfig(t *testing.T) {
	var buf bytes.Buffer
	box := payphone.New(&buf)

	if err := box.Render("pp-button"); !errors.Is(err, payphone.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured got '%v'", err)
	}
	if buf.Len() != 0 {
		t.Fatal("expected nothing written")
	}
}
