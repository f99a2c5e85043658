// Package payphone implements the checkout widget for the Payphone payment
// box. The box itself is a browser script; Box writes the page that loads
// it and hands it the configuration issued by the backend.
package payphone

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"

	"github.com/bluescreen10/storefront/checkout"
	"github.com/bluescreen10/storefront/render"
)

const (
	DefaultScriptURL = "https://cdn.payphonetodoesposible.com/box/v1.1/payphone-payment-box.js"
	DefaultCSSURL    = "https://cdn.payphonetodoesposible.com/box/v1.1/payphone-payment-box.css"
)

var (
	ErrNotConfigured            = errors.New("payment box is not configured")
	ErrInvalidConfig            = errors.New("payment config must be a JSON object")
	ErrMissingClientTransaction = errors.New("payment config has no clientTransactionId")
)

//go:embed templates
var templatesFS embed.FS

var pages = func() *render.Renderer {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return render.New(sub, ".html")
}()

// Box renders the Payphone payment box page to w.
type Box struct {
	w         io.Writer
	scriptURL string
	cssURL    string
	lang      string
	title     string
	config    map[string]any
}

var _ checkout.Widget = (*Box)(nil)

type config func(*Box)

// WithScriptURL sets the payment box script. (default DefaultScriptURL.)
func WithScriptURL(url string) config {
	return config(func(b *Box) {
		b.scriptURL = url
	})
}

// WithCSSURL sets the payment box stylesheet. (default DefaultCSSURL.)
func WithCSSURL(url string) config {
	return config(func(b *Box) {
		b.cssURL = url
	})
}

// WithLang sets the page language. (default "es".)
func WithLang(lang string) config {
	return config(func(b *Box) {
		b.lang = lang
	})
}

// WithTitle sets the page title. (default "Pago".)
func WithTitle(title string) config {
	return config(func(b *Box) {
		b.title = title
	})
}

// New creates a Box that writes its page to w.
func New(w io.Writer, cfgs ...config) *Box {
	b := &Box{
		w:         w,
		scriptURL: DefaultScriptURL,
		cssURL:    DefaultCSSURL,
		lang:      "es",
		title:     "Pago",
	}

	for _, cfg := range cfgs {
		cfg(b)
	}

	return b
}

// Configure stores the backend issued configuration. The configuration is
// not interpreted beyond checking that it is an object carrying a
// clientTransactionId.
func (b *Box) Configure(raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var cfg map[string]any
	if err := dec.Decode(&cfg); err != nil || cfg == nil {
		return ErrInvalidConfig
	}

	if id, _ := cfg["clientTransactionId"].(string); id == "" {
		return ErrMissingClientTransaction
	}

	b.config = cfg
	return nil
}

// Render writes the page that mounts the payment box into the element with
// the target id.
func (b *Box) Render(target string) error {
	if b.config == nil {
		return ErrNotConfigured
	}

	return pages.Render(b.w, "box", render.Vals{
		"Lang":      b.lang,
		"Title":     b.title,
		"ScriptURL": b.scriptURL,
		"CSSURL":    b.cssURL,
		"Target":    target,
		"Config":    b.config,
	})
}
