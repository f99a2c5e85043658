// Package web serves the browser side of checkout: the contact form, the
// page hosting the payment widget and the landing page the payment
// provider redirects to once the buyer is done.
//
// Routes:
//
//	GET  /                    checkout form with the cart summary
//	POST /checkout            begins a checkout and renders the widget page
//	GET  /order-confirmation  confirms the payment from the redirect query
//	GET  /healthz             liveness probe
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/bluescreen10/storefront"
	"github.com/bluescreen10/storefront/apiclient"
	"github.com/bluescreen10/storefront/cart"
	"github.com/bluescreen10/storefront/checkout"
	"github.com/bluescreen10/storefront/etag"
	"github.com/bluescreen10/storefront/logger"
	"github.com/bluescreen10/storefront/payphone"
	"github.com/bluescreen10/storefront/render"
)

//go:embed templates
var templatesFS embed.FS

// Checkout is the part of *checkout.Orchestrator the handlers drive.
type Checkout interface {
	State() checkout.State
	Reset()
	Begin(ctx context.Context, contact checkout.Contact, widget checkout.Widget) (checkout.Handshake, error)
	Confirm(ctx context.Context, params checkout.ConfirmParams) (apiclient.PaymentConfirmation, error)
}

var _ Checkout = (*checkout.Orchestrator)(nil)

// Cart is the read side of the cart shown on the checkout form.
type Cart interface {
	Items() []cart.LineItem
	Total() float64
}

var _ Cart = (*cart.Cart)(nil)

// Deps are the collaborators of the web bridge.
type Deps struct {
	Checkout Checkout
	Cart     Cart
	Sessions Sessions

	// NewWidget builds the payment widget writing to w. Defaults to a
	// payphone.Box.
	NewWidget func(w io.Writer) checkout.Widget

	// Logger receives application logs and the access log. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

type handlers struct {
	Deps
	pages *render.Renderer
}

// New returns the web bridge handler.
func New(deps Deps) http.Handler {
	if deps.NewWidget == nil {
		deps.NewWidget = func(w io.Writer) checkout.Widget { return payphone.New(w) }
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}

	h := &handlers{Deps: deps, pages: render.New(sub, ".html")}
	h.pages.Funcs(template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	})

	mux := NewServeMux()
	mux.Use(logger.New(logger.WithSlog(deps.Logger)))

	mux.Handle("GET /{$}", etag.New(etag.WithWeak(true)).Handler(http.HandlerFunc(h.form)))
	mux.HandleFunc("GET /order-confirmation", h.confirm)
	mux.HandleFunc("GET /healthz", h.healthz)

	co := mux.Group("/checkout", RequireSession(deps.Sessions))
	co.HandleFunc("POST /{$}", h.begin)

	return mux
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// form shows the cart and the contact form. A finished attempt is cleared
// so the buyer can start over.
func (h *handlers) form(w http.ResponseWriter, r *http.Request) {
	switch h.Checkout.State() {
	case checkout.Confirmed, checkout.Failed:
		h.Checkout.Reset()
	}

	h.html(w, http.StatusOK, "checkout", h.vals(r, render.Vals{
		"Title":   "Checkout",
		"Contact": checkout.Contact{},
	}))
}

// begin starts a checkout with the posted contact details. A widget page
// left open from an earlier attempt is abandoned.
func (h *handlers) begin(w http.ResponseWriter, r *http.Request) {
	var contact checkout.Contact
	if err := ParseBody(r, &contact); err != nil {
		var missing *MissingFieldsError
		if !errors.As(err, &missing) {
			h.fail(w, r, storefront.NewValidationError("body", err.Error()))
			return
		}

		fields := make(map[string]string, len(missing.Fields))
		for _, f := range missing.Fields {
			fields[f] = "is required"
		}
		h.invalid(w, r, contact, &storefront.ValidationError{Fields: fields})
		return
	}

	switch h.Checkout.State() {
	case checkout.WidgetReady, checkout.Confirmed, checkout.Failed:
		h.Checkout.Reset()
	}

	buf := &bytes.Buffer{}
	hs, err := h.Checkout.Begin(r.Context(), contact, h.NewWidget(buf))
	if err != nil {
		var verr *storefront.ValidationError
		if errors.As(err, &verr) {
			h.invalid(w, r, contact, verr)
			return
		}
		h.fail(w, r, err)
		return
	}

	h.Logger.Info("serving payment widget", "order_id", hs.OrderID)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// confirm handles the payment provider's redirect. The backend is only
// called when both identifiers are present.
func (h *handlers) confirm(w http.ResponseWriter, r *http.Request) {
	switch h.Checkout.State() {
	case checkout.Confirmed, checkout.Failed:
		h.Checkout.Reset()
	}

	q := r.URL.Query()
	res, err := h.Checkout.Confirm(r.Context(), checkout.ConfirmParams{
		ID:                  q.Get("id"),
		ClientTransactionID: q.Get("clientTransactionId"),
	})
	if err != nil && h.Checkout.State() != checkout.Confirmed {
		h.fail(w, r, err)
		return
	}
	if err != nil {
		h.Logger.Error("payment confirmed but cart was not cleared", "error", err)
	}

	w.Header().Set("Cache-Control", "no-store")
	h.html(w, http.StatusOK, "confirmation", h.vals(r, render.Vals{
		"Title":        "Pago exitoso",
		"Confirmation": res,
	}))
}

func (h *handlers) invalid(w http.ResponseWriter, r *http.Request, contact checkout.Contact, verr *storefront.ValidationError) {
	fields := verr.Fields
	if len(fields) == 0 {
		fields = map[string]string{"form": verr.Error()}
	}

	h.html(w, http.StatusBadRequest, "checkout", h.vals(r, render.Vals{
		"Title":   "Checkout",
		"Contact": contact,
		"Errors":  fields,
	}))
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, heading := classify(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusServiceUnavailable {
		level = slog.LevelError
	}
	h.Logger.Log(r.Context(), level, "request failed", "path", r.URL.Path, "status", status, "error", err)

	var abandoned *checkout.PaymentAbandonedError
	h.html(w, status, "error", h.vals(r, render.Vals{
		"Title":     heading,
		"Heading":   heading,
		"Message":   err.Error(),
		"Abandoned": errors.As(err, &abandoned),
	}))
}

// vals adds the values every page uses.
func (h *handlers) vals(r *http.Request, v render.Vals) render.Vals {
	v["Items"] = h.Cart.Items()
	v["Total"] = h.Cart.Total()
	if s, ok := h.Sessions.Current(); ok {
		user := s.User
		v["User"] = &user
	} else {
		v["User"] = nil
	}
	return v
}

func (h *handlers) html(w http.ResponseWriter, status int, name string, vals render.Vals) {
	if err := h.pages.HTML(w, status, name, vals); err != nil {
		h.Logger.Error("failed to render page", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// classify maps an error to the response status and page heading.
func classify(err error) (int, string) {
	var (
		verr      *storefront.ValidationError
		apiErr    *apiclient.APIError
		netErr    *apiclient.NetworkError
		abandoned *checkout.PaymentAbandonedError
		cfgErr    *checkout.ConfigError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "Datos inválidos"
	case errors.As(err, &abandoned), errors.As(err, &cfgErr):
		return http.StatusPaymentRequired, "Pago no completado"
	case errors.As(err, &netErr):
		return http.StatusServiceUnavailable, "Servidor no disponible"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "Error del servidor"
	case errors.Is(err, checkout.ErrInvalidTransition), errors.Is(err, checkout.ErrStaleAttempt):
		return http.StatusConflict, "Pago en curso"
	default:
		return http.StatusInternalServerError, "Error inesperado"
	}
}
