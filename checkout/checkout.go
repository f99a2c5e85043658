// Package checkout drives a purchase from the contact form to the
// confirmed order.
//
// An Orchestrator walks through Idle, AwaitingConfig, WidgetReady,
// Confirming and finally Confirmed or Failed. Begin asks the backend for a
// payment configuration and hands it to a Widget; the charge itself happens
// outside this process. Confirm is driven by the redirect the payment
// provider sends back and is the only step that clears the cart.
//
// Usage:
//
//	o := checkout.New(api, shoppingCart)
//
//	_, err := o.Begin(ctx, checkout.Contact{
//	    FullName:   "Ann Reader",
//	    Email:      "ann@example.com",
//	    Phone:      "+593999999999",
//	    DocumentID: "1712345678",
//	}, payphone.New(w))
//
//	// later, from the redirect query string
//	conf, err := o.Confirm(ctx, checkout.ConfirmParams{
//	    ID:                  r.URL.Query().Get("id"),
//	    ClientTransactionID: r.URL.Query().Get("clientTransactionId"),
//	})
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/bluescreen10/storefront"
	"github.com/bluescreen10/storefront/apiclient"
	"github.com/bluescreen10/storefront/cart"
)

// DefaultMountPoint is the element id the payment widget renders into.
const DefaultMountPoint = "pp-button"

// State is the step a checkout attempt is in.
type State int

const (
	Idle State = iota
	AwaitingConfig
	WidgetReady
	Confirming
	Confirmed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingConfig:
		return "awaiting-config"
	case WidgetReady:
		return "widget-ready"
	case Confirming:
		return "confirming"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Widget is the external payment widget. It receives the backend issued
// configuration verbatim and renders itself into a mount point.
type Widget interface {
	Configure(config json.RawMessage) error
	Render(target string) error
}

// PaymentAPI is the part of the API client the orchestrator needs.
type PaymentAPI interface {
	PaymentConfig(ctx context.Context, in apiclient.PaymentConfigRequest) (apiclient.PaymentConfigResponse, error)
	ConfirmPayment(ctx context.Context, id int64, clientTransactionID string) (apiclient.PaymentConfirmation, error)
}

var _ PaymentAPI = (*apiclient.Client)(nil)

// Cart is the part of the cart the orchestrator needs.
type Cart interface {
	Items() []cart.LineItem
	Clear() error
}

var _ Cart = (*cart.Cart)(nil)

// Contact holds the buyer details the payment provider requires.
type Contact struct {
	FullName   string `form:"fullName,required"`
	Email      string `form:"email,required"`
	Phone      string `form:"phone,required"`
	DocumentID string `form:"documentId,required"`
}

// Validate checks that every field is set, the email looks like one and
// the phone carries a country code prefix. All problems are reported
// together.
func (c Contact) Validate() error {
	fields := map[string]string{}

	required := map[string]string{
		"fullName":   c.FullName,
		"email":      c.Email,
		"phone":      c.Phone,
		"documentId": c.DocumentID,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			fields[name] = "is required"
		}
	}

	if _, ok := fields["email"]; !ok && !strings.Contains(c.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if _, ok := fields["phone"]; !ok && !strings.HasPrefix(strings.TrimSpace(c.Phone), "+") {
		fields["phone"] = "must start with the country code, e.g. +593"
	}

	if len(fields) == 0 {
		return nil
	}
	return &storefront.ValidationError{Fields: fields}
}

// Handshake is the transient state of one payment attempt.
type Handshake struct {
	OrderID             string
	ClientTransactionID string
	Config              json.RawMessage
	ResponseURL         string

	// TransactionID is assigned by the payment provider and known only
	// once the confirmation redirect arrives.
	TransactionID int64
}

// ConfirmParams are the raw identifiers carried by the confirmation
// redirect.
type ConfirmParams struct {
	ID                  string
	ClientTransactionID string
}

// Orchestrator runs checkout attempts one at a time. It is safe for
// concurrent use.
type Orchestrator struct {
	api        PaymentAPI
	cart       Cart
	logger     *slog.Logger
	mountPoint string

	mu        sync.Mutex
	state     State
	err       error
	handshake Handshake
	attempt   uint64
}

type config func(*Orchestrator)

// WithLogger sets the logger. (default slog.Default().)
func WithLogger(logger *slog.Logger) config {
	return config(func(o *Orchestrator) {
		o.logger = logger
	})
}

// WithMountPoint sets the element id the widget renders into.
// (default "pp-button".)
func WithMountPoint(id string) config {
	return config(func(o *Orchestrator) {
		o.mountPoint = id
	})
}

// New creates an Orchestrator in the Idle state.
func New(api PaymentAPI, c Cart, cfgs ...config) *Orchestrator {
	o := &Orchestrator{
		api:        api,
		cart:       c,
		logger:     slog.Default(),
		mountPoint: DefaultMountPoint,
	}

	for _, cfg := range cfgs {
		cfg(o)
	}

	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err returns the error that moved the attempt to Failed, or nil.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Handshake returns the current payment handshake.
func (o *Orchestrator) Handshake() Handshake {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handshake
}

// Reset abandons the current attempt and returns to Idle. Backend calls
// still in flight for the abandoned attempt return ErrStaleAttempt and do
// not touch the state or the cart.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.attempt++
	o.state = Idle
	o.err = nil
	o.handshake = Handshake{}
}

// Begin starts a payment attempt. The contact details and the cart are
// checked before any network call; a failure there returns a
// *storefront.ValidationError and leaves the state Idle. The cart is read
// at the moment of the call. On success the widget has been configured and
// rendered and the state is WidgetReady.
func (o *Orchestrator) Begin(ctx context.Context, contact Contact, widget Widget) (Handshake, error) {
	o.mu.Lock()
	if o.state != Idle {
		defer o.mu.Unlock()
		return Handshake{}, invalidTransition("begin checkout", o.state)
	}

	if err := contact.Validate(); err != nil {
		o.mu.Unlock()
		return Handshake{}, err
	}

	items := o.cart.Items()
	if len(items) == 0 {
		o.mu.Unlock()
		return Handshake{}, storefront.NewValidationError("cart", "cart is empty")
	}

	o.attempt++
	attempt := o.attempt
	o.state = AwaitingConfig
	o.mu.Unlock()

	req := apiclient.PaymentConfigRequest{
		Products:    make([]apiclient.PaymentProduct, 0, len(items)),
		Email:       strings.TrimSpace(contact.Email),
		PhoneNumber: strings.TrimSpace(contact.Phone),
		DocumentID:  strings.TrimSpace(contact.DocumentID),
	}
	for _, item := range items {
		req.Products = append(req.Products, apiclient.PaymentProduct{ProductID: item.ID, Quantity: item.Quantity})
	}

	o.logger.Info("requesting payment config", "lines", len(items), "attempt", attempt)
	res, err := o.api.PaymentConfig(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()

	if attempt != o.attempt {
		o.logger.Info("dropping payment config of abandoned attempt", "attempt", attempt)
		return Handshake{}, ErrStaleAttempt
	}

	if err != nil {
		return Handshake{}, o.fail(err)
	}
	if !res.Success {
		return Handshake{}, o.fail(&ConfigError{Message: res.Message})
	}

	hs := Handshake{
		OrderID:             res.OrderID,
		ClientTransactionID: clientTransactionID(res.Config),
		Config:              res.Config,
		ResponseURL:         res.ResponseURL,
	}

	if err := widget.Configure(res.Config); err != nil {
		return Handshake{}, o.fail(fmt.Errorf("failed to configure payment widget: %w", err))
	}
	if err := widget.Render(o.mountPoint); err != nil {
		return Handshake{}, o.fail(fmt.Errorf("failed to render payment widget: %w", err))
	}

	o.handshake = hs
	o.state = WidgetReady
	o.logger.Info("payment widget ready", "order_id", hs.OrderID, "client_transaction_id", hs.ClientTransactionID)
	return hs, nil
}

// Confirm finalizes the attempt from the identifiers of the confirmation
// redirect. It is allowed from WidgetReady and from Idle, since the
// redirect may land on a process that never ran Begin.
//
// Missing or malformed identifiers fail the attempt with a
// *PaymentAbandonedError without calling the backend. A backend error is
// returned verbatim; a backend that reports the payment as unsuccessful
// yields a *PaymentAbandonedError carrying its message. In both cases the
// cart is untouched. Only a successful confirmation clears the cart.
func (o *Orchestrator) Confirm(ctx context.Context, params ConfirmParams) (apiclient.PaymentConfirmation, error) {
	o.mu.Lock()
	if o.state != Idle && o.state != WidgetReady {
		defer o.mu.Unlock()
		return apiclient.PaymentConfirmation{}, invalidTransition("confirm payment", o.state)
	}

	rawID := strings.TrimSpace(params.ID)
	clientTxID := strings.TrimSpace(params.ClientTransactionID)
	if rawID == "" || clientTxID == "" {
		defer o.mu.Unlock()
		return apiclient.PaymentConfirmation{}, o.fail(&PaymentAbandonedError{Message: MsgParamsNotFound})
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		defer o.mu.Unlock()
		return apiclient.PaymentConfirmation{}, o.fail(&PaymentAbandonedError{Message: "invalid transaction id '" + rawID + "'"})
	}

	o.attempt++
	attempt := o.attempt
	o.state = Confirming
	o.handshake.TransactionID = id
	if o.handshake.ClientTransactionID == "" {
		o.handshake.ClientTransactionID = clientTxID
	} else if o.handshake.ClientTransactionID != clientTxID {
		o.logger.Warn("confirmation does not match the started payment",
			"expected", o.handshake.ClientTransactionID, "got", clientTxID)
	}
	o.mu.Unlock()

	o.logger.Info("confirming payment", "transaction_id", id, "client_transaction_id", clientTxID, "attempt", attempt)
	res, err := o.api.ConfirmPayment(ctx, id, clientTxID)

	o.mu.Lock()
	defer o.mu.Unlock()

	if attempt != o.attempt {
		o.logger.Info("dropping confirmation of abandoned attempt", "attempt", attempt)
		return apiclient.PaymentConfirmation{}, ErrStaleAttempt
	}

	if err != nil {
		return apiclient.PaymentConfirmation{}, o.fail(err)
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "payment was not approved"
		}
		return res, o.fail(&PaymentAbandonedError{Message: msg})
	}

	o.state = Confirmed
	o.logger.Info("payment confirmed", "transaction_id", id)

	if err := o.cart.Clear(); err != nil {
		o.logger.Error("payment confirmed but the cart could not be cleared", "err", err)
		return res, fmt.Errorf("payment confirmed but the cart could not be cleared: %w", err)
	}
	return res, nil
}

// fail moves to Failed and records err. o.mu must be held.
func (o *Orchestrator) fail(err error) error {
	o.state = Failed
	o.err = err
	o.logger.Warn("checkout failed", "err", err)
	return err
}

// clientTransactionID extracts the merchant transaction id from the opaque
// widget configuration, if present.
func clientTransactionID(config json.RawMessage) string {
	var v struct {
		ClientTransactionID string `json:"clientTransactionId"`
	}
	if err := json.Unmarshal(config, &v); err != nil {
		return ""
	}
	return v.ClientTransactionID
}
