package checkout_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/bluescreen10/storefront"
	"github.com/bluescreen10/storefront/apiclient"
	"github.com/bluescreen10/storefront/cart"
	"github.com/bluescreen10/storefront/checkout"
	"github.com/bluescreen10/storefront/memstore"
)

const bookID = "64b7f0c2a1b2c3d4e5f60718"

type mockapi struct {
	config  func(apiclient.PaymentConfigRequest) (apiclient.PaymentConfigResponse, error)
	confirm func(int64, string) (apiclient.PaymentConfirmation, error)
	calls   int
}

func (a *mockapi) PaymentConfig(_ context.Context, in apiclient.PaymentConfigRequest) (apiclient.PaymentConfigResponse, error) {
	a.calls++
	return a.config(in)
}

func (a *mockapi) ConfirmPayment(_ context.Context, id int64, clientTxID string) (apiclient.PaymentConfirmation, error) {
	a.calls++
	return a.confirm(id, clientTxID)
}

var _ checkout.PaymentAPI = &mockapi{}

type mockwidget struct {
	config json.RawMessage
	target string
	err    error
}

func (w *mockwidget) Configure(config json.RawMessage) error {
	w.config = config
	return w.err
}

func (w *mockwidget) Render(target string) error {
	w.target = target
	return nil
}

var _ checkout.Widget = &mockwidget{}

var (
	quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	contact     = checkout.Contact{FullName: "Ann Reader", Email: "ann@example.com", Phone: "+593999999999", DocumentID: "1712345678"}
)

func newCart(t *testing.T, ids ...string) *cart.Cart {
	t.Helper()
	c := cart.New(memstore.New(), cart.WithLogger(quietLogger))
	for _, id := range ids {
		if err := c.AddItem(cart.LineItem{ID: id, Title: "Book", Price: 10}); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

func okConfig(apiclient.PaymentConfigRequest) (apiclient.PaymentConfigResponse, error) {
	return apiclient.PaymentConfigResponse{
		Success:     true,
		OrderID:     "o1",
		Config:      json.RawMessage(`{"clientTransactionId":"abc","amount":2000}`),
		ResponseURL: "http://shop.test/order-confirmation",
	}, nil
}

func TestBeginEmptyCartMakesNoCall(t *testing.T) {
	api := &mockapi{}
	o := checkout.New(api, newCart(t), checkout.WithLogger(quietLogger))

	_, err := o.Begin(context.Background(), contact, &mockwidget{})

	var valErr *storefront.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError got '%v'", err)
	}
	if api.calls != 0 {
		t.Fatalf("expected no backend call got %d", api.calls)
	}
	if o.State() != checkout.Idle {
		t.Fatalf("expected state 'idle' got '%s'", o.State())
	}
}

func TestBeginInvalidContact(t *testing.T) {
	tests := map[string]struct {
		contact checkout.Contact
		field   string
	}{
		"missing name":  {checkout.Contact{Email: "a@b.c", Phone: "+1", DocumentID: "1"}, "fullName"},
		"blank email":   {checkout.Contact{FullName: "A", Email: "  ", Phone: "+1", DocumentID: "1"}, "email"},
		"bad email":     {checkout.Contact{FullName: "A", Email: "ab.c", Phone: "+1", DocumentID: "1"}, "email"},
		"no prefix":     {checkout.Contact{FullName: "A", Email: "a@b.c", Phone: "0999", DocumentID: "1"}, "phone"},
		"missing docid": {checkout.Contact{FullName: "A", Email: "a@b.c", Phone: "+1"}, "documentId"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			api := &mockapi{}
			o := checkout.New(api, newCart(t, bookID), checkout.WithLogger(quietLogger))

			_, err := o.Begin(context.Background(), tt.contact, &mockwidget{})

			var valErr *storefront.ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected *ValidationError got '%v'", err)
			}
			if _, ok := valErr.Fields[tt.field]; !ok {
				t.Fatalf("expected field '%s' in %v", tt.field, valErr.Fields)
			}
			if api.calls != 0 || o.State() != checkout.Idle {
				t.Fatal("expected no call and idle state")
			}
		})
	}
}

func TestBeginSuccess(t *testing.T) {
	var sent apiclient.PaymentConfigRequest
	api := &mockapi{config: func(in apiclient.PaymentConfigRequest) (apiclient.PaymentConfigResponse, error) {
		sent = in
		return okConfig(in)
	}}
	c := newCart(t, bookID, bookID)
	w := &mockwidget{}
	o := checkout.New(api, c, checkout.WithLogger(quietLogger), checkout.WithMountPoint("pay-here"))

	hs, err := o.Begin(context.Background(), contact, w)
	if err != nil {
		t.Fatal(err)
	}

	if len(sent.Products) != 1 || sent.Products[0].ProductID != bookID || sent.Products[0].Quantity != 2 {
		t.Fatalf("unexpected products %+v", sent.Products)
	}
	if sent.Email != contact.Email || sent.PhoneNumber != contact.Phone || sent.DocumentID != contact.DocumentID {
		t.Fatalf("unexpected contact %+v", sent)
	}

	if string(w.config) != `{"clientTransactionId":"abc","amount":2000}` {
		t.Fatalf("expected config handed over verbatim got '%s'", w.config)
	}
	if w.target != "pay-here" {
		t.Fatalf("expected mount point 'pay-here' got '%s'", w.target)
	}

	if hs.ClientTransactionID != "abc" || hs.OrderID != "o1" {
		t.Fatalf("unexpected handshake %+v", hs)
	}
	if o.State() != checkout.WidgetReady {
		t.Fatalf("expected state 'widget-ready' got '%s'", o.State())
	}
	if c.IsEmpty() {
		t.Fatal("cart must not be cleared before confirmation")
	}
}

func TestBeginReadsCartAtCallTime(t *testing.T) {
	var sent apiclient.PaymentConfigRequest
	api := &mockapi{config: func(in apiclient.PaymentConfigRequest) (apiclient.PaymentConfigResponse, error) {
		sent = in
		return okConfig(in)
	}}
	c := newCart(t)
	o := checkout.New(api, c, checkout.WithLogger(quietLogger))

	c.AddItem(cart.LineItem{ID: bookID, Price: 1})
	o.Begin(context.Background(), contact, &mockwidget{})

	if len(sent.Products) != 1 {
		t.Fatalf("expected the item added before Begin to be sent got %+v", sent.Products)
	}
}

func TestBeginBackendFailure(t *testing.T) {
	apiErr := &apiclient.APIError{StatusCode: 400, Message: "Invalid products"}
	api := &mockapi{config: func(apiclient.PaymentConfigRequest) (apiclient.PaymentConfigResponse, error) {
		return apiclient.PaymentConfigResponse{}, apiErr
	}}
	o := checkout.New(api, newCart(t, bookID), checkout.WithLogger(quietLogger))

	_, err := o.Begin(context.Background(), contact, &mockwidget{})
	if !errors.Is(err, apiErr) {
		t.Fatalf("expected api error verbatim got '%v'", err)
	}
	if o.State() != checkout.Failed || !errors.Is(o.Err(), apiErr) {
		t.Fatalf("expected failed state got '%s' (%v)", o.State(), o.Err())
	}

	// Failed is terminal until Reset.
	if _, err := o.Begin(context.Background(), contact, &mockwidget{}); !errors.Is(err, checkout.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got '%v'", err)
	}

	o.Reset()
	if o.State() != checkout.Idle || o.Err() != nil {
		t.Fatal("expected idle state after reset")
	}
}

func TestBeginConfigRefused(t *testing.T) {
	api := &mockapi{config: func(apiclient.PaymentConfigRequest) (apiclient.PaymentConfigResponse, error) {
		return apiclient.PaymentConfigResponse{Success: false, Message: "out of stock"}, nil
	}}
	w := &mockwidget{}
	o := checkout.New(api, newCart(t, bookID), checkout.WithLogger(quietLogger))

	_, err := o.Begin(context.Background(), contact, w)

	var cfgErr *checkout.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Message != "out of stock" {
		t.Fatalf("expected *ConfigError got '%v'", err)
	}
	if w.config != nil {
		t.Fatal("widget must not be configured")
	}
	if o.State() != checkout.Failed {
		t.Fatalf("expected state 'failed' got '%s'", o.State())
	}
}

func TestBeginWidgetFailure(t *testing.T) {
	api := &mockapi{config: okConfig}
	o := checkout.New(api, newCart(t, bookID), checkout.WithLogger(quietLogger))

	widgetErr := errors.New("script not loaded")
	if _, err := o.Begin(context.Background(), contact, &mockwidget{err: widgetErr}); !errors.Is(err, widgetErr) {
		t.Fatalf("expected widget error got '%v'", err)
	}
	if o.State() != checkout.Failed {
		t.Fatalf("expected state 'failed' got '%s'", o.State())
	}
}

func TestConfirmSuccessClearsCart(t *testing.T) {
	var gotID int64
	var gotClientTx string
	api := &mockapi{
		config: okConfig,
		confirm: func(id int64, clientTx string) (apiclient.PaymentConfirmation, error) {
			gotID, gotClientTx = id, clientTx
			return apiclient.PaymentConfirmation{Success: true, Order: &apiclient.ConfirmedOrder{ID: "o1"}}, nil
		},
	}
	c := newCart(t, bookID)
	o := checkout.New(api, c, checkout.WithLogger(quietLogger))
	o.Begin(context.Background(), contact, &mockwidget{})

	conf, err := o.Confirm(context.Background(), checkout.ConfirmParams{ID: "123", ClientTransactionID: "abc"})
	if err != nil {
		t.Fatal(err)
	}

	if gotID != 123 || gotClientTx != "abc" {
		t.Fatalf("expected (123, abc) got (%d, %s)", gotID, gotClientTx)
	}
	if !conf.Success || conf.Order.ID != "o1" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
	if !c.IsEmpty() {
		t.Fatal("expected cart to be cleared")
	}
	if o.State() != checkout.Confirmed {
		t.Fatalf("expected state 'confirmed' got '%s'", o.State())
	}
	if o.Handshake().TransactionID != 123 {
		t.Fatalf("expected transaction id recorded got %d", o.Handshake().TransactionID)
	}
}

func TestConfirmFromFreshProcess(t *testing.T) {
	api := &mockapi{confirm: func(int64, string) (apiclient.PaymentConfirmation, error) {
		return apiclient.PaymentConfirmation{Success: true}, nil
	}}
	c := newCart(t, bookID)
	o := checkout.New(api, c, checkout.WithLogger(quietLogger))

	if _, err := o.Confirm(context.Background(), checkout.ConfirmParams{ID: "123", ClientTransactionID: "abc"}); err != nil {
		t.Fatal(err)
	}
	if o.State() != checkout.Confirmed || !c.IsEmpty() {
		t.Fatal("expected confirmed state and empty cart")
	}
}

func TestConfirmDeclined(t *testing.T) {
	api := &mockapi{confirm: func(int64, string) (apiclient.PaymentConfirmation, error) {
		return apiclient.PaymentConfirmation{Success: false, Message: "declined"}, nil
	}}
	c := newCart(t, bookID)
	o := checkout.New(api, c, checkout.WithLogger(quietLogger))

	_, err := o.Confirm(context.Background(), checkout.ConfirmParams{ID: "123", ClientTransactionID: "abc"})

	var abandoned *checkout.PaymentAbandonedError
	if !errors.As(err, &abandoned) || abandoned.Message != "declined" {
		t.Fatalf("expected abandoned with 'declined' got '%v'", err)
	}
	if o.State() != checkout.Failed || o.Err().Error() != "declined" {
		t.Fatalf("expected failed with 'declined' got '%s' (%v)", o.State(), o.Err())
	}
	if c.IsEmpty() {
		t.Fatal("cart must not be cleared on a declined payment")
	}
}

func TestConfirmBackendError(t *testing.T) {
	netErr := &apiclient.NetworkError{BaseURL: "http://localhost:3001/api", Err: errors.New("refused")}
	api := &mockapi{confirm: func(int64, string) (apiclient.PaymentConfirmation, error) {
		return apiclient.PaymentConfirmation{}, netErr
	}}
	c := newCart(t, bookID)
	o := checkout.New(api, c, checkout.WithLogger(quietLogger))

	_, err := o.Confirm(context.Background(), checkout.ConfirmParams{ID: "1", ClientTransactionID: "abc"})
	if !errors.Is(err, netErr) {
		t.Fatalf("expected network error verbatim got '%v'", err)
	}
	if o.State() != checkout.Failed || c.IsEmpty() {
		t.Fatal("expected failed state with untouched cart")
	}
}

func TestConfirmMissingParams(t *testing.T) {
	tests := map[string]checkout.ConfirmParams{
		"both missing":      {},
		"id missing":        {ClientTransactionID: "abc"},
		"client tx missing": {ID: "123"},
		"blank":             {ID: " ", ClientTransactionID: "abc"},
	}

	for name, params := range tests {
		t.Run(name, func(t *testing.T) {
			api := &mockapi{}
			c := newCart(t, bookID)
			o := checkout.New(api, c, checkout.WithLogger(quietLogger))

			_, err := o.Confirm(context.Background(), params)

			var abandoned *checkout.PaymentAbandonedError
			if !errors.As(err, &abandoned) || abandoned.Message != checkout.MsgParamsNotFound {
				t.Fatalf("expected parameters not found got '%v'", err)
			}
			if api.calls != 0 {
				t.Fatalf("expected no backend call got %d", api.calls)
			}
			if o.State() != checkout.Failed || c.IsEmpty() {
				t.Fatal("expected failed state with untouched cart")
			}
		})
	}
}

func TestConfirmNonNumericID(t *testing.T) {
	api := &mockapi{}
	o := checkout.New(api, newCart(t, bookID), checkout.WithLogger(quietLogger))

	_, err := o.Confirm(context.Background(), checkout.ConfirmParams{ID: "12a", ClientTransactionID: "abc"})

	var abandoned *checkout.PaymentAbandonedError
	if !errors.As(err, &abandoned) {
		t.Fatalf("expected *PaymentAbandonedError got '%v'", err)
	}
	if api.calls != 0 {
		t.Fatal("expected no backend call")
	}
}

func TestConfirmAfterConfirmedRejected(t *testing.T) {
	api := &mockapi{confirm: func(int64, string) (apiclient.PaymentConfirmation, error) {
		return apiclient.PaymentConfirmation{Success: true}, nil
	}}
	o := checkout.New(api, newCart(t, bookID), checkout.WithLogger(quietLogger))
	o.Confirm(context.Background(), checkout.ConfirmParams{ID: "1", ClientTransactionID: "abc"})

	if _, err := o.Confirm(context.Background(), checkout.ConfirmParams{ID: "1", ClientTransactionID: "abc"}); !errors.Is(err, checkout.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition got '%v'", err)
	}
	if api.calls != 1 {
		t.Fatalf("expected a single backend call got %d", api.calls)
	}
}

func TestStaleConfirmationIgnored(t *testing.T) {
	var o *checkout.Orchestrator
	api := &mockapi{confirm: func(int64, string) (apiclient.PaymentConfirmation, error) {
		// The user abandoned the page while the call was in flight.
		o.Reset()
		return apiclient.PaymentConfirmation{Success: true}, nil
	}}
	c := newCart(t, bookID)
	o = checkout.New(api, c, checkout.WithLogger(quietLogger))

	_, err := o.Confirm(context.Background(), checkout.ConfirmParams{ID: "1", ClientTransactionID: "abc"})
	if !errors.Is(err, checkout.ErrStaleAttempt) {
		t.Fatalf("expected ErrStaleAttempt got '%v'", err)
	}
	if o.State() != checkout.Idle {
		t.Fatalf("expected state 'idle' got '%s'", o.State())
	}
	if c.IsEmpty() {
		t.Fatal("a stale confirmation must not clear the cart")
	}
}

func TestStaleConfigIgnored(t *testing.T) {
	var o *checkout.Orchestrator
	w := &mockwidget{}
	api := &mockapi{config: func(in apiclient.PaymentConfigRequest) (apiclient.PaymentConfigResponse, error) {
		o.Reset()
		return okConfig(in)
	}}
	o = checkout.New(api, newCart(t, bookID), checkout.WithLogger(quietLogger))

	if _, err := o.Begin(context.Background(), contact, w); !errors.Is(err, checkout.ErrStaleAttempt) {
		t.Fatalf("expected ErrStaleAttempt got '%v'", err)
	}
	if w.config != nil {
		t.Fatal("widget must not be configured for a stale attempt")
	}
	if o.State() != checkout.Idle {
		t.Fatalf("expected state 'idle' got '%s'", o.State())
	}
}

func TestConfirmCartClearFailure(t *testing.T) {
	api := &mockapi{confirm: func(int64, string) (apiclient.PaymentConfirmation, error) {
		return apiclient.PaymentConfirmation{Success: true}, nil
	}}
	clearErr := errors.New("quota")
	o := checkout.New(api, &failingCart{err: clearErr}, checkout.WithLogger(quietLogger))

	conf, err := o.Confirm(context.Background(), checkout.ConfirmParams{ID: "1", ClientTransactionID: "abc"})
	if !errors.Is(err, clearErr) {
		t.Fatalf("expected clear error got '%v'", err)
	}
	if !conf.Success || o.State() != checkout.Confirmed {
		t.Fatal("a confirmed payment stays confirmed")
	}
}

type failingCart struct {
	err error
}

func (c *failingCart) Items() []cart.LineItem { return nil }
func (c *failingCart) Clear() error           { return c.err }
