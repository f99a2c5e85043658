package admin_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/bluescreen10/storefront"
	"github.com/bluescreen10/storefront/admin"
	"github.com/bluescreen10/storefront/apiclient"
	"github.com/bluescreen10/storefront/session"
)

type mocksessions struct {
	sess session.Session
	ok   bool
}

func (m mocksessions) Current() (session.Session, bool) { return m.sess, m.ok }

func TestRequireAdmin(t *testing.T) {
	anon := mocksessions{}
	user := mocksessions{session.Session{User: apiclient.User{Role: apiclient.RoleUser}, Token: "t"}, true}
	adm := mocksessions{session.Session{User: apiclient.User{Role: apiclient.RoleAdmin}, Token: "t"}, true}

	if err := admin.RequireAdmin(anon); !errors.Is(err, admin.ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired got '%v'", err)
	}
	if err := admin.RequireAdmin(user); !errors.Is(err, admin.ErrForbidden) {
		t.Fatalf("expected ErrForbidden got '%v'", err)
	}
	if err := admin.RequireAdmin(adm); err != nil {
		t.Fatalf("expected no error got '%v'", err)
	}
}

func validProduct() apiclient.ProductInput {
	return apiclient.ProductInput{
		Title:      "Learning Go",
		Synopsis:   "An idiomatic approach to real-world Go programming",
		Authors:    "Jon Bodner",
		Year:       2021,
		Price:      29.99,
		CoverImage: "https://cdn.test/learning-go.png",
	}
}

func TestValidateProduct(t *testing.T) {
	if err := admin.ValidateProduct(validProduct()); err != nil {
		t.Fatalf("expected valid product got '%v'", err)
	}

	tests := map[string]struct {
		mutate func(*apiclient.ProductInput)
		field  string
	}{
		"short title":    {func(p *apiclient.ProductInput) { p.Title = "Go" }, "title"},
		"short synopsis": {func(p *apiclient.ProductInput) { p.Synopsis = "Too short" }, "synopsis"},
		"no authors":     {func(p *apiclient.ProductInput) { p.Authors = " " }, "authors"},
		"old year":       {func(p *apiclient.ProductInput) { p.Year = 1800 }, "year"},
		"free":           {func(p *apiclient.ProductInput) { p.Price = 0 }, "price"},
		"relative cover": {func(p *apiclient.ProductInput) { p.CoverImage = "/c.png" }, "coverImage"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(&p)

			var valErr *storefront.ValidationError
			if err := admin.ValidateProduct(p); !errors.As(err, &valErr) {
				t.Fatalf("expected *ValidationError got '%v'", err)
			}
			if len(valErr.Fields) != 1 {
				t.Fatalf("expected a single field got %v", valErr.Fields)
			}
			if _, ok := valErr.Fields[tt.field]; !ok {
				t.Fatalf("expected field '%s' got %v", tt.field, valErr.Fields)
			}
		})
	}
}

func TestStats(t *testing.T) {
	s := admin.Stats([]apiclient.Order{
		{PaymentStatus: apiclient.PaymentPaid, Amount: 10},
		{PaymentStatus: apiclient.PaymentPaid, Amount: 15},
		{PaymentStatus: apiclient.PaymentPending, Amount: 99},
		{PaymentStatus: apiclient.PaymentFailed, Amount: 7},
	})

	if s.Total != 4 || s.Paid != 2 || s.Pending != 1 || s.Failed != 1 || s.Revenue != 25 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{"PAID", "PENDING", "FAILED"} {
		if !admin.ValidStatus(s) {
			t.Fatalf("expected '%s' to be valid", s)
		}
	}
	if admin.ValidStatus("paid") {
		t.Fatal("status is case sensitive")
	}
}

type mockapi struct {
	dashboard func(context.Context) (apiclient.Dashboard, error)
	users     func(context.Context) ([]apiclient.User, error)
	orders    func(context.Context) ([]apiclient.Order, error)
}

func (m *mockapi) AdminDashboard(ctx context.Context) (apiclient.Dashboard, error) {
	return m.dashboard(ctx)
}

func (m *mockapi) AdminUsers(ctx context.Context) ([]apiclient.User, error) {
	return m.users(ctx)
}

func (m *mockapi) AdminOrders(ctx context.Context) ([]apiclient.Order, error) {
	return m.orders(ctx)
}

func TestLoadOverview(t *testing.T) {
	api := &mockapi{
		dashboard: func(context.Context) (apiclient.Dashboard, error) {
			return apiclient.Dashboard{UsersCount: 2, OrdersCount: 1}, nil
		},
		users: func(context.Context) ([]apiclient.User, error) {
			return []apiclient.User{{ID: "u1"}, {ID: "u2"}}, nil
		},
		orders: func(context.Context) ([]apiclient.Order, error) {
			return []apiclient.Order{{ID: "o1", PaymentStatus: apiclient.PaymentPaid, Amount: 12}}, nil
		},
	}

	ov, err := admin.LoadOverview(context.Background(), api)
	if err != nil {
		t.Fatal(err)
	}

	if ov.Dashboard.UsersCount != 2 || len(ov.Users) != 2 || len(ov.Orders) != 1 {
		t.Fatalf("unexpected overview %+v", ov)
	}
	if ov.Stats.Revenue != 12 {
		t.Fatalf("expected revenue '12' got '%v'", ov.Stats.Revenue)
	}
}

func TestLoadOverviewCancelsOnError(t *testing.T) {
	forbidden := &apiclient.APIError{StatusCode: 403, Message: "Forbidden"}
	var cancelled atomic.Bool

	api := &mockapi{
		dashboard: func(context.Context) (apiclient.Dashboard, error) {
			return apiclient.Dashboard{}, forbidden
		},
		users: func(ctx context.Context) ([]apiclient.User, error) {
			<-ctx.Done()
			cancelled.Store(true)
			return nil, ctx.Err()
		},
		orders: func(ctx context.Context) ([]apiclient.Order, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	_, err := admin.LoadOverview(context.Background(), api)
	if !errors.Is(err, forbidden) {
		t.Fatalf("expected the dashboard error got '%v'", err)
	}
	if !cancelled.Load() {
		t.Fatal("expected sibling calls to be cancelled")
	}
}
