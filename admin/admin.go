// Package admin holds the client side logic of the admin console: role
// checks, product validation, order statistics, the overview that loads
// everything at once and spreadsheet import and export.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bluescreen10/storefront"
	"github.com/bluescreen10/storefront/apiclient"
	"github.com/bluescreen10/storefront/session"
	"golang.org/x/sync/errgroup"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrForbidden     = errors.New("admin role required")
)

// Sessions reports the current session.
type Sessions interface {
	Current() (session.Session, bool)
}

// RequireAdmin checks locally that the current user may call the admin
// endpoints. The backend enforces the same rule; this only avoids a
// pointless round trip.
func RequireAdmin(s Sessions) error {
	sess, ok := s.Current()
	if !ok {
		return ErrLoginRequired
	}
	if !sess.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// ValidateProduct checks a product before it is sent to the backend. All
// problems are reported in a single *storefront.ValidationError.
func ValidateProduct(in apiclient.ProductInput) error {
	fields := map[string]string{}

	if utf8.RuneCountInString(strings.TrimSpace(in.Title)) < 3 {
		fields["title"] = "must be at least 3 characters"
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Synopsis)) < 20 {
		fields["synopsis"] = "must be at least 20 characters"
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Authors)) < 3 {
		fields["authors"] = "at least one author is required"
	}
	if in.Year < 1900 || in.Year > time.Now().Year()+1 {
		fields["year"] = "must be a valid year"
	}
	if in.Price <= 0 {
		fields["price"] = "must be greater than 0"
	}
	if !strings.HasPrefix(in.CoverImage, "http") {
		fields["coverImage"] = "must be a valid URL"
	}

	if len(fields) == 0 {
		return nil
	}
	return &storefront.ValidationError{Fields: fields}
}

// ValidStatus reports whether status is a payment status an admin may set.
func ValidStatus(status string) bool {
	switch status {
	case apiclient.PaymentPending, apiclient.PaymentPaid, apiclient.PaymentFailed:
		return true
	}
	return false
}

// OrderStats summarizes a list of orders by payment status.
type OrderStats struct {
	Total   int
	Paid    int
	Pending int
	Failed  int

	// Revenue is the amount of the paid orders.
	Revenue float64
}

// Stats computes OrderStats for orders.
func Stats(orders []apiclient.Order) OrderStats {
	s := OrderStats{Total: len(orders)}
	for _, o := range orders {
		switch o.PaymentStatus {
		case apiclient.PaymentPaid:
			s.Paid++
			s.Revenue += o.Amount
		case apiclient.PaymentPending:
			s.Pending++
		case apiclient.PaymentFailed:
			s.Failed++
		}
	}
	return s
}

// API is the part of the API client the overview needs.
type API interface {
	AdminDashboard(ctx context.Context) (apiclient.Dashboard, error)
	AdminUsers(ctx context.Context) ([]apiclient.User, error)
	AdminOrders(ctx context.Context) ([]apiclient.Order, error)
}

var _ API = (*apiclient.Client)(nil)

// Overview is everything the admin landing page shows.
type Overview struct {
	Dashboard apiclient.Dashboard
	Users     []apiclient.User
	Orders    []apiclient.Order
	Stats     OrderStats
}

// LoadOverview fetches the dashboard counters, the users and the orders
// concurrently. The first failure cancels the other calls and is returned.
func LoadOverview(ctx context.Context, api API) (Overview, error) {
	var ov Overview

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d, err := api.AdminDashboard(ctx)
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %w", err)
		}
		ov.Dashboard = d
		return nil
	})

	g.Go(func() error {
		users, err := api.AdminUsers(ctx)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		ov.Users = users
		return nil
	})

	g.Go(func() error {
		orders, err := api.AdminOrders(ctx)
		if err != nil {
			return fmt.Errorf("failed to load orders: %w", err)
		}
		ov.Orders = orders
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	ov.Stats = Stats(ov.Orders)
	return ov, nil
}
