// Package library derives the books a user owns from their order history.
package library

import (
	"slices"
	"strings"
	"time"

	"github.com/bluescreen10/storefront/apiclient"
)

// Book is one owned title. A book bought in several orders appears once.
type Book struct {
	ProductID string
	Title     string

	// Copies is the total quantity bought across all paid orders.
	Copies int

	FirstPurchased time.Time
	LastPurchased  time.Time

	// OrderIDs lists the paid orders containing the book, oldest first.
	// Any of them can be used to download the invoice.
	OrderIDs []string
}

// Summary holds the library counters.
type Summary struct {
	PaidOrders     int
	BooksPurchased int
	TotalSpent     float64
}

// Paid returns the orders with PAID status, oldest first.
func Paid(orders []apiclient.Order) []apiclient.Order {
	out := make([]apiclient.Order, 0, len(orders))
	for _, o := range orders {
		if o.PaymentStatus == apiclient.PaymentPaid {
			out = append(out, o)
		}
	}

	slices.SortStableFunc(out, func(a, b apiclient.Order) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// Build returns one Book per distinct product across the paid orders,
// most recently purchased first. Lines without a product id are keyed by
// their title.
func Build(orders []apiclient.Order) []Book {
	index := map[string]int{}
	var books []Book

	for _, o := range Paid(orders) {
		for _, line := range o.Products {
			key := line.ProductID
			if key == "" {
				key = "title:" + strings.ToLower(strings.TrimSpace(line.Title))
			}

			i, ok := index[key]
			if !ok {
				index[key] = len(books)
				books = append(books, Book{
					ProductID:      line.ProductID,
					Title:          line.Title,
					FirstPurchased: o.CreatedAt,
				})
				i = len(books) - 1
			}

			b := &books[i]
			b.Copies += line.Quantity
			b.LastPurchased = o.CreatedAt
			if b.Title == "" {
				b.Title = line.Title
			}
			if !slices.Contains(b.OrderIDs, o.ID) {
				b.OrderIDs = append(b.OrderIDs, o.ID)
			}
		}
	}

	slices.SortStableFunc(books, func(a, b Book) int {
		return b.LastPurchased.Compare(a.LastPurchased)
	})
	return books
}

// Summarize counts paid orders, copies bought and money spent.
func Summarize(orders []apiclient.Order) Summary {
	var s Summary
	for _, o := range Paid(orders) {
		s.PaidOrders++
		s.TotalSpent += o.Amount
		for _, line := range o.Products {
			s.BooksPurchased += line.Quantity
		}
	}
	return s
}

// Recent returns up to n orders of any status, newest first. It is the
// flat purchase history shown on the profile.
func Recent(orders []apiclient.Order, n int) []apiclient.Order {
	out := append([]apiclient.Order{}, orders...)
	slices.SortStableFunc(out, func(a, b apiclient.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
