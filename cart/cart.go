// Package cart holds the shopping cart and keeps it persisted.
//
// Every mutation computes the next list of lines, writes it to the Store
// and only then replaces the in-memory list. When the write fails the cart
// is left as it was and the error is returned.
//
// Usage:
//
//	c := cart.New(store)
//
//	err := c.AddItem(cart.LineItem{
//	    ID:    "64b7f0c2a1b2c3d4e5f60718",
//	    Title: "The Go Programming Language",
//	    Price: 29.99,
//	})
//
//	fmt.Println(c.ItemCount(), c.Total())
package cart

import (
	"log/slog"
	"regexp"
	"sync"

	"github.com/bluescreen10/storefront"
)

var idPattern = regexp.MustCompile(`^[a-fA-F0-9]{24}$`)

// ValidID reports whether id has the backend's product identifier format, a
// 24 character hexadecimal string.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// LineItem is one row of the cart.
type LineItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
}

// Subtotal returns price times quantity.
func (l LineItem) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

func (l LineItem) valid() bool {
	return ValidID(l.ID) && l.Quantity > 0 && l.Price >= 0
}

// Cart is an ordered list of line items, unique by id, in insertion order.
// It is safe for concurrent use; mutations are serialized.
type Cart struct {
	store  storefront.Store
	codec  storefront.Codec
	logger *slog.Logger

	mu        sync.RWMutex
	items     []LineItem
	discarded int
}

type config func(*Cart)

// WithCodec sets the codec used to persist the cart.
// (default storefront.JSONCodec.)
func WithCodec(codec storefront.Codec) config {
	return config(func(c *Cart) {
		c.codec = codec
	})
}

// WithLogger sets the logger. (default slog.Default().)
func WithLogger(logger *slog.Logger) config {
	return config(func(c *Cart) {
		c.logger = logger
	})
}

// New creates a Cart hydrated from store. Persisted lines that no longer
// satisfy the line invariants are dropped and counted (see Discarded);
// unreadable data yields an empty cart. Neither case is an error.
func New(store storefront.Store, cfgs ...config) *Cart {
	c := &Cart{
		store:  store,
		codec:  storefront.JSONCodec{},
		logger: slog.Default(),
		items:  []LineItem{},
	}

	for _, cfg := range cfgs {
		cfg(c)
	}

	c.hydrate()
	return c
}

func (c *Cart) hydrate() {
	data, found, err := c.store.Get(storefront.CartKey)
	if err != nil {
		c.logger.Warn("failed to read persisted cart", "err", err)
		return
	}
	if !found || len(data) == 0 {
		return
	}

	var persisted []LineItem
	if err := c.codec.Decode(data, &persisted); err != nil {
		c.logger.Warn("discarding unreadable persisted cart", "err", err)
		return
	}

	items := make([]LineItem, 0, len(persisted))
	seen := make(map[string]int, len(persisted))
	for _, item := range persisted {
		if !item.valid() {
			c.discarded++
			continue
		}

		// Merge duplicates written by older clients.
		if i, ok := seen[item.ID]; ok {
			items[i].Quantity += item.Quantity
			continue
		}
		seen[item.ID] = len(items)
		items = append(items, item)
	}

	if c.discarded > 0 {
		c.logger.Warn("dropped invalid cart lines", "dropped", c.discarded, "kept", len(items))
	}
	c.items = items
}

// Discarded returns how many persisted lines were dropped during hydration.
func (c *Cart) Discarded() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.discarded
}

// Items returns a copy of the current lines.
func (c *Cart) Items() []LineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]LineItem{}, c.items...)
}

// Total returns the sum of price times quantity over all lines.
func (c *Cart) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0.0
	for _, item := range c.items {
		total += item.Subtotal()
	}
	return total
}

// ItemCount returns the sum of quantities over all lines.
func (c *Cart) ItemCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items) == 0
}

// AddItem adds one unit of item. If a line with the same id exists its
// quantity grows by one; otherwise a new line with quantity 1 is appended.
// The incoming Quantity is ignored. An item with a malformed id or a
// negative price is rejected with a *storefront.ValidationError.
func (c *Cart) AddItem(item LineItem) error {
	if !ValidID(item.ID) {
		return storefront.NewValidationError("id", "invalid product id '"+item.ID+"'")
	}
	if item.Price < 0 {
		return storefront.NewValidationError("price", "price must not be negative")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := append([]LineItem{}, c.items...)
	if i := indexOf(next, item.ID); i >= 0 {
		next[i].Quantity++
	} else {
		item.Quantity = 1
		next = append(next, item)
	}

	return c.commit(next)
}

// RemoveItem deletes the line with id. Unknown ids are a no-op.
func (c *Cart) RemoveItem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remove(id)
}

// UpdateQuantity sets the quantity of the line with id. A quantity of zero
// or less removes the line. Unknown ids are a no-op.
func (c *Cart) UpdateQuantity(id string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		return c.remove(id)
	}

	i := indexOf(c.items, id)
	if i < 0 {
		return nil
	}

	next := append([]LineItem{}, c.items...)
	next[i].Quantity = quantity
	return c.commit(next)
}

// Clear empties the cart.
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commit([]LineItem{})
}

func (c *Cart) remove(id string) error {
	i := indexOf(c.items, id)
	if i < 0 {
		return nil
	}

	next := make([]LineItem, 0, len(c.items)-1)
	next = append(next, c.items[:i]...)
	next = append(next, c.items[i+1:]...)
	return c.commit(next)
}

// commit persists next and then makes it current. c.mu must be held.
func (c *Cart) commit(next []LineItem) error {
	data, err := c.codec.Encode(next)
	if err != nil {
		return err
	}

	if err := c.store.Set(storefront.CartKey, data); err != nil {
		c.logger.Error("failed to persist cart", "err", err)
		return err
	}

	c.items = next
	return nil
}

func indexOf(items []LineItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
