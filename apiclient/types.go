package apiclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Role is the access level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account as returned by the auth and admin endpoints.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// UnmarshalJSON accepts both "id" and the database "_id".
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// AuthResult is the payload of a successful login.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Product is a catalog entry, normalized from the several shapes the API
// returns.
type Product struct {
	ID          string
	Title       string
	Description string
	Authors     string
	Year        int
	Price       float64
	Category    string
	Image       string
	PDFURL      string
}

// UnmarshalJSON maps the API fields onto Product: the id comes from "_id"
// or "id", the description from "synopsis" or "description", the image from
// "coverImage" or "image", and the price may be a number or a numeric
// string.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string     `json:"id"`
		MongoID     string     `json:"_id"`
		Title       string     `json:"title"`
		Synopsis    string     `json:"synopsis"`
		Description string     `json:"description"`
		Authors     flexString `json:"authors"`
		Year        flexFloat  `json:"year"`
		Price       flexFloat  `json:"price"`
		Category    string     `json:"category"`
		CoverImage  string     `json:"coverImage"`
		Image       string     `json:"image"`
		PDFURL      string     `json:"pdfUrl"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Product{
		ID:          firstNonEmpty(raw.MongoID, raw.ID),
		Title:       firstNonEmpty(raw.Title, "Untitled"),
		Description: firstNonEmpty(raw.Synopsis, raw.Description),
		Authors:     string(raw.Authors),
		Year:        int(raw.Year),
		Price:       float64(raw.Price),
		Category:    firstNonEmpty(raw.Category, "Books"),
		Image:       firstNonEmpty(raw.CoverImage, raw.Image),
		PDFURL:      raw.PDFURL,
	}
	return nil
}

// ProductInput is the body of the admin create and update calls.
type ProductInput struct {
	Title      string  `json:"title"`
	Synopsis   string  `json:"synopsis"`
	Authors    string  `json:"authors"`
	Year       int     `json:"year"`
	Price      float64 `json:"price"`
	CoverImage string  `json:"coverImage"`
	PDFURL     string  `json:"pdfUrl,omitempty"`
	Category   string  `json:"category,omitempty"`
}

// Payment states of an order.
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentFailed  = "FAILED"
)

// Order is a purchase, either the current user's or, for admins, anyone's.
type Order struct {
	ID                    string        `json:"id"`
	Customer              OrderCustomer `json:"customer"`
	Products              []OrderLine   `json:"products"`
	Amount                float64       `json:"amount"`
	PaymentStatus         string        `json:"paymentStatus"`
	PayphoneTransactionID string        `json:"payphoneTransactionId,omitempty"`
	PDFURL                string        `json:"pdfUrl,omitempty"`
	CreatedAt             time.Time     `json:"createdAt"`
}

// UnmarshalJSON accepts "_id" for the id and "userId" (populated or not)
// for the customer.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	var aux struct {
		plain
		MongoID string        `json:"_id"`
		UserID  OrderCustomer `json:"userId"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*o = Order(aux.plain)
	if o.ID == "" {
		o.ID = aux.MongoID
	}
	if o.Customer == (OrderCustomer{}) {
		o.Customer = aux.UserID
	}
	return nil
}

// OrderCustomer is the buyer of an order. The API sends either the bare
// user id or the populated user.
type OrderCustomer struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (c *OrderCustomer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.ID)
	}

	var aux struct {
		ID      string `json:"id"`
		MongoID string `json:"_id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*c = OrderCustomer{ID: firstNonEmpty(aux.ID, aux.MongoID), Name: aux.Name, Email: aux.Email}
	return nil
}

// OrderLine is one product inside an order.
type OrderLine struct {
	ProductID string  `json:"productId,omitempty"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// UnmarshalJSON accepts "qty" as an alias of "quantity" and a populated
// product in "productId".
func (l *OrderLine) UnmarshalJSON(data []byte) error {
	var aux struct {
		ProductID json.RawMessage `json:"productId"`
		Title     string          `json:"title"`
		Price     flexFloat       `json:"price"`
		Quantity  int             `json:"quantity"`
		Qty       int             `json:"qty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*l = OrderLine{Title: aux.Title, Price: float64(aux.Price), Quantity: aux.Quantity}
	if l.Quantity == 0 {
		l.Quantity = aux.Qty
	}

	if len(aux.ProductID) > 0 && aux.ProductID[0] == '{' {
		var p Product
		if err := json.Unmarshal(aux.ProductID, &p); err != nil {
			return err
		}
		l.ProductID = p.ID
		if l.Title == "" {
			l.Title = p.Title
		}
	} else if !isNull(aux.ProductID) {
		if err := json.Unmarshal(aux.ProductID, &l.ProductID); err != nil {
			return err
		}
	}
	return nil
}

// Dashboard holds the admin counters.
type Dashboard struct {
	UsersCount    int     `json:"usersCount"`
	ProductsCount int     `json:"productsCount"`
	OrdersCount   int     `json:"ordersCount"`
	Revenue       float64 `json:"revenue"`
}

// PaymentProduct is one cart line as sent to the payment config endpoint.
type PaymentProduct struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PaymentConfigRequest is the body of /payment/payphone/config.
type PaymentConfigRequest struct {
	Products    []PaymentProduct `json:"products"`
	Email       string           `json:"email"`
	PhoneNumber string           `json:"phoneNumber"`
	DocumentID  string           `json:"documentId"`
}

// PaymentConfigResponse carries the opaque widget configuration. Config is
// handed to the payment widget verbatim.
type PaymentConfigResponse struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message,omitempty"`
	OrderID     string          `json:"orderId"`
	Config      json.RawMessage `json:"paymentConfig"`
	ResponseURL string          `json:"responseUrl"`
}

// PaymentConfirmation is the result of /payment/payphone/confirm.
type PaymentConfirmation struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Order       *ConfirmedOrder     `json:"order,omitempty"`
	Transaction *PaymentTransaction `json:"transaction,omitempty"`
}

// ConfirmedOrder is the order summary included in a confirmation.
type ConfirmedOrder struct {
	ID            string      `json:"id"`
	Amount        float64     `json:"amount"`
	PaymentStatus string      `json:"paymentStatus"`
	Products      []OrderLine `json:"products"`
}

func (o *ConfirmedOrder) UnmarshalJSON(data []byte) error {
	type plain ConfirmedOrder
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*o = ConfirmedOrder(aux.plain)
	if o.ID == "" {
		o.ID = aux.MongoID
	}
	return nil
}

// PaymentTransaction is the subset of the payment provider's transaction
// record the storefront shows.
type PaymentTransaction struct {
	TransactionID       int64  `json:"transactionId"`
	ClientTransactionID string `json:"clientTransactionId,omitempty"`
	AuthorizationCode   string `json:"authorizationCode"`
	CardBrand           string `json:"cardBrand"`
	LastDigits          string `json:"lastDigits"`
	TransactionStatus   string `json:"transactionStatus,omitempty"`
	Amount              int64  `json:"amount,omitempty"`
	Date                string `json:"date"`
}

// Invoice is a downloaded order document.
type Invoice struct {
	Filename    string
	ContentType string
	Data        []byte
}

// flexFloat decodes a JSON number or a numeric string. Anything else
// decodes to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexString decodes a string or a list of strings (joined with ", ").
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*s = flexString(strings.Join(list, ", "))
		return nil
	}

	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*s = flexString(v)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
