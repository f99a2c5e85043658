package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// AdminProducts lists products including unpublished ones.
func (c *Client) AdminProducts(ctx context.Context, page, limit int) ([]Product, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	r, err := c.Request(ctx, "/admin/products", RequestOptions{Query: query})
	if err != nil {
		return nil, err
	}
	return decodeList[Product](r)
}

func (c *Client) AdminCreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	r, err := c.Request(ctx, "/admin/products", RequestOptions{Method: http.MethodPost, Body: in})
	if err != nil {
		return Product{}, err
	}
	return decodeOne[Product](r)
}

func (c *Client) AdminUpdateProduct(ctx context.Context, id string, in ProductInput) (Product, error) {
	r, err := c.Request(ctx, "/admin/products/"+url.PathEscape(id), RequestOptions{Method: http.MethodPut, Body: in})
	if err != nil {
		return Product{}, err
	}
	return decodeOne[Product](r)
}

func (c *Client) AdminDeleteProduct(ctx context.Context, id string) error {
	_, err := c.Request(ctx, "/admin/products/"+url.PathEscape(id), RequestOptions{Method: http.MethodDelete})
	return err
}

func (c *Client) AdminDashboard(ctx context.Context) (Dashboard, error) {
	r, err := c.Request(ctx, "/admin/dashboard", RequestOptions{})
	if err != nil {
		return Dashboard{}, err
	}
	return decodeOne[Dashboard](r)
}

func (c *Client) AdminUsers(ctx context.Context) ([]User, error) {
	r, err := c.Request(ctx, "/admin/users", RequestOptions{})
	if err != nil {
		return nil, err
	}
	return decodeList[User](r)
}

func (c *Client) AdminUpdateUserRole(ctx context.Context, userID string, role Role) (User, error) {
	r, err := c.Request(ctx, "/admin/users/"+url.PathEscape(userID)+"/role", RequestOptions{
		Method: http.MethodPut,
		Body:   map[string]Role{"role": role},
	})
	if err != nil {
		return User{}, err
	}
	return decodeOne[User](r)
}

func (c *Client) AdminOrders(ctx context.Context) ([]Order, error) {
	r, err := c.Request(ctx, "/admin/orders", RequestOptions{})
	if err != nil {
		return nil, err
	}
	return decodeList[Order](r)
}

func (c *Client) AdminUpdateOrderStatus(ctx context.Context, orderID, status string) (Order, error) {
	r, err := c.Request(ctx, "/admin/orders/"+url.PathEscape(orderID)+"/status", RequestOptions{
		Method: http.MethodPut,
		Body:   map[string]string{"status": status},
	})
	if err != nil {
		return Order{}, err
	}
	return decodeOne[Order](r)
}
