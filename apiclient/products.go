package apiclient

import (
	"context"
	"net/url"
	"strconv"
)

// Products lists catalog products. q is optional.
func (c *Client) Products(ctx context.Context, page, limit int, q string) ([]Product, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	if q != "" {
		query.Set("q", q)
	}

	r, err := c.Request(ctx, "/products", RequestOptions{Query: query})
	if err != nil {
		return nil, err
	}
	return decodeList[Product](r)
}

// Product fetches a single catalog product.
func (c *Client) Product(ctx context.Context, id string) (Product, error) {
	r, err := c.Request(ctx, "/products/"+url.PathEscape(id), RequestOptions{})
	if err != nil {
		return Product{}, err
	}
	return decodeOne[Product](r)
}
