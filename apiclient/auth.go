package apiclient

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a user and a bearer token. It does not
// change the client's token; the session store decides when to do that.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	r, err := c.Request(ctx, "/auth/login", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return AuthResult{}, err
	}
	return decodeOne[AuthResult](r)
}

// Register creates an account. The response shape is backend defined and
// ignored; callers follow up with Login.
func (c *Client) Register(ctx context.Context, email, password, name string) error {
	_, err := c.Request(ctx, "/auth/register", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"email": email, "password": password, "name": name},
	})
	return err
}
