// Package storefront is the client core of an online bookstore. It talks to
// the bookstore backend over HTTP, keeps a local cart and login that
// survive restarts, and drives the card payment flow of the Payphone
// payment box.
//
// The root package holds what the subpackages share: the Store contract for
// persisted client state, the Codecs that serialize it and
// ValidationError. The pieces live in subpackages:
//
//   - apiclient: HTTP client for the backend
//   - cart, session: persisted client state
//   - checkout, payphone: payment orchestration and the payment box page
//   - catalog, library, admin: views over products and orders
//   - memstore, gormstore, redisstore, mysqlstore: Store implementations
//   - web, etag, logger, render: the local checkout web pages
//   - config, cmd/storefront: configuration and the command line client
package storefront
