// Package api provides an HTTP client for the tracklist list service.
//
// # Overview
//
// The service exposes two collections, groceries and tasks, as JSON arrays
// under a common base path (by default http://127.0.0.1:3000/api). This
// package wraps those resources in typed methods and leaves all merge and
// fallback policy to the reconcile package.
//
// # Client Usage
//
//	client, err := api.NewClient("http://127.0.0.1:3000/api", 0)
//	if err != nil {
//		return err
//	}
//	raw, err := client.ListGroceries(ctx)
//
// # Endpoints
//
//	GET    /groceries                 raw records (ListGroceries)
//	POST   /groceries                 {name} → item or array
//	PUT    /groceries                 bulk save
//	DELETE /groceries                 reset
//	PUT    /groceries/{name}          {expanded} or {purchases}
//	DELETE /groceries/{name}          remaining array or nothing
//	POST   /groceries/{name}/purchase updated item
//
// The task endpoints mirror these keyed by id, without the purchase action.
//
// # Replies
//
// Mutations return a Reply, which records whether the server answered with a
// single record (Item) or the whole collection (IsList). An empty body or a
// JSON null decodes to an empty Reply.
//
// # Errors
//
// Any non-2xx status becomes an *Error. When the body carries an
// {"error": "..."} payload its message is kept in Error.Message;
// UserMessage extracts it for display. List endpoints that answer with
// something other than an array return ErrNotArray.
//
// # Timeouts
//
// NewClient takes an explicit timeout. Zero means requests run until they
// finish or the context is cancelled.
package api
