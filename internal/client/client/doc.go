// Package client talks to a running cardkeeper API server.
//
// The CLI uses it for the operations that go through the server rather than
// straight to storage: account sign-up and sign-in.
//
// # Error Handling
//
// Transport failures and 5xx answers wrap ErrUnavailable. Rejected
// credentials wrap common.ErrUnauthorized and rejected input is a
// *common.ValidationError carrying the server's message.
package client
