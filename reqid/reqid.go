// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package reqid threads a request correlation token through contexts so
// that every outbound collaborator call made on behalf of one public
// operation can be tied together and cancelled as a unit.
package reqid

import "context"

type contextKey struct{}

// WithContext returns a context carrying the given request id.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the request id carried by ctx, or the empty string
// when none was set.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
