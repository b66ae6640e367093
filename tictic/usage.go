// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package tictic

import (
	"context"
	"net/http"
)

// UsageClient reads the account's message quota.
type UsageClient struct {
	transport *transport
}

// Get fetches current usage from GET /v1/usage. Every call hits the API.
func (u *UsageClient) Get(ctx context.Context) (*UsageSnapshot, error) {
	var response usageResponse
	if err := u.transport.do(ctx, http.MethodGet, "/v1/usage", nil, &response); err != nil {
		return nil, err
	}
	return &response.Usage, nil
}
