package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hubenschmidt/speechbench/internal/vendor"
)

func TestWithRetry_SucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, "piper", "synthesize", func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesRetryableThenSucceeds(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, "piper", "synthesize", func() error {
		calls++
		if calls < 2 {
			return &vendor.VendorError{Vendor: "piper", Status: 503, Retryable: true}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, "piper", "synthesize", func() error {
		calls++
		return &vendor.VendorError{Vendor: "piper", Status: 400, Retryable: false}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, "piper", "synthesize", func() error {
		calls++
		return &vendor.VendorError{Vendor: "piper", Status: 503, Retryable: true}
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestWithRetry_RetriesTimeoutErrorThenSucceeds(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, "piper", "synthesize", func() error {
		calls++
		if calls < 2 {
			return &vendor.TimeoutError{Vendor: "piper", Retryable: true}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_NonRetryableTimeoutErrorFailsImmediately(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, "piper", "synthesize", func() error {
		calls++
		return &vendor.TimeoutError{Vendor: "piper", Retryable: false}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_NonVendorErrorFailsImmediately(t *testing.T) {
	calls := 0
	sentinel := errors.New("boom")
	err := withRetry(context.Background(), 2, "piper", "synthesize", func() error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, 2, "piper", "synthesize", func() error {
		calls++
		return &vendor.VendorError{Vendor: "piper", Status: 503, Retryable: true}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
