package notify

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

type fakeProvider struct {
	max     int
	batches [][]string
	reject  map[string]string // token -> reason
	fail    bool
}

func (f *fakeProvider) MaxBatchSize() int { return f.max }

func (f *fakeProvider) SendBatch(_ context.Context, tokens []string, _, _ string, _ map[string]string) (BatchResult, error) {
	f.batches = append(f.batches, tokens)
	if f.fail {
		return BatchResult{}, errors.New("provider unreachable")
	}
	var result BatchResult
	for _, t := range tokens {
		if reason, bad := f.reject[t]; bad {
			result.Failures = append(result.Failures, TokenError{Token: t, Reason: reason})
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

func TestDispatchSplitsBatches(t *testing.T) {
	provider := &fakeProvider{max: 2}
	d := NewDispatcher(provider, quietLogger())

	report := d.Dispatch(context.Background(), []string{"a", "b", "c", "d", "e"}, "title", "body", nil)

	if report.SuccessCount != 5 {
		t.Errorf("SuccessCount = %d, want 5", report.SuccessCount)
	}
	if len(provider.batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(provider.batches))
	}
	if len(provider.batches[0]) != 2 || len(provider.batches[2]) != 1 {
		t.Errorf("unexpected batch sizes: %v", provider.batches)
	}
}

func TestDispatchPartialFailure(t *testing.T) {
	provider := &fakeProvider{max: 10, reject: map[string]string{"bad": "DeviceNotRegistered"}}
	d := NewDispatcher(provider, quietLogger())

	report := d.Dispatch(context.Background(), []string{"good1", "bad", "good2"}, "t", "b", nil)

	if report.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", report.SuccessCount)
	}
	if len(report.Failures) != 1 || report.Failures[0].Token != "bad" {
		t.Errorf("Failures = %v, want single failure for 'bad'", report.Failures)
	}
}

func TestDispatchZeroTokensIsNoop(t *testing.T) {
	provider := &fakeProvider{max: 10}
	d := NewDispatcher(provider, quietLogger())

	report := d.Dispatch(context.Background(), nil, "t", "b", nil)

	if report.SuccessCount != 0 || len(report.Failures) != 0 {
		t.Errorf("zero-token dispatch should be a zero report, got %+v", report)
	}
	if len(provider.batches) != 0 {
		t.Errorf("provider must not be called with zero tokens")
	}
}

func TestDispatchProviderDownDoesNotAbortRemainingBatches(t *testing.T) {
	provider := &fakeProvider{max: 2, fail: true}
	d := NewDispatcher(provider, quietLogger())

	report := d.Dispatch(context.Background(), []string{"a", "b", "c"}, "t", "b", nil)

	if len(provider.batches) != 2 {
		t.Errorf("all batches should be attempted, got %d", len(provider.batches))
	}
	if len(report.Failures) != 3 {
		t.Errorf("every token should be reported failed, got %v", report.Failures)
	}
	if report.SuccessCount != 0 {
		t.Errorf("SuccessCount = %d, want 0", report.SuccessCount)
	}
}
