package notify

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TokenError is a per-token delivery failure. One bad token never aborts the
// rest of its batch.
type TokenError struct {
	Token  string
	Reason string
}

// BatchResult is what the push provider reports for one batch.
type BatchResult struct {
	SuccessCount int
	Failures     []TokenError
}

// DispatchReport aggregates delivery results across all batches of one
// logical notification.
type DispatchReport struct {
	SuccessCount int
	Failures     []TokenError
}

// PushProvider delivers one batch of push messages. Implementations must
// tolerate invalid or expired tokens without failing the whole batch.
type PushProvider interface {
	SendBatch(ctx context.Context, tokens []string, title, body string, data map[string]string) (BatchResult, error)
	MaxBatchSize() int
}

// Dispatcher fans a notification payload out to a token list, splitting it
// into provider-sized batches. It never mutates domain state; callers that
// need mark-as-sent semantics perform that write themselves.
type Dispatcher struct {
	provider PushProvider
	logger   *logrus.Logger
}

func NewDispatcher(provider PushProvider, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{provider: provider, logger: logger}
}

// Dispatch sends title/body/data to every token. Zero tokens is a no-op that
// returns a zero report; per-token failures are logged and reported but never
// returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, tokens []string, title, body string, data map[string]string) DispatchReport {
	var report DispatchReport
	if len(tokens) == 0 {
		return report
	}

	size := d.provider.MaxBatchSize()
	if size <= 0 {
		size = len(tokens)
	}

	var failures error
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		result, err := d.provider.SendBatch(ctx, batch, title, body, data)
		if err != nil {
			// Whole-batch failure (provider unreachable, breaker open).
			// Record every token of the batch as failed and keep going with
			// the remaining batches.
			for _, t := range batch {
				report.Failures = append(report.Failures, TokenError{Token: t, Reason: err.Error()})
			}
			failures = multierror.Append(failures, errors.Wrapf(err, "push batch of %d", len(batch)))
			continue
		}

		report.SuccessCount += result.SuccessCount
		report.Failures = append(report.Failures, result.Failures...)
		for _, f := range result.Failures {
			failures = multierror.Append(failures, errors.Errorf("token %s: %s", truncateToken(f.Token), f.Reason))
		}
	}

	pushSent.Add(float64(report.SuccessCount))
	pushFailed.Add(float64(len(report.Failures)))

	if failures != nil {
		d.logger.WithError(failures).WithFields(logrus.Fields{
			"title":   title,
			"tokens":  len(tokens),
			"success": report.SuccessCount,
		}).Warn("push delivery incomplete")
	}

	return report
}

// truncateToken keeps log lines readable and avoids writing whole device
// tokens into logs.
func truncateToken(t string) string {
	if len(t) <= 12 {
		return t
	}
	return t[:12] + "..."
}
