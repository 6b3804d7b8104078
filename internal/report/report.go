package report

import (
	"context"
	"time"

	"github.com/richardklafter/PriceYakalytics/internal/tracking"
)

// Failure is one account whose template write failed.
type Failure struct {
	AccountID string `json:"account_id"`
	Error     string `json:"error"`
}

// Report is the outcome of the last sync, kept until the next page view.
type Report struct {
	TrackingID string    `json:"tracking_id"`
	Attempted  int       `json:"attempted"`
	Failures   []Failure `json:"failures,omitempty"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromResult summarizes a sync result.
func FromResult(trackingID string, res tracking.Result) Report {
	r := Report{
		TrackingID: trackingID,
		Attempted:  len(res.Outcomes),
		CreatedAt:  time.Now(),
	}
	for _, o := range res.Outcomes {
		if o.Err != nil {
			r.Failures = append(r.Failures, Failure{AccountID: o.AccountID, Error: o.Err.Error()})
		}
	}
	return r
}

// Store keeps at most one report per subject. Take returns it once and
// forgets it; a missing report is (nil, nil).
type Store interface {
	Save(ctx context.Context, subject string, r Report) error
	Take(ctx context.Context, subject string) (*Report, error)
}

// Succeeded is the number of stores that were written or already current.
func (r Report) Succeeded() int {
	return r.Attempted - len(r.Failures)
}
