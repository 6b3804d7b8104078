package tracking

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/richardklafter/PriceYakalytics/internal/logger"
	"github.com/richardklafter/PriceYakalytics/internal/partner"
)

// Account is a partner store with its listing template attached.
type Account struct {
	ID          string
	Destination string
	SellerName  string
	Template    string
	HasTemplate bool
}

// Partner is the subset of the partner API the synchronizer needs.
type Partner interface {
	ListStores(ctx context.Context, token *oauth2.Token, subject string) ([]partner.Store, error)
	GetTemplate(ctx context.Context, token *oauth2.Token, accountID string) (string, error)
	PutTemplate(ctx context.Context, token *oauth2.Token, accountID, template string) error
}

// AccountFetchError is a failed template read. It is logged and the account
// is kept without a template.
type AccountFetchError struct {
	AccountID string
	Err       error
}

func (e *AccountFetchError) Error() string {
	return fmt.Sprintf("tracking: fetch template of account %s: %v", e.AccountID, e.Err)
}

func (e *AccountFetchError) Unwrap() error { return e.Err }

// AccountWriteError is a failed template write for one account.
type AccountWriteError struct {
	AccountID string
	Err       error
}

func (e *AccountWriteError) Error() string {
	return fmt.Sprintf("tracking: write template of account %s: %v", e.AccountID, e.Err)
}

func (e *AccountWriteError) Unwrap() error { return e.Err }

// Outcome is what happened to one account during a sync.
type Outcome struct {
	AccountID string
	Skipped   bool // nothing to write, template already up to date
	Err       error
}

// Result aggregates the outcomes of a sync, one per account with a template.
type Result struct {
	Outcomes []Outcome
}

func (r Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

func (r Result) Succeeded() int {
	return len(r.Outcomes) - r.Failed()
}

// Err joins every per-account failure, or returns nil.
func (r Result) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Synchronizer reads and writes the beacon across all stores of a user.
// Per-account calls run concurrently, bounded by the configured limit.
type Synchronizer struct {
	partner     Partner
	concurrency int
}

func NewSynchronizer(p Partner, concurrency int) *Synchronizer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Synchronizer{partner: p, concurrency: concurrency}
}

// ListAccounts lists the stores of subject and attaches each template. A
// failed template read only affects its own account.
func (s *Synchronizer) ListAccounts(ctx context.Context, token *oauth2.Token, subject string) ([]Account, error) {
	stores, err := s.partner.ListStores(ctx, token, subject)
	if err != nil {
		return nil, fmt.Errorf("tracking: list stores: %w", err)
	}

	accounts := make([]Account, len(stores))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for i, st := range stores {
		i, st := i, st
		accounts[i] = Account{
			ID:          st.ID,
			Destination: st.Destination,
			SellerName:  st.SellerName,
		}

		g.Go(func() error {
			tpl, err := s.partner.GetTemplate(ctx, token, st.ID)
			if err != nil {
				fetchErr := &AccountFetchError{AccountID: st.ID, Err: err}
				logger.Warn("template fetch failed", map[string]any{
					"account_id": st.ID,
					"error":      fetchErr,
				})
				return nil // other accounts proceed
			}

			accounts[i].Template = tpl
			accounts[i].HasTemplate = true
			return nil
		})
	}

	_ = g.Wait()
	return accounts, nil
}

// SyncAccounts writes the beacon for newID (or removes it when newID is
// empty) into every account that has a template. Each write is attempted
// independently; there is no transaction across accounts.
func (s *Synchronizer) SyncAccounts(ctx context.Context, token *oauth2.Token, accounts []Account, newID string) (Result, error) {
	if err := ValidateTrackingID(newID); err != nil {
		return Result{}, err
	}

	targets := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		if a.HasTemplate {
			targets = append(targets, a)
		}
	}

	outcomes := make([]Outcome, len(targets))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for i, a := range targets {
		i, a := i, a
		outcomes[i].AccountID = a.ID

		updated := RewriteTemplate(a, newID)
		if updated == a.Template {
			outcomes[i].Skipped = true
			continue
		}

		g.Go(func() error {
			if err := s.partner.PutTemplate(ctx, token, a.ID, updated); err != nil {
				outcomes[i].Err = &AccountWriteError{AccountID: a.ID, Err: err}
				logger.Error("template write failed", map[string]any{
					"account_id": a.ID,
					"error":      err,
				})
			}
			return nil
		})
	}

	_ = g.Wait()

	res := Result{Outcomes: outcomes}
	logger.Info("tracking sync finished", map[string]any{
		"accounts":  len(outcomes),
		"succeeded": res.Succeeded(),
		"failed":    res.Failed(),
		"disabled":  newID == "",
	})
	return res, nil
}

// CurrentTrackingID returns the first tracking ID found, in listing order.
func CurrentTrackingID(accounts []Account) (string, bool) {
	for _, a := range accounts {
		if !a.HasTemplate {
			continue
		}
		if id, ok := ExtractTagID(a.Template); ok {
			return id, true
		}
	}
	return "", false
}
