package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Fake is an in-memory Gateway for tests and local development. Every
// initialized transaction succeeds on verification unless marked otherwise.
type Fake struct {
	mu           sync.Mutex
	transactions map[string]*fakeTransaction
	initErr      error
	verifyErr    error
}

type fakeTransaction struct {
	amount decimal.Decimal
	status string
}

// NewFake returns an empty Fake gateway.
func NewFake() *Fake {
	return &Fake{transactions: make(map[string]*fakeTransaction)}
}

// FailInitialize makes subsequent Initialize calls return err. Pass nil to reset.
func (f *Fake) FailInitialize(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initErr = err
}

// FailVerify makes subsequent Verify calls return err. Pass nil to reset.
func (f *Fake) FailVerify(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyErr = err
}

// SetStatus overrides the status Verify reports for reference.
func (f *Fake) SetStatus(reference, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tx, ok := f.transactions[reference]; ok {
		tx.status = status
	}
}

// Initialize records the transaction.
func (f *Fake) Initialize(_ context.Context, req InitializeRequest) (*Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initErr != nil {
		return nil, f.initErr
	}
	f.transactions[req.Reference] = &fakeTransaction{amount: req.Amount, status: "success"}
	return &Authorization{
		AuthorizationURL: "https://checkout.fake.local/" + req.Reference,
		AccessCode:       "fake_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

// Verify reports the recorded status for reference.
func (f *Fake) Verify(_ context.Context, reference string) (*Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	tx, ok := f.transactions[reference]
	if !ok {
		return nil, fmt.Errorf("%w: unknown reference %s", ErrGatewayFailure, reference)
	}
	return &Verification{
		Reference: reference,
		Result:    ResultOf(tx.status),
		Status:    tx.status,
		Amount:    tx.amount,
	}, nil
}
