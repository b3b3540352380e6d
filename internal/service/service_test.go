package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mmynk/susu/internal/auth"
	"github.com/mmynk/susu/internal/gateway"
	"github.com/mmynk/susu/internal/metrics"
	"github.com/mmynk/susu/internal/middleware"
	"github.com/mmynk/susu/internal/rotation"
	"github.com/mmynk/susu/internal/storage"
	"github.com/mmynk/susu/internal/storage/sqlite"
	api "github.com/mmynk/susu/pkg/api"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// firstCandidate always picks the first eligible collector.
type firstCandidate struct{}

func (firstCandidate) IntN(int) int { return 0 }

type testEnv struct {
	auth     *api.AuthServiceClient
	groups   *api.GroupServiceClient
	payments *api.PaymentServiceClient
	gateway  *gateway.Fake
	clock    *testClock
	registry *prometheus.Registry
}

// setupTestServer wires every service behind the auth interceptor, the same
// way the server binary does, on a temp database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	clock := &testClock{t: baseTime}
	engine := &rotation.Engine{Now: clock.Now, Rand: firstCandidate{}, RequestTTL: rotation.DefaultRequestTTL}
	fake := gateway.NewFake()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	locks := NewGroupLocks()
	jwtManager := auth.NewJWTManager("test-secret-key-0123456789", time.Hour)

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager, api.AuthServiceRegisterProcedure, api.AuthServiceLoginProcedure),
		middleware.LoggingInterceptor(nil),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(NewAuthService(auth.NewPasswordAuthenticator(store), store, jwtManager, nil), interceptors))
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store, engine, locks, m, nil), interceptors))
	mux.Handle(api.NewPaymentServiceHandler(NewPaymentService(store, engine, fake, locks, m, nil), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		auth:     api.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:   api.NewGroupServiceClient(http.DefaultClient, server.URL),
		payments: api.NewPaymentServiceClient(http.DefaultClient, server.URL),
		gateway:  fake,
		clock:    clock,
		registry: registry,
	}
}

type testUser struct {
	id    string
	token string
}

func (e *testEnv) register(t *testing.T, name string) testUser {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "correct horse",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", name, err)
	}
	return testUser{id: resp.Msg.User.Id, token: resp.Msg.Token}
}

// as builds a request authenticated as u.
func as[T any](u testUser, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+u.token)
	return req
}

func (e *testEnv) createGroup(t *testing.T, creator testUser, limit int) *api.Group {
	t.Helper()
	resp, err := e.groups.CreateGroup(context.Background(), as(creator, &api.CreateGroupRequest{
		Name:               "Market Susu",
		ContributionAmount: "100",
		MemberLimit:        limit,
		CycleFrequency:     "weekly",
		StartDate:          timestamppb.New(baseTime),
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

// admit has each user request to join and the creator approve them, in order.
func (e *testEnv) admit(t *testing.T, groupID string, creator testUser, users ...testUser) *api.Group {
	t.Helper()
	ctx := context.Background()
	var group *api.Group
	for _, u := range users {
		if _, err := e.groups.RequestToJoin(ctx, as(u, &api.RequestToJoinRequest{GroupId: groupID})); err != nil {
			t.Fatalf("RequestToJoin(%s) failed: %v", u.id, err)
		}
		resp, err := e.groups.ApproveJoinRequest(ctx, as(creator, &api.ApproveJoinRequestRequest{GroupId: groupID, UserId: u.id}))
		if err != nil {
			t.Fatalf("ApproveJoinRequest(%s) failed: %v", u.id, err)
		}
		group = resp.Msg.Group
	}
	return group
}

// pay initializes and verifies a contribution from payer.
func (e *testEnv) pay(t *testing.T, groupID string, payer testUser) *api.VerifyPaymentResponse {
	t.Helper()
	ctx := context.Background()
	started, err := e.payments.InitializePayment(ctx, as(payer, &api.InitializePaymentRequest{GroupId: groupID, Amount: "100"}))
	if err != nil {
		t.Fatalf("InitializePayment(%s) failed: %v", payer.id, err)
	}
	verify, err := e.payments.VerifyPayment(ctx, as(payer, &api.VerifyPaymentRequest{Reference: started.Msg.Payment.Reference}))
	if err != nil {
		t.Fatalf("VerifyPayment(%s) failed: %v", started.Msg.Payment.Reference, err)
	}
	return verify.Msg
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

// counterValue reads one labelled counter from the test registry.
func counterValue(t *testing.T, env *testEnv, name, label string) float64 {
	t.Helper()
	families, err := env.registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{rotation.ErrAlreadyMember, connect.CodeAlreadyExists},
		{rotation.ErrDuplicateRequest, connect.CodeAlreadyExists},
		{rotation.ErrCapacityExceeded, connect.CodeFailedPrecondition},
		{rotation.ErrSelfPayment, connect.CodeFailedPrecondition},
		{rotation.ErrRequestNotFound, connect.CodeNotFound},
		{fmt.Errorf("group x: %w", storage.ErrNotFound), connect.CodeNotFound},
		{rotation.ErrNotCreator, connect.CodePermissionDenied},
		{rotation.ErrNotAMember, connect.CodePermissionDenied},
		{rotation.ErrRequestExpired, connect.CodeDeadlineExceeded},
		{fmt.Errorf("%w: %w", rotation.ErrExternalFailure, gateway.ErrGatewayFailure), connect.CodeUnavailable},
		{rotation.ErrInvalidAmount, connect.CodeInvalidArgument},
		{errors.New("disk on fire"), connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := codeOf(tt.err); got != tt.want {
				t.Errorf("codeOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestGroupLocks(t *testing.T) {
	locks := NewGroupLocks()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("group-1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if n := locks.size(); n != 0 {
		t.Errorf("expected idle locks to be dropped, %d remain", n)
	}
}
