package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/susu/internal/gateway"
	api "github.com/mmynk/susu/pkg/api"
)

// pairGroup returns a two-member group where kojo is the collector.
func pairGroup(t *testing.T, env *testEnv) (g *api.Group, ama, kojo testUser) {
	t.Helper()
	ama = env.register(t, "ama")
	kojo = env.register(t, "kojo")
	g = env.createGroup(t, ama, 3)
	g = env.admit(t, g.Id, ama, kojo)
	if g.NextCollector != kojo.id {
		t.Fatalf("NextCollector = %s, want kojo", g.NextCollector)
	}
	return g, ama, kojo
}

func (e *testEnv) listPayments(t *testing.T, u testUser, groupID string) []*api.Payment {
	t.Helper()
	resp, err := e.payments.ListPayments(context.Background(), as(u, &api.ListPaymentsRequest{GroupId: groupID}))
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	return resp.Msg.Payments
}

func TestInitializePayment(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	g, ama, kojo := pairGroup(t, env)

	resp, err := env.payments.InitializePayment(ctx, as(ama, &api.InitializePaymentRequest{GroupId: g.Id, Amount: "100"}))
	if err != nil {
		t.Fatalf("InitializePayment failed: %v", err)
	}
	p := resp.Msg.Payment
	if p.Status != "pending" {
		t.Errorf("Status = %s, want pending", p.Status)
	}
	if p.Payer != ama.id || p.Recipient != kojo.id {
		t.Errorf("got %s -> %s, want ama -> kojo", p.Payer, p.Recipient)
	}
	if p.Round != 1 {
		t.Errorf("Round = %d, want 1", p.Round)
	}
	if p.AuthorizationUrl == "" || resp.Msg.AccessCode == "" {
		t.Error("expected gateway authorization details")
	}

	payments := env.listPayments(t, kojo, g.Id)
	if len(payments) != 1 || payments[0].Reference != p.Reference {
		t.Errorf("ListPayments = %v, want the new payment", payments)
	}
}

func TestInitializePaymentRejected(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	g, ama, kojo := pairGroup(t, env)
	outsider := env.register(t, "yaw")

	solo := env.createGroup(t, ama, 3)

	tests := []struct {
		name    string
		user    testUser
		groupID string
		amount  string
		want    connect.Code
	}{
		{"collector pays self", kojo, g.Id, "100", connect.CodeFailedPrecondition},
		{"no collector yet", ama, solo.Id, "100", connect.CodeFailedPrecondition},
		{"not a member", outsider, g.Id, "100", connect.CodePermissionDenied},
		{"negative amount", ama, g.Id, "-5", connect.CodeInvalidArgument},
		{"unknown group", ama, "missing", "100", connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.payments.InitializePayment(ctx, as(tt.user, &api.InitializePaymentRequest{GroupId: tt.groupID, Amount: tt.amount}))
			assertCode(t, err, tt.want)
		})
	}

	if payments := env.listPayments(t, ama, g.Id); len(payments) != 0 {
		t.Errorf("expected no payment records, got %d", len(payments))
	}
}

func TestInitializePaymentGatewayFailure(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	g, ama, _ := pairGroup(t, env)

	env.gateway.FailInitialize(gateway.ErrGatewayFailure)
	_, err := env.payments.InitializePayment(ctx, as(ama, &api.InitializePaymentRequest{GroupId: g.Id, Amount: "100"}))
	assertCode(t, err, connect.CodeUnavailable)

	if payments := env.listPayments(t, ama, g.Id); len(payments) != 0 {
		t.Errorf("expected no payment after gateway failure, got %d", len(payments))
	}

	env.gateway.FailInitialize(nil)
	if _, err := env.payments.InitializePayment(ctx, as(ama, &api.InitializePaymentRequest{GroupId: g.Id, Amount: "100"})); err != nil {
		t.Errorf("InitializePayment after recovery failed: %v", err)
	}
}

func TestVerifyPaymentIdempotent(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	g, ama, kojo := pairGroup(t, env)

	started, err := env.payments.InitializePayment(ctx, as(ama, &api.InitializePaymentRequest{GroupId: g.Id, Amount: "100"}))
	if err != nil {
		t.Fatalf("InitializePayment failed: %v", err)
	}
	ref := started.Msg.Payment.Reference

	first, err := env.payments.VerifyPayment(ctx, as(ama, &api.VerifyPaymentRequest{Reference: ref}))
	if err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}
	if !first.Msg.Applied || first.Msg.Payment.Status != "complete" {
		t.Errorf("first verify: applied=%v status=%s, want applied complete", first.Msg.Applied, first.Msg.Payment.Status)
	}
	// order is [ama, kojo]: the collector after ama is kojo
	if first.Msg.Group.NextCollector != kojo.id || first.Msg.Group.CurrentRound != 1 {
		t.Errorf("after first verify: collector %s round %d", first.Msg.Group.NextCollector, first.Msg.Group.CurrentRound)
	}

	second, err := env.payments.VerifyPayment(ctx, as(kojo, &api.VerifyPaymentRequest{Reference: ref}))
	if err != nil {
		t.Fatalf("second VerifyPayment failed: %v", err)
	}
	if second.Msg.Applied {
		t.Error("second verify should be a no-op")
	}
	if second.Msg.Group.NextCollector != first.Msg.Group.NextCollector || second.Msg.Group.CurrentRound != first.Msg.Group.CurrentRound {
		t.Error("second verify changed the group")
	}
	if got := counterValue(t, env, "susu_payments_verified_total", "noop"); got != 1 {
		t.Errorf("noop verifications = %v, want 1", got)
	}
}

func TestVerifyPaymentFailedAtGateway(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	g, ama, kojo := pairGroup(t, env)

	started, err := env.payments.InitializePayment(ctx, as(ama, &api.InitializePaymentRequest{GroupId: g.Id, Amount: "100"}))
	if err != nil {
		t.Fatalf("InitializePayment failed: %v", err)
	}
	ref := started.Msg.Payment.Reference
	env.gateway.SetStatus(ref, "failed")

	resp, err := env.payments.VerifyPayment(ctx, as(ama, &api.VerifyPaymentRequest{Reference: ref}))
	if err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}
	if resp.Msg.Payment.Status != "failed" {
		t.Errorf("Status = %s, want failed", resp.Msg.Payment.Status)
	}
	if resp.Msg.Group.NextCollector != kojo.id {
		t.Errorf("failed payment moved the collector to %s", resp.Msg.Group.NextCollector)
	}

	// failed is terminal even if the gateway later reports success
	env.gateway.SetStatus(ref, "success")
	again, err := env.payments.VerifyPayment(ctx, as(ama, &api.VerifyPaymentRequest{Reference: ref}))
	if err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}
	if again.Msg.Applied || again.Msg.Payment.Status != "failed" {
		t.Errorf("re-verify: applied=%v status=%s", again.Msg.Applied, again.Msg.Payment.Status)
	}
}

func TestVerifyPaymentStillOpenAtGateway(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	g, ama, kojo := pairGroup(t, env)

	started, err := env.payments.InitializePayment(ctx, as(ama, &api.InitializePaymentRequest{GroupId: g.Id, Amount: "100"}))
	if err != nil {
		t.Fatalf("InitializePayment failed: %v", err)
	}
	ref := started.Msg.Payment.Reference

	for _, status := range []string{"ongoing", "abandoned"} {
		env.gateway.SetStatus(ref, status)
		resp, err := env.payments.VerifyPayment(ctx, as(kojo, &api.VerifyPaymentRequest{Reference: ref}))
		if err != nil {
			t.Fatalf("VerifyPayment while %s failed: %v", status, err)
		}
		if resp.Msg.Applied || resp.Msg.Payment.Status != "pending" {
			t.Errorf("while %s: applied=%v status=%s, want unapplied pending", status, resp.Msg.Applied, resp.Msg.Payment.Status)
		}
		if resp.Msg.Group.NextCollector != kojo.id {
			t.Errorf("while %s: collector moved to %s", status, resp.Msg.Group.NextCollector)
		}
	}
	if got := counterValue(t, env, "susu_payments_verified_total", "pending"); got != 2 {
		t.Errorf("pending verifications = %v, want 2", got)
	}

	env.gateway.SetStatus(ref, "success")
	resp, err := env.payments.VerifyPayment(ctx, as(kojo, &api.VerifyPaymentRequest{Reference: ref}))
	if err != nil {
		t.Fatalf("VerifyPayment after success failed: %v", err)
	}
	if !resp.Msg.Applied || resp.Msg.Payment.Status != "complete" {
		t.Errorf("after success: applied=%v status=%s", resp.Msg.Applied, resp.Msg.Payment.Status)
	}
	if got := counterValue(t, env, "susu_payments_verified_total", "complete"); got != 1 {
		t.Errorf("complete verifications = %v, want 1", got)
	}
}

func TestVerifyPaymentGatewayUnavailable(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	g, ama, _ := pairGroup(t, env)

	started, err := env.payments.InitializePayment(ctx, as(ama, &api.InitializePaymentRequest{GroupId: g.Id, Amount: "100"}))
	if err != nil {
		t.Fatalf("InitializePayment failed: %v", err)
	}
	ref := started.Msg.Payment.Reference

	env.gateway.FailVerify(gateway.ErrGatewayFailure)
	_, err = env.payments.VerifyPayment(ctx, as(ama, &api.VerifyPaymentRequest{Reference: ref}))
	assertCode(t, err, connect.CodeUnavailable)

	payments := env.listPayments(t, ama, g.Id)
	if len(payments) != 1 || payments[0].Status != "pending" {
		t.Fatalf("payment should stay pending, got %v", payments)
	}

	env.gateway.FailVerify(nil)
	resp, err := env.payments.VerifyPayment(ctx, as(ama, &api.VerifyPaymentRequest{Reference: ref}))
	if err != nil {
		t.Fatalf("VerifyPayment after recovery failed: %v", err)
	}
	if !resp.Msg.Applied {
		t.Error("expected the retried verification to apply")
	}
}

func TestVerifyPaymentLookup(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	g, ama, _ := pairGroup(t, env)
	outsider := env.register(t, "yaw")

	_, err := env.payments.VerifyPayment(ctx, as(ama, &api.VerifyPaymentRequest{Reference: "susu_unknown"}))
	assertCode(t, err, connect.CodeNotFound)

	started, err := env.payments.InitializePayment(ctx, as(ama, &api.InitializePaymentRequest{GroupId: g.Id, Amount: "100"}))
	if err != nil {
		t.Fatalf("InitializePayment failed: %v", err)
	}
	_, err = env.payments.VerifyPayment(ctx, as(outsider, &api.VerifyPaymentRequest{Reference: started.Msg.Payment.Reference}))
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestThreeMemberCycle(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	ama := env.register(t, "ama")
	kojo := env.register(t, "kojo")
	esi := env.register(t, "esi")
	g := env.createGroup(t, ama, 3)
	g = env.admit(t, g.Id, ama, kojo, esi)

	if want := []string{ama.id, kojo.id, esi.id}; !equalIDs(g.CollectionOrder, want) {
		t.Fatalf("CollectionOrder = %v, want join order %v", g.CollectionOrder, want)
	}
	if g.NextCollector != kojo.id {
		t.Fatalf("NextCollector = %s, want kojo", g.NextCollector)
	}

	steps := []struct {
		payer         testUser
		wantCollector testUser
		wantRound     int
		wantWrap      bool
	}{
		{ama, kojo, 1, false},
		{esi, ama, 2, true},
		{kojo, esi, 2, false},
		{ama, kojo, 2, false},
		{esi, ama, 3, true},
		{kojo, esi, 3, false},
		{ama, kojo, 3, false},
		{esi, ama, 4, true},
	}
	for i, step := range steps {
		got := env.pay(t, g.Id, step.payer)
		if got.Group.NextCollector != step.wantCollector.id {
			t.Errorf("step %d: NextCollector = %s, want %s", i, got.Group.NextCollector, step.wantCollector.id)
		}
		if got.Group.CurrentRound != step.wantRound {
			t.Errorf("step %d: CurrentRound = %d, want %d", i, got.Group.CurrentRound, step.wantRound)
		}
		if got.RoundCompleted != step.wantWrap {
			t.Errorf("step %d: RoundCompleted = %v, want %v", i, got.RoundCompleted, step.wantWrap)
		}
		last := i == len(steps)-1
		if got.CycleCompleted != last {
			t.Errorf("step %d: CycleCompleted = %v", i, got.CycleCompleted)
		}
		wantStatus := "active"
		if last {
			wantStatus = "completed"
		}
		if got.Group.Status != wantStatus {
			t.Errorf("step %d: Status = %s, want %s", i, got.Group.Status, wantStatus)
		}
	}

	_, err := env.payments.InitializePayment(ctx, as(kojo, &api.InitializePaymentRequest{GroupId: g.Id, Amount: "100"}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	if got := counterValue(t, env, "susu_payments_verified_total", "complete"); got != float64(len(steps)) {
		t.Errorf("complete verifications = %v, want %d", got, len(steps))
	}
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
