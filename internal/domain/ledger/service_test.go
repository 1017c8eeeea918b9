package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consulthub/consulthub/internal/platform/auth"
)

type mockRepo struct {
	items map[uuid.UUID]*ConsultantEarning
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*ConsultantEarning)}
}

func (m *mockRepo) Create(_ context.Context, e *ConsultantEarning) error {
	for _, existing := range m.items {
		if existing.TransactionID == e.TransactionID {
			return ErrDuplicateEntry
		}
	}
	m.items[e.ID] = e
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*ConsultantEarning, error) {
	e, ok := m.items[id]
	if !ok {
		return nil, ErrEarningNotFound
	}
	return e, nil
}

func (m *mockRepo) GetByTransaction(_ context.Context, transactionID uuid.UUID) (*ConsultantEarning, error) {
	for _, e := range m.items {
		if e.TransactionID == transactionID {
			return e, nil
		}
	}
	return nil, ErrEarningNotFound
}

func (m *mockRepo) ListByConsultant(_ context.Context, consultantID uuid.UUID, _, _ int) ([]*ConsultantEarning, int, error) {
	var out []*ConsultantEarning
	for _, e := range m.items {
		if e.ConsultantID != nil && *e.ConsultantID == consultantID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) List(_ context.Context, _, _ int) ([]*ConsultantEarning, int, error) {
	var out []*ConsultantEarning
	for _, e := range m.items {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status PaymentStatus) error {
	e, ok := m.items[id]
	if !ok {
		return ErrEarningNotFound
	}
	e.PaymentStatus = status
	return nil
}

func TestRecordDistributionPersistsOneEntry(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	consultantID := uuid.New()
	txnID := uuid.New()

	e, err := svc.RecordDistribution(context.Background(), ConsultationFeePolicy, txnID, &consultantID, 1000)
	if err != nil {
		t.Fatalf("RecordDistribution: %v", err)
	}
	if e.NetEarning != 750 || e.TeamFee != 237.50 || e.WebsiteFee != 12.50 {
		t.Errorf("split = %v/%v/%v", e.NetEarning, e.TeamFee, e.WebsiteFee)
	}
	if e.PaymentStatus != PaymentPending {
		t.Errorf("payment status = %s, want pending", e.PaymentStatus)
	}
	if len(repo.items) != 1 {
		t.Fatalf("entry count = %d, want 1", len(repo.items))
	}

	// One ledger entry per transaction id, ever.
	if _, err := svc.RecordDistribution(context.Background(), ConsultationFeePolicy, txnID, &consultantID, 1000); err == nil {
		t.Error("expected duplicate entry error")
	}
	if len(repo.items) != 1 {
		t.Errorf("entry count = %d after duplicate attempt", len(repo.items))
	}
}

func TestListForActorScoping(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	mine := uuid.New()
	other := uuid.New()
	if _, err := svc.RecordDistribution(context.Background(), ConsultationFeePolicy, uuid.New(), &mine, 100); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordDistribution(context.Background(), ConsultationFeePolicy, uuid.New(), &other, 200); err != nil {
		t.Fatal(err)
	}

	items, total, err := svc.ListForActor(context.Background(), auth.Actor{UserID: mine, Role: auth.RoleConsultant}, 20, 0)
	if err != nil {
		t.Fatalf("ListForActor: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Errorf("consultant sees %d entries, want 1", total)
	}

	_, total, err = svc.ListForActor(context.Background(), auth.Actor{UserID: uuid.New(), Role: auth.RoleAdmin}, 20, 0)
	if err != nil {
		t.Fatalf("admin ListForActor: %v", err)
	}
	if total != 2 {
		t.Errorf("admin sees %d entries, want 2", total)
	}

	if _, _, err := svc.ListForActor(context.Background(), auth.Actor{UserID: uuid.New(), Role: auth.RoleClient}, 20, 0); err == nil {
		t.Error("client must not list earnings")
	}
}

func TestGetForActorScoping(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	mine := uuid.New()
	e, err := svc.RecordDistribution(context.Background(), ConsultationFeePolicy, uuid.New(), &mine, 100)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetForActor(context.Background(), auth.Actor{UserID: mine, Role: auth.RoleConsultant}, e.ID); err != nil {
		t.Errorf("owner consultant denied: %v", err)
	}
	if _, err := svc.GetForActor(context.Background(), auth.Actor{UserID: uuid.New(), Role: auth.RoleAdmin}, e.ID); err != nil {
		t.Errorf("admin denied: %v", err)
	}
	if _, err := svc.GetForActor(context.Background(), auth.Actor{UserID: uuid.New(), Role: auth.RoleConsultant}, e.ID); err == nil {
		t.Error("other consultant must not read the entry")
	}
	if _, err := svc.GetForActor(context.Background(), auth.Actor{UserID: mine, Role: auth.RoleConsultant}, uuid.New()); err == nil {
		t.Error("expected not found")
	}
}

func TestMarkPayment(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	consultantID := uuid.New()

	e, err := svc.RecordDistribution(context.Background(), ConsultationFeePolicy, uuid.New(), &consultantID, 500)
	if err != nil {
		t.Fatal(err)
	}

	admin := auth.Actor{UserID: uuid.New(), Role: auth.RoleAdmin}
	updated, err := svc.MarkPayment(context.Background(), admin, e.ID, PaymentPaid)
	if err != nil {
		t.Fatalf("MarkPayment: %v", err)
	}
	if updated.PaymentStatus != PaymentPaid {
		t.Errorf("payment status = %s, want paid", updated.PaymentStatus)
	}
	// Monetary fields are immutable.
	if updated.NetEarning != e.NetEarning || updated.Amount != e.Amount {
		t.Error("monetary fields changed on payment status update")
	}

	consultant := auth.Actor{UserID: consultantID, Role: auth.RoleConsultant}
	if _, err := svc.MarkPayment(context.Background(), consultant, e.ID, PaymentPaid); err == nil {
		t.Error("non-admin must not mark payments")
	}

	if _, err := svc.MarkPayment(context.Background(), admin, e.ID, "refunded"); err == nil {
		t.Error("unknown payment status accepted")
	}
}
