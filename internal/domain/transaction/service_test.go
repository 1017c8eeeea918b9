package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consulthub/consulthub/internal/domain/ledger"
	"github.com/consulthub/consulthub/internal/platform/auth"
)

type mockTxnRepo struct {
	items    map[uuid.UUID]*Transaction
	failNext bool
}

func newMockTxnRepo() *mockTxnRepo {
	return &mockTxnRepo{items: make(map[uuid.UUID]*Transaction)}
}

func (m *mockTxnRepo) Create(_ context.Context, t *Transaction) error {
	if m.failNext {
		return errors.New("insert failed")
	}
	m.items[t.ID] = t
	return nil
}

func (m *mockTxnRepo) GetByID(_ context.Context, id uuid.UUID) (*Transaction, error) {
	t, ok := m.items[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

func (m *mockTxnRepo) List(_ context.Context, f ListFilter, _, _ int) ([]*Transaction, int, error) {
	var out []*Transaction
	for _, t := range m.items {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.ConsultantID != nil && (t.ConsultantID == nil || *t.ConsultantID != *f.ConsultantID) {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

type mockEarningRepo struct {
	items    map[uuid.UUID]*ledger.ConsultantEarning
	failNext bool
}

func newMockEarningRepo() *mockEarningRepo {
	return &mockEarningRepo{items: make(map[uuid.UUID]*ledger.ConsultantEarning)}
}

func (m *mockEarningRepo) Create(_ context.Context, e *ledger.ConsultantEarning) error {
	if m.failNext {
		return errors.New("ledger write failed")
	}
	for _, existing := range m.items {
		if existing.TransactionID == e.TransactionID {
			return ledger.ErrDuplicateEntry
		}
	}
	m.items[e.ID] = e
	return nil
}

func (m *mockEarningRepo) GetByID(_ context.Context, id uuid.UUID) (*ledger.ConsultantEarning, error) {
	e, ok := m.items[id]
	if !ok {
		return nil, ledger.ErrEarningNotFound
	}
	return e, nil
}

func (m *mockEarningRepo) GetByTransaction(_ context.Context, transactionID uuid.UUID) (*ledger.ConsultantEarning, error) {
	for _, e := range m.items {
		if e.TransactionID == transactionID {
			return e, nil
		}
	}
	return nil, ledger.ErrEarningNotFound
}

func (m *mockEarningRepo) ListByConsultant(_ context.Context, _ uuid.UUID, _, _ int) ([]*ledger.ConsultantEarning, int, error) {
	return nil, 0, nil
}

func (m *mockEarningRepo) List(_ context.Context, _, _ int) ([]*ledger.ConsultantEarning, int, error) {
	return nil, 0, nil
}

func (m *mockEarningRepo) UpdatePaymentStatus(_ context.Context, _ uuid.UUID, _ ledger.PaymentStatus) error {
	return nil
}

// fakeTransactor imitates a shared transaction envelope: on failure both
// stores roll back to their pre-call state.
type fakeTransactor struct {
	txns     *mockTxnRepo
	earnings *mockEarningRepo
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txnSnap := make(map[uuid.UUID]*Transaction, len(t.txns.items))
	for k, v := range t.txns.items {
		txnSnap[k] = v
	}
	earnSnap := make(map[uuid.UUID]*ledger.ConsultantEarning, len(t.earnings.items))
	for k, v := range t.earnings.items {
		earnSnap[k] = v
	}

	if err := fn(ctx); err != nil {
		t.txns.items = txnSnap
		t.earnings.items = earnSnap
		return err
	}
	return nil
}

func newTestService() (*Service, *mockTxnRepo, *mockEarningRepo) {
	txns := newMockTxnRepo()
	earnings := newMockEarningRepo()
	ledgerSvc := ledger.NewService(earnings, zerolog.Nop())
	svc := NewService(txns, ledgerSvc, &fakeTransactor{txns: txns, earnings: earnings}, zerolog.Nop())
	return svc, txns, earnings
}

func admin() auth.Actor {
	return auth.Actor{UserID: uuid.New(), Role: auth.RoleAdmin}
}

func amount(v float64) *float64 { return &v }

func TestRecordConsultationFee(t *testing.T) {
	svc, txns, earnings := newTestService()
	consultantID := uuid.New()

	txn, entry, err := svc.Record(context.Background(), admin(), RecordInput{
		Type:         TypeConsultationFee,
		Amount:       amount(1000),
		ConsultantID: &consultantID,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(txns.items) != 1 {
		t.Fatalf("transaction count = %d", len(txns.items))
	}
	if entry == nil {
		t.Fatal("no ledger entry for consultation fee")
	}
	if entry.ConsultantID == nil || *entry.ConsultantID != consultantID {
		t.Error("ledger entry not tied to consultant")
	}
	if entry.TransactionID != txn.ID {
		t.Error("ledger entry not tied to transaction")
	}
	if entry.NetEarning != 750 || entry.TeamFee != 237.50 || entry.WebsiteFee != 12.50 {
		t.Errorf("split = %v/%v/%v", entry.NetEarning, entry.TeamFee, entry.WebsiteFee)
	}
	if len(earnings.items) != 1 {
		t.Errorf("earning count = %d, want 1", len(earnings.items))
	}
}

func TestRecordTeamDistribution(t *testing.T) {
	svc, _, _ := newTestService()

	_, entry, err := svc.Record(context.Background(), admin(), RecordInput{
		Type:             TypeGrant,
		Amount:           amount(1000),
		DistributeToTeam: true,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if entry == nil {
		t.Fatal("no ledger entry for team distribution")
	}
	if entry.ConsultantID != nil {
		t.Error("team distribution must carry a null consultant")
	}
	if entry.NetEarning != 0 || entry.TeamFee != 950 || entry.WebsiteFee != 50 {
		t.Errorf("split = %v/%v/%v", entry.NetEarning, entry.TeamFee, entry.WebsiteFee)
	}
	if entry.CommissionRate != 0 {
		t.Errorf("commission rate = %v, want 0", entry.CommissionRate)
	}
}

func TestRecordPlainTransactionSkipsDistribution(t *testing.T) {
	svc, txns, earnings := newTestService()

	_, entry, err := svc.Record(context.Background(), admin(), RecordInput{
		Type:   TypeOther,
		Amount: amount(500),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if entry != nil {
		t.Error("unexpected ledger entry for plain transaction")
	}
	if len(txns.items) != 1 {
		t.Errorf("transaction count = %d", len(txns.items))
	}
	if len(earnings.items) != 0 {
		t.Errorf("earning count = %d, want 0", len(earnings.items))
	}
}

func TestRecordValidation(t *testing.T) {
	svc, txns, _ := newTestService()

	cases := []struct {
		name string
		in   RecordInput
	}{
		{"unknown type", RecordInput{Type: "tip", Amount: amount(10)}},
		{"missing amount", RecordInput{Type: TypeOther}},
		{"zero amount", RecordInput{Type: TypeOther, Amount: amount(0)}},
		{"negative amount", RecordInput{Type: TypeOther, Amount: amount(-5)}},
		{"fee without consultant", RecordInput{Type: TypeConsultationFee, Amount: amount(10)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Record(context.Background(), admin(), tc.in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			if len(txns.items) != 0 {
				t.Error("transaction inserted despite validation failure")
			}
		})
	}
}

// The insert and the ledger write share one transactional envelope: a ledger
// failure rolls the transaction insert back too.
func TestRecordRollsBackOnLedgerFailure(t *testing.T) {
	svc, txns, earnings := newTestService()
	consultantID := uuid.New()

	earnings.failNext = true
	_, _, err := svc.Record(context.Background(), admin(), RecordInput{
		Type:         TypeConsultationFee,
		Amount:       amount(1000),
		ConsultantID: &consultantID,
	})
	if err == nil {
		t.Fatal("expected error from failing ledger write")
	}
	if len(txns.items) != 0 {
		t.Error("transaction retained despite ledger failure")
	}
	if len(earnings.items) != 0 {
		t.Error("earning retained despite failure")
	}
}

func TestRecordDuplicateDistribution(t *testing.T) {
	earnings := newMockEarningRepo()
	consultantID := uuid.New()

	// Two distributions for one transaction id must not both land.
	txnID := uuid.New()
	ledgerSvc := ledger.NewService(earnings, zerolog.Nop())
	if _, err := ledgerSvc.RecordDistribution(context.Background(), ledger.ConsultationFeePolicy, txnID, &consultantID, 100); err != nil {
		t.Fatalf("first distribution: %v", err)
	}
	_, err := ledgerSvc.RecordDistribution(context.Background(), ledger.ConsultationFeePolicy, txnID, &consultantID, 100)
	if !errors.Is(err, ledger.ErrDuplicateEntry) {
		t.Fatalf("error = %v, want ErrDuplicateEntry", err)
	}
	if len(earnings.items) != 1 {
		t.Errorf("earning count = %d, want 1", len(earnings.items))
	}
}

func TestListFilters(t *testing.T) {
	svc, _, _ := newTestService()
	consultantID := uuid.New()

	if _, _, err := svc.Record(context.Background(), admin(), RecordInput{
		Type: TypeConsultationFee, Amount: amount(100), ConsultantID: &consultantID,
	}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Record(context.Background(), admin(), RecordInput{
		Type: TypeGrant, Amount: amount(500),
	}); err != nil {
		t.Fatal(err)
	}

	_, total, err := svc.List(context.Background(), ListFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("unfiltered total = %d, want 2", total)
	}

	items, total, err := svc.List(context.Background(), ListFilter{Type: TypeGrant}, 20, 0)
	if err != nil {
		t.Fatalf("List by type: %v", err)
	}
	if total != 1 || items[0].Type != TypeGrant {
		t.Errorf("type filter returned %d items", total)
	}

	_, total, err = svc.List(context.Background(), ListFilter{ConsultantID: &consultantID}, 20, 0)
	if err != nil {
		t.Fatalf("List by consultant: %v", err)
	}
	if total != 1 {
		t.Errorf("consultant filter total = %d, want 1", total)
	}

	if _, _, err := svc.List(context.Background(), ListFilter{Type: "refund"}, 20, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown type filter error = %v, want ErrValidation", err)
	}
}
