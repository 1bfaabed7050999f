package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
	"github.com/peterclermy232/banking-system-backend/internal/fees"
	"github.com/peterclermy232/banking-system-backend/internal/ledger"
	"github.com/peterclermy232/banking-system-backend/internal/ledger/ledgertest"
)

const (
	memberAlice int64 = 101
	memberBob   int64 = 202
)

func newTestEngine(db *ledgertest.FakeDB) *ledger.Engine {
	return ledger.NewEngine(
		db.Store(),
		db.Accounts(),
		db.Transactions(),
		db.Goals(),
		db.Outbox(),
		fees.NewCalculator(fees.DefaultSchedule()),
		zap.NewNop(),
	)
}

func account(number string, memberID int64, balance, minimum string) domain.Account {
	return domain.Account{
		AccountNumber:  number,
		AccountType:    domain.AccountTypeCurrent,
		Balance:        dec(balance),
		MinimumBalance: dec(minimum),
		Status:         domain.AccountStatusActive,
		MemberID:       memberID,
		MemberNumber:   "MBR-0101",
	}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestInternalTransferScenario(t *testing.T) {
	db := ledgertest.NewFakeDB()
	db.AddAccount(account("ACC-1001", memberAlice, "20000.00", "0"))
	db.AddAccount(account("ACC-1002", memberBob, "5000.00", "0"))
	engine := newTestEngine(db)

	// 15,000 falls in the <=50,000 tier: fee 20.00.
	txn, err := engine.InternalTransfer(context.Background(), memberAlice,
		"ACC-1001", "ACC-1002", dec("15000"), "rent", "REF-1")
	if err != nil {
		t.Fatalf("InternalTransfer: %v", err)
	}

	if got := db.Balance("ACC-1001"); !got.Equal(dec("4980.00")) {
		t.Errorf("source balance = %s, want 4980.00", got)
	}
	if got := db.Balance("ACC-1002"); !got.Equal(dec("20000.00")) {
		t.Errorf("destination balance = %s, want 20000.00", got)
	}
	if txn.Status != domain.TransactionStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", txn.Status)
	}
	if !txn.Fee.Equal(dec("20.00")) {
		t.Errorf("fee = %s, want 20.00", txn.Fee)
	}
	if txn.FromAccountID == nil || txn.ToAccountID == nil {
		t.Error("internal transfer must reference both accounts")
	}
	if txn.ProcessedAt == nil {
		t.Error("completed transaction must have a processed timestamp")
	}
	if len(db.OutboxMessages()) == 0 {
		t.Error("expected a notification event in the outbox")
	}
}

func TestInternalTransferConservation(t *testing.T) {
	db := ledgertest.NewFakeDB()
	db.AddAccount(account("ACC-1001", memberAlice, "80000.00", "0"))
	db.AddAccount(account("ACC-1002", memberBob, "12345.67", "0"))
	engine := newTestEngine(db)

	before := db.Balance("ACC-1001").Add(db.Balance("ACC-1002"))

	txn, err := engine.InternalTransfer(context.Background(), memberAlice,
		"ACC-1001", "ACC-1002", dec("7777.77"), "", "")
	if err != nil {
		t.Fatalf("InternalTransfer: %v", err)
	}

	after := db.Balance("ACC-1001").Add(db.Balance("ACC-1002"))
	if !after.Equal(before.Sub(txn.Fee)) {
		t.Errorf("money not conserved: before %s, after %s, fee %s", before, after, txn.Fee)
	}
}

func TestInternalTransferInsufficientFunds(t *testing.T) {
	db := ledgertest.NewFakeDB()
	db.AddAccount(account("ACC-1001", memberAlice, "1000.00", "0"))
	db.AddAccount(account("ACC-1002", memberBob, "500.00", "0"))
	engine := newTestEngine(db)

	// 1000 + fee 10 exceeds the balance.
	_, err := engine.InternalTransfer(context.Background(), memberAlice,
		"ACC-1001", "ACC-1002", dec("1000"), "", "")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	if got := db.Balance("ACC-1001"); !got.Equal(dec("1000.00")) {
		t.Errorf("source balance changed to %s on failed transfer", got)
	}
	if got := db.Balance("ACC-1002"); !got.Equal(dec("500.00")) {
		t.Errorf("destination balance changed to %s on failed transfer", got)
	}
	if len(db.OutboxMessages()) != 0 {
		t.Error("failed transfer must not enqueue notifications")
	}
}

func TestMinimumBalanceEnforcedOnEveryDebit(t *testing.T) {
	// 2000 available above the minimum; 1995 + fee 10 breaches it even
	// though the raw balance would cover the debit.
	db := ledgertest.NewFakeDB()
	db.AddAccount(account("ACC-1001", memberAlice, "5000.00", "3000.00"))
	db.AddAccount(account("ACC-1002", memberBob, "0", "0"))
	db.AddAccount(account("ACC-1003", memberAlice, "5000.00", "3000.00"))
	engine := newTestEngine(db)

	if _, err := engine.InternalTransfer(context.Background(), memberAlice,
		"ACC-1001", "ACC-1002", dec("1995"), "", ""); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("internal transfer: err = %v, want ErrInsufficientFunds", err)
	}
	if _, err := engine.Withdraw(context.Background(), memberAlice,
		"ACC-1001", dec("1990"), "", ""); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("withdrawal: err = %v, want ErrInsufficientFunds", err)
	}
	if _, err := engine.ExternalTransfer(context.Background(), memberAlice,
		"ACC-1001", "254700000001", ledger.RailMobileMoney, dec("1990"), "", ""); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("external transfer: err = %v, want ErrInsufficientFunds", err)
	}
	if _, err := engine.SavingsDeposit(context.Background(), memberAlice,
		"ACC-1001", "ACC-1003", dec("2001"), nil, ""); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("savings deposit: err = %v, want ErrInsufficientFunds", err)
	}

	if got := db.Balance("ACC-1001"); !got.Equal(dec("5000.00")) {
		t.Errorf("balance = %s after rejected debits, want 5000.00", got)
	}
}

func TestInternalTransferPreconditions(t *testing.T) {
	newDB := func() *ledgertest.FakeDB {
		db := ledgertest.NewFakeDB()
		db.AddAccount(account("ACC-1001", memberAlice, "10000.00", "0"))
		db.AddAccount(account("ACC-1002", memberBob, "10000.00", "0"))
		frozen := account("ACC-1003", memberAlice, "10000.00", "0")
		frozen.Status = domain.AccountStatusFrozen
		db.AddAccount(frozen)
		blocked := account("ACC-1004", memberBob, "10000.00", "0")
		blocked.Status = domain.AccountStatusBlocked
		db.AddAccount(blocked)
		return db
	}

	tests := []struct {
		name    string
		caller  int64
		from    string
		to      string
		amount  string
		wantErr error
	}{
		{"caller does not own source", memberBob, "ACC-1001", "ACC-1002", "100", domain.ErrNotAccountOwner},
		{"zero amount", memberAlice, "ACC-1001", "ACC-1002", "0", domain.ErrInvalidAmount},
		{"negative amount", memberAlice, "ACC-1001", "ACC-1002", "-10", domain.ErrInvalidAmount},
		{"same account", memberAlice, "ACC-1001", "ACC-1001", "100", domain.ErrSameAccount},
		{"unknown source", memberAlice, "ACC-9999", "ACC-1002", "100", domain.ErrAccountNotFound},
		{"unknown destination", memberAlice, "ACC-1001", "ACC-9999", "100", domain.ErrAccountNotFound},
		{"frozen source", memberAlice, "ACC-1003", "ACC-1002", "100", domain.ErrAccountNotActive},
		{"blocked destination", memberAlice, "ACC-1001", "ACC-1004", "100", domain.ErrAccountNotActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newDB()
			engine := newTestEngine(db)
			_, err := engine.InternalTransfer(context.Background(), tt.caller,
				tt.from, tt.to, dec(tt.amount), "", "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if got := db.Balance("ACC-1001"); !got.Equal(dec("10000.00")) {
				t.Errorf("source mutated on precondition failure: %s", got)
			}
		})
	}
}

func TestDeposit(t *testing.T) {
	db := ledgertest.NewFakeDB()
	db.AddAccount(account("ACC-1001", memberAlice, "100.00", "0"))
	engine := newTestEngine(db)

	txn, err := engine.Deposit(context.Background(), "ACC-1001", dec("2500"), ledger.ChannelMobileMoney, "", "MM-778")
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	if got := db.Balance("ACC-1001"); !got.Equal(dec("2600.00")) {
		t.Errorf("balance = %s, want 2600.00", got)
	}
	if !txn.Fee.IsZero() {
		t.Errorf("deposit fee = %s, want 0", txn.Fee)
	}
	if txn.TransactionType != domain.TransactionTypeMobileMoneyDeposit {
		t.Errorf("type = %s, want MOBILE_MONEY_DEPOSIT", txn.TransactionType)
	}
	if txn.FromAccountID != nil || txn.ToAccountID == nil {
		t.Error("pure deposit must set only the destination account")
	}
}

func TestDepositRejectedForInactiveAccount(t *testing.T) {
	db := ledgertest.NewFakeDB()
	frozen := account("ACC-1001", memberAlice, "100.00", "0")
	frozen.Status = domain.AccountStatusFrozen
	db.AddAccount(frozen)
	engine := newTestEngine(db)

	_, err := engine.Deposit(context.Background(), "ACC-1001", dec("50"), ledger.ChannelCash, "", "")
	if !errors.Is(err, domain.ErrAccountNotActive) {
		t.Fatalf("err = %v, want ErrAccountNotActive", err)
	}
	if got := db.Balance("ACC-1001"); !got.Equal(dec("100.00")) {
		t.Errorf("balance mutated on rejected deposit: %s", got)
	}
}

func TestWithdraw(t *testing.T) {
	db := ledgertest.NewFakeDB()
	db.AddAccount(account("ACC-1001", memberAlice, "20000.00", "0"))
	engine := newTestEngine(db)

	// 1% of 10,000 = 100.00 withdrawal fee.
	txn, err := engine.Withdraw(context.Background(), memberAlice, "ACC-1001", dec("10000"), "", "")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	if got := db.Balance("ACC-1001"); !got.Equal(dec("9900.00")) {
		t.Errorf("balance = %s, want 9900.00", got)
	}
	if !txn.Fee.Equal(dec("100.00")) {
		t.Errorf("fee = %s, want 100.00", txn.Fee)
	}
	if txn.FromAccountID == nil || txn.ToAccountID != nil {
		t.Error("withdrawal must set only the source account")
	}
}

func TestSavingsDepositWithGoal(t *testing.T) {
	db := ledgertest.NewFakeDB()
	db.AddAccount(account("ACC-1001", memberAlice, "50000.00", "0"))
	savings := account("SAV-2001", memberAlice, "1000.00", "0")
	savings.AccountType = domain.AccountTypeSavings
	db.AddAccount(savings)
	goalID := db.AddGoal(domain.SavingsGoal{
		MemberID:     memberAlice,
		MemberNumber: "MBR-0101",
		Name:         "Land purchase",
		TargetAmount: dec("10000"),
		Status:       domain.GoalStatusActive,
	})
	engine := newTestEngine(db)

	txn, err := engine.SavingsDeposit(context.Background(), memberAlice,
		"ACC-1001", "SAV-2001", dec("4000"), &goalID, "")
	if err != nil {
		t.Fatalf("SavingsDeposit: %v", err)
	}
	if !txn.Fee.IsZero() {
		t.Errorf("savings deposit fee = %s, want 0", txn.Fee)
	}
	if goal := db.Goal(goalID); !goal.CurrentAmount.Equal(dec("4000")) || goal.Status != domain.GoalStatusActive {
		t.Errorf("goal = %s/%s, want 4000/ACTIVE", goal.CurrentAmount, goal.Status)
	}

	// Overflowing the target completes the goal and keeps the excess.
	if _, err := engine.SavingsDeposit(context.Background(), memberAlice,
		"ACC-1001", "SAV-2001", dec("7000"), &goalID, ""); err != nil {
		t.Fatalf("second SavingsDeposit: %v", err)
	}
	goal := db.Goal(goalID)
	if goal.Status != domain.GoalStatusCompleted {
		t.Errorf("goal status = %s, want COMPLETED", goal.Status)
	}
	if !goal.CurrentAmount.Equal(dec("11000")) {
		t.Errorf("goal amount = %s, want 11000 (overflow kept)", goal.CurrentAmount)
	}
	if goal.CompletedAt == nil {
		t.Error("completed goal must record its completion time")
	}

	// A completed goal never blocks further deposits.
	if _, err := engine.SavingsDeposit(context.Background(), memberAlice,
		"ACC-1001", "SAV-2001", dec("500"), &goalID, ""); err != nil {
		t.Fatalf("deposit after goal completion: %v", err)
	}
	if got := db.Balance("SAV-2001"); !got.Equal(dec("12500.00")) {
		t.Errorf("savings balance = %s, want 12500.00", got)
	}
}

func TestExternalTransferPhaseOne(t *testing.T) {
	db := ledgertest.NewFakeDB()
	db.AddAccount(account("ACC-1001", memberAlice, "10000.00", "0"))
	engine := newTestEngine(db)

	// Mobile-money band for 1,200 is exactly 13.00.
	txn, err := engine.ExternalTransfer(context.Background(), memberAlice,
		"ACC-1001", "254700000001", ledger.RailMobileMoney, dec("1200"), "school fees", "")
	if err != nil {
		t.Fatalf("ExternalTransfer: %v", err)
	}

	if txn.Status != domain.TransactionStatusProcessing {
		t.Errorf("status = %s, want PROCESSING before settlement", txn.Status)
	}
	if !txn.Fee.Equal(dec("13.00")) {
		t.Errorf("fee = %s, want 13.00", txn.Fee)
	}
	if got := db.Balance("ACC-1001"); !got.Equal(dec("8787.00")) {
		t.Errorf("balance = %s, want 8787.00 (debited before settlement)", got)
	}
	if txn.ToAccountID != nil {
		t.Error("external transfer must not reference an internal destination")
	}
	if txn.ExternalReference != "254700000001" {
		t.Errorf("external reference = %q", txn.ExternalReference)
	}
}

func TestConcurrentTransfersNoLostUpdates(t *testing.T) {
	db := ledgertest.NewFakeDB()
	db.AddAccount(account("ACC-1001", memberAlice, "10000.00", "0"))
	db.AddAccount(account("ACC-1002", memberBob, "0", "0"))
	engine := newTestEngine(db)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 100 per transfer, fee 10 in the bottom tier.
			_, err := engine.InternalTransfer(context.Background(), memberAlice,
				"ACC-1001", "ACC-1002", dec("100"), "", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent transfer failed: %v", err)
		}
	}

	// 25 transfers of 100+10: net change must be exactly N x (A+fee).
	if got := db.Balance("ACC-1001"); !got.Equal(dec("7250.00")) {
		t.Errorf("source balance = %s, want 7250.00", got)
	}
	if got := db.Balance("ACC-1002"); !got.Equal(dec("2500.00")) {
		t.Errorf("destination balance = %s, want 2500.00", got)
	}
}

func TestCompensationIdempotent(t *testing.T) {
	db := ledgertest.NewFakeDB()
	db.AddAccount(account("ACC-1001", memberAlice, "10000.00", "0"))
	engine := newTestEngine(db)

	txn, err := engine.ExternalTransfer(context.Background(), memberAlice,
		"ACC-1001", "BANK-ACC-77", ledger.RailInterbank, dec("2000"), "", "")
	if err != nil {
		t.Fatalf("ExternalTransfer: %v", err)
	}
	debited := db.Balance("ACC-1001")

	if err := engine.CompensateExternal(context.Background(), txn.TransactionID,
		domain.TransactionStatusFailed, "rail rejected"); err != nil {
		t.Fatalf("CompensateExternal: %v", err)
	}
	if got := db.Balance("ACC-1001"); !got.Equal(dec("10000.00")) {
		t.Errorf("balance = %s after compensation, want 10000.00", got)
	}

	// Replaying the compensation must not credit the account again.
	if err := engine.CompensateExternal(context.Background(), txn.TransactionID,
		domain.TransactionStatusFailed, "rail rejected"); err != nil {
		t.Fatalf("replayed CompensateExternal: %v", err)
	}
	if got := db.Balance("ACC-1001"); !got.Equal(dec("10000.00")) {
		t.Errorf("balance = %s after replay, want 10000.00 (credited twice?)", got)
	}

	stored, ok := db.Transaction(txn.TransactionID)
	if !ok || stored.Status != domain.TransactionStatusFailed {
		t.Errorf("status = %s, want FAILED", stored.Status)
	}
	if stored.FailureReason != "rail rejected" {
		t.Errorf("failure reason = %q", stored.FailureReason)
	}
	if debited.Equal(dec("10000.00")) {
		t.Error("sanity: phase one should have debited the account")
	}

	// Completion after compensation is also a no-op.
	if err := engine.CompleteExternal(context.Background(), txn.TransactionID, "RCPT-1"); err != nil {
		t.Fatalf("CompleteExternal after compensation: %v", err)
	}
	stored, _ = db.Transaction(txn.TransactionID)
	if stored.Status != domain.TransactionStatusFailed || stored.ReceiptNumber != "" {
		t.Errorf("terminal transaction mutated: status %s receipt %q", stored.Status, stored.ReceiptNumber)
	}
}
