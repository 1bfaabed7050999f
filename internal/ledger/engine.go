package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
	"github.com/peterclermy232/banking-system-backend/internal/fees"
	"github.com/peterclermy232/banking-system-backend/internal/repository/accounts_repo"
	"github.com/peterclermy232/banking-system-backend/internal/repository/goals_repo"
	"github.com/peterclermy232/banking-system-backend/internal/repository/outbox_repo"
	"github.com/peterclermy232/banking-system-backend/internal/repository/transactions_repo"
	"github.com/peterclermy232/banking-system-backend/internal/storage"
	"github.com/peterclermy232/banking-system-backend/internal/util"
)

// DepositChannel identifies where a deposit came from.
type DepositChannel string

const (
	ChannelCash        DepositChannel = "CASH"
	ChannelMobileMoney DepositChannel = "MOBILE_MONEY"
)

// Rail identifies the external settlement network for outbound transfers.
type Rail string

const (
	RailInterbank   Rail = "INTERBANK"
	RailMobileMoney Rail = "MOBILE_MONEY"
)

// Engine applies each money-movement request as one indivisible unit of
// work. Every operation checks its preconditions, mutates balances and
// writes the Transaction record inside a single store transaction, and
// enqueues a notification event in that same transaction.
type Engine struct {
	store    storage.Store
	accounts accounts_repo.AccountRepository
	txns     transactions_repo.TransactionRepository
	goals    goals_repo.SavingsGoalRepository
	outbox   outbox_repo.OutboxRepository
	fees     *fees.Calculator
	logger   *zap.Logger
}

func NewEngine(
	store storage.Store,
	accounts accounts_repo.AccountRepository,
	txns transactions_repo.TransactionRepository,
	goals goals_repo.SavingsGoalRepository,
	outbox outbox_repo.OutboxRepository,
	feeCalc *fees.Calculator,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:    store,
		accounts: accounts,
		txns:     txns,
		goals:    goals,
		outbox:   outbox,
		fees:     feeCalc,
		logger:   logger,
	}
}

// QuoteFee exposes the fee calculator for pre-transfer cost display.
func (e *Engine) QuoteFee(class fees.Class, amount decimal.Decimal) decimal.Decimal {
	return e.fees.Calculate(class, amount)
}

// InternalTransfer moves amount between two accounts of the cooperative.
// The fee is debited from the source on top of the amount; the whole
// operation commits synchronously as COMPLETED.
func (e *Engine) InternalTransfer(ctx context.Context, memberID int64, fromNumber, toNumber string, amount decimal.Decimal, memo, reference string) (*domain.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if fromNumber == "" || toNumber == "" {
		return nil, domain.ErrMissingField
	}
	if fromNumber == toNumber {
		return nil, domain.ErrSameAccount
	}

	var txn *domain.Transaction
	err := e.store.WithinTx(ctx, func(q domain.Querier) error {
		from, to, err := e.lockAccountPair(ctx, q, fromNumber, toNumber)
		if err != nil {
			return err
		}
		fee := e.fees.Calculate(fees.ClassInternal, amount)
		if err := checkDebit(from, memberID, amount.Add(fee)); err != nil {
			return err
		}
		if !to.IsActive() {
			return fmt.Errorf("destination account %s: %w", to.AccountNumber, domain.ErrAccountNotActive)
		}

		if err := e.accounts.ApplyBalanceChange(ctx, q, from.ID, amount.Add(fee).Neg()); err != nil {
			return err
		}
		if err := e.accounts.ApplyBalanceChange(ctx, q, to.ID, amount); err != nil {
			return err
		}

		txn = newTransaction(domain.TransactionTypeTransferInternal, amount, fee, memo, reference)
		txn.FromAccountID = &from.ID
		txn.ToAccountID = &to.ID
		txn.Status = domain.TransactionStatusCompleted
		now := time.Now()
		txn.ProcessedAt = &now
		if err := e.txns.Create(ctx, q, txn); err != nil {
			return err
		}

		return e.enqueueNotification(ctx, q, from.MemberNumber, txn,
			"Transfer Completed",
			fmt.Sprintf("You transferred %s to account %s (fee %s).", amount.StringFixed(2), to.AccountNumber, fee.StringFixed(2)),
			domain.NotificationSuccess)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("internal transfer completed",
		zap.String("transaction_id", txn.TransactionID),
		zap.String("from", fromNumber),
		zap.String("to", toNumber),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("fee", txn.Fee.StringFixed(2)))
	return txn, nil
}

// Deposit credits an account from an external channel. Deposits carry no
// fee and never need the available-balance check.
func (e *Engine) Deposit(ctx context.Context, toNumber string, amount decimal.Decimal, channel DepositChannel, memo, reference string) (*domain.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if toNumber == "" {
		return nil, domain.ErrMissingField
	}

	txnType := domain.TransactionTypeDeposit
	if channel == ChannelMobileMoney {
		txnType = domain.TransactionTypeMobileMoneyDeposit
	}

	var txn *domain.Transaction
	err := e.store.WithinTx(ctx, func(q domain.Querier) error {
		to, err := e.accounts.GetByNumberForUpdate(ctx, q, toNumber)
		if err != nil {
			return err
		}
		if !to.IsActive() {
			return fmt.Errorf("account %s: %w", to.AccountNumber, domain.ErrAccountNotActive)
		}

		if err := e.accounts.ApplyBalanceChange(ctx, q, to.ID, amount); err != nil {
			return err
		}

		txn = newTransaction(txnType, amount, decimal.Zero, memo, reference)
		txn.ToAccountID = &to.ID
		txn.Status = domain.TransactionStatusCompleted
		now := time.Now()
		txn.ProcessedAt = &now
		if err := e.txns.Create(ctx, q, txn); err != nil {
			return err
		}

		return e.enqueueNotification(ctx, q, to.MemberNumber, txn,
			"Deposit Received",
			fmt.Sprintf("A deposit of %s was credited to account %s.", amount.StringFixed(2), to.AccountNumber),
			domain.NotificationSuccess)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("deposit completed",
		zap.String("transaction_id", txn.TransactionID),
		zap.String("to", toNumber),
		zap.String("channel", string(channel)),
		zap.String("amount", amount.StringFixed(2)))
	return txn, nil
}

// SavingsDeposit moves amount from a member account into the member's
// savings account, free of fee, optionally annotating a savings goal.
// A goal that already reached its target never blocks the deposit.
func (e *Engine) SavingsDeposit(ctx context.Context, memberID int64, fromNumber, savingsNumber string, amount decimal.Decimal, goalID *int64, reference string) (*domain.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if fromNumber == "" || savingsNumber == "" {
		return nil, domain.ErrMissingField
	}
	if fromNumber == savingsNumber {
		return nil, domain.ErrSameAccount
	}

	var txn *domain.Transaction
	var goalCompleted bool
	err := e.store.WithinTx(ctx, func(q domain.Querier) error {
		from, to, err := e.lockAccountPair(ctx, q, fromNumber, savingsNumber)
		if err != nil {
			return err
		}
		if err := checkDebit(from, memberID, amount); err != nil {
			return err
		}
		if !to.IsActive() {
			return fmt.Errorf("savings account %s: %w", to.AccountNumber, domain.ErrAccountNotActive)
		}

		if err := e.accounts.ApplyBalanceChange(ctx, q, from.ID, amount.Neg()); err != nil {
			return err
		}
		if err := e.accounts.ApplyBalanceChange(ctx, q, to.ID, amount); err != nil {
			return err
		}

		txn = newTransaction(domain.TransactionTypeSavingsDeposit, amount, decimal.Zero, "Savings deposit", reference)
		txn.FromAccountID = &from.ID
		txn.ToAccountID = &to.ID
		txn.Status = domain.TransactionStatusCompleted
		now := time.Now()
		txn.ProcessedAt = &now

		if goalID != nil {
			goal, err := e.goals.GetForMemberForUpdate(ctx, q, *goalID, memberID)
			if err != nil {
				return err
			}
			goalCompleted = goal.ApplyDeposit(amount, now)
			if err := e.goals.Update(ctx, q, goal); err != nil {
				return err
			}
			txn.SavingsGoalID = goalID
			if goalCompleted {
				if err := e.enqueueNotification(ctx, q, from.MemberNumber, txn,
					"Savings Goal Completed",
					fmt.Sprintf("Congratulations! You reached your goal %q with %s saved.", goal.Name, goal.CurrentAmount.StringFixed(2)),
					domain.NotificationSuccess); err != nil {
					return err
				}
			}
		}

		if err := e.txns.Create(ctx, q, txn); err != nil {
			return err
		}

		return e.enqueueNotification(ctx, q, from.MemberNumber, txn,
			"Savings Deposit",
			fmt.Sprintf("You deposited %s into your savings account.", amount.StringFixed(2)),
			domain.NotificationSuccess)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("savings deposit completed",
		zap.String("transaction_id", txn.TransactionID),
		zap.String("from", fromNumber),
		zap.String("amount", amount.StringFixed(2)),
		zap.Bool("goal_completed", goalCompleted))
	return txn, nil
}

// Withdraw debits an account for an over-the-counter withdrawal. The
// withdrawal fee class applies and the minimum balance is enforced.
func (e *Engine) Withdraw(ctx context.Context, memberID int64, fromNumber string, amount decimal.Decimal, memo, reference string) (*domain.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if fromNumber == "" {
		return nil, domain.ErrMissingField
	}

	var txn *domain.Transaction
	err := e.store.WithinTx(ctx, func(q domain.Querier) error {
		from, err := e.accounts.GetByNumberForUpdate(ctx, q, fromNumber)
		if err != nil {
			return err
		}
		fee := e.fees.Calculate(fees.ClassWithdrawal, amount)
		if err := checkDebit(from, memberID, amount.Add(fee)); err != nil {
			return err
		}

		if err := e.accounts.ApplyBalanceChange(ctx, q, from.ID, amount.Add(fee).Neg()); err != nil {
			return err
		}

		txn = newTransaction(domain.TransactionTypeWithdrawal, amount, fee, memo, reference)
		txn.FromAccountID = &from.ID
		txn.Status = domain.TransactionStatusCompleted
		now := time.Now()
		txn.ProcessedAt = &now
		if err := e.txns.Create(ctx, q, txn); err != nil {
			return err
		}

		return e.enqueueNotification(ctx, q, from.MemberNumber, txn,
			"Withdrawal Completed",
			fmt.Sprintf("You withdrew %s from account %s (fee %s).", amount.StringFixed(2), from.AccountNumber, fee.StringFixed(2)),
			domain.NotificationSuccess)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("withdrawal completed",
		zap.String("transaction_id", txn.TransactionID),
		zap.String("from", fromNumber),
		zap.String("amount", amount.StringFixed(2)))
	return txn, nil
}

// ExternalTransfer runs phase one of the two-phase external protocol:
// debit amount plus fee and persist the transaction as PROCESSING, all
// durable before any gateway call. The settlement worker picks the
// transaction up and completes or compensates it; no account lock is held
// across the gateway call.
func (e *Engine) ExternalTransfer(ctx context.Context, memberID int64, fromNumber, destination string, rail Rail, amount decimal.Decimal, memo, reference string) (*domain.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if fromNumber == "" || destination == "" {
		return nil, domain.ErrMissingField
	}

	txnType := domain.TransactionTypeTransferExternal
	feeClass := fees.ClassExternal
	if rail == RailMobileMoney {
		txnType = domain.TransactionTypeMobileMoney
		feeClass = fees.ClassMobileMoney
	}

	var txn *domain.Transaction
	err := e.store.WithinTx(ctx, func(q domain.Querier) error {
		from, err := e.accounts.GetByNumberForUpdate(ctx, q, fromNumber)
		if err != nil {
			return err
		}
		fee := e.fees.Calculate(feeClass, amount)
		if err := checkDebit(from, memberID, amount.Add(fee)); err != nil {
			return err
		}

		if err := e.accounts.ApplyBalanceChange(ctx, q, from.ID, amount.Add(fee).Neg()); err != nil {
			return err
		}

		txn = newTransaction(txnType, amount, fee, memo, reference)
		txn.FromAccountID = &from.ID
		txn.ExternalReference = destination
		txn.Status = domain.TransactionStatusProcessing
		if err := e.txns.Create(ctx, q, txn); err != nil {
			return err
		}

		return e.enqueueNotification(ctx, q, from.MemberNumber, txn,
			"Transfer Initiated",
			fmt.Sprintf("Your transfer of %s to %s is being processed.", amount.StringFixed(2), destination),
			domain.NotificationInfo)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("external transfer debited, awaiting settlement",
		zap.String("transaction_id", txn.TransactionID),
		zap.String("from", fromNumber),
		zap.String("rail", string(rail)),
		zap.String("amount", amount.StringFixed(2)))
	return txn, nil
}

// CompleteExternal records a successful settlement: the PROCESSING
// transaction becomes COMPLETED with the rail's receipt identifier.
// Replaying it for a transaction already in a terminal state is a no-op.
func (e *Engine) CompleteExternal(ctx context.Context, transactionID, receiptNumber string) error {
	return e.store.WithinTx(ctx, func(q domain.Querier) error {
		txn, err := e.txns.GetByTransactionIDForUpdate(ctx, q, transactionID)
		if err != nil {
			return err
		}
		transitioned, err := e.txns.CompleteProcessing(ctx, q, transactionID, receiptNumber)
		if err != nil {
			return err
		}
		if !transitioned {
			e.logger.Info("complete replayed on settled transaction, skipping",
				zap.String("transaction_id", transactionID),
				zap.String("status", string(txn.Status)))
			return nil
		}

		memberNumber, err := e.sourceMemberNumber(ctx, q, txn)
		if err != nil {
			return err
		}
		return e.enqueueNotification(ctx, q, memberNumber, txn,
			"Transfer Completed",
			fmt.Sprintf("Your transfer of %s to %s completed. Receipt: %s.", txn.Amount.StringFixed(2), txn.ExternalReference, receiptNumber),
			domain.NotificationSuccess)
	})
}

// CompensateExternal undoes the phase-one debit after a gateway failure:
// the source account is credited back amount plus fee and the transaction
// lands on finalStatus (FAILED promptly, REVERSED when recovered late).
// The status guard under the row lock makes replays no-ops, so a retry
// after a crash can never credit the account twice.
func (e *Engine) CompensateExternal(ctx context.Context, transactionID string, finalStatus domain.TransactionStatus, reason string) error {
	if finalStatus != domain.TransactionStatusFailed && finalStatus != domain.TransactionStatusReversed {
		return fmt.Errorf("compensation cannot land on status %s", finalStatus)
	}

	return e.store.WithinTx(ctx, func(q domain.Querier) error {
		txn, err := e.txns.GetByTransactionIDForUpdate(ctx, q, transactionID)
		if err != nil {
			return err
		}
		if txn.Status != domain.TransactionStatusProcessing {
			e.logger.Info("compensation replayed on settled transaction, skipping",
				zap.String("transaction_id", transactionID),
				zap.String("status", string(txn.Status)))
			return nil
		}
		if txn.FromAccountID == nil {
			return fmt.Errorf("transaction %s has no source account to compensate", transactionID)
		}

		from, err := e.accounts.GetByIDForUpdate(ctx, q, *txn.FromAccountID)
		if err != nil {
			return err
		}
		if err := e.accounts.ApplyBalanceChange(ctx, q, from.ID, txn.TotalDebit()); err != nil {
			return err
		}
		transitioned, err := e.txns.FinalizeProcessing(ctx, q, transactionID, finalStatus, reason)
		if err != nil {
			return err
		}
		if !transitioned {
			return fmt.Errorf("transaction %s changed status under lock", transactionID)
		}

		return e.enqueueNotification(ctx, q, from.MemberNumber, txn,
			"Transfer Failed",
			fmt.Sprintf("Your transfer of %s to %s could not be settled. The debited %s has been returned.", txn.Amount.StringFixed(2), txn.ExternalReference, txn.TotalDebit().StringFixed(2)),
			domain.NotificationError)
	})
}

// GetTransaction looks a transaction up by its external identifier.
func (e *Engine) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return e.txns.GetByTransactionID(ctx, e.store.Querier(), transactionID)
}

// lockAccountPair loads both accounts FOR UPDATE in ascending account
// number order so concurrent two-account operations cannot deadlock.
func (e *Engine) lockAccountPair(ctx context.Context, q domain.Querier, first, second string) (from, to *domain.Account, err error) {
	numbers := [2]string{first, second}
	if numbers[1] < numbers[0] {
		numbers[0], numbers[1] = numbers[1], numbers[0]
	}
	locked := map[string]*domain.Account{}
	for _, n := range numbers {
		acc, err := e.accounts.GetByNumberForUpdate(ctx, q, n)
		if err != nil {
			return nil, nil, fmt.Errorf("account %s: %w", n, err)
		}
		locked[n] = acc
	}
	return locked[first], locked[second], nil
}

func (e *Engine) sourceMemberNumber(ctx context.Context, q domain.Querier, txn *domain.Transaction) (string, error) {
	if txn.FromAccountID == nil {
		return "", fmt.Errorf("transaction %s has no source account", txn.TransactionID)
	}
	from, err := e.accounts.GetByIDForUpdate(ctx, q, *txn.FromAccountID)
	if err != nil {
		return "", err
	}
	return from.MemberNumber, nil
}

func (e *Engine) enqueueNotification(ctx context.Context, q domain.Querier, memberNumber string, txn *domain.Transaction, title, message string, severity domain.NotificationSeverity) error {
	event := domain.NotificationEvent{
		MemberNumber:  memberNumber,
		Title:         title,
		Message:       message,
		Severity:      severity,
		TransactionID: txn.TransactionID,
		Timestamp:     time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}
	return e.outbox.CreateMessage(ctx, q, &domain.OutboxMessage{
		ID:            util.GenerateUUID(),
		MemberNumber:  memberNumber,
		TransactionID: txn.TransactionID,
		Payload:       payload,
		Status:        domain.OutboxStatusPending,
		CreatedAt:     time.Now(),
	})
}

func newTransaction(txnType domain.TransactionType, amount, fee decimal.Decimal, memo, reference string) *domain.Transaction {
	return &domain.Transaction{
		ID:              util.GenerateUUID(),
		TransactionID:   util.GenerateTransactionID(),
		TransactionType: txnType,
		Amount:          amount,
		Fee:             fee,
		Memo:            memo,
		Reference:       reference,
		CreatedAt:       time.Now(),
	}
}

func validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	return nil
}

// checkDebit runs every precondition a debit must pass, under the same
// lock as the mutation it guards: ownership, ACTIVE status, and the
// available-balance invariant (balance minus minimum balance).
func checkDebit(from *domain.Account, memberID int64, total decimal.Decimal) error {
	if !from.OwnedBy(memberID) {
		return domain.ErrNotAccountOwner
	}
	if !from.IsActive() {
		return fmt.Errorf("account %s: %w", from.AccountNumber, domain.ErrAccountNotActive)
	}
	if !from.CanDebit(total) {
		return domain.ErrInsufficientFunds
	}
	return nil
}
