package reconciliation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Decode failure kinds. An unknown tag means no command variant is
// registered for the discriminator; a malformed payload means the tag is
// known but the serialized form cannot be decoded. Both are permanent: a
// payload that cannot decode today will not decode tomorrow.
var (
	ErrUnknownCommandTag = fmt.Errorf("unknown command tag")
	ErrMalformedPayload  = fmt.Errorf("malformed command payload")
)

// Command is an accounting command reconstructed from an envelope payload
type Command interface {
	CommandTag() string
}

// Command tags form the closed discriminator set used on the wire
const (
	TagTransferEvent         = "TransferEvent"
	TagCashInEvent           = "CashInEvent"
	TagCashOutEvent          = "CashOutEvent"
	TagLoanRepaymentEvent    = "LoanRepaymentEvent"
	TagLoanDisbursementEvent = "LoanDisbursementEvent"
	TagRemittanceEvent       = "RemittanceEvent"
	TagMobileMoneyEvent      = "MobileMoneyEvent"
	TagServiceFeeEvent       = "ServiceFeeEvent"
)

// TransferCommand moves value between two ledger accounts
type TransferCommand struct {
	TransactionReference string          `json:"transactionReference"`
	DebitAccount         string          `json:"debitAccount"`
	CreditAccount        string          `json:"creditAccount"`
	Amount               decimal.Decimal `json:"amount"`
	BranchID             uuid.UUID       `json:"branchId"`
	ValueDate            time.Time       `json:"valueDate"`
	Narration            string          `json:"narration"`
}

func (TransferCommand) CommandTag() string { return TagTransferEvent }

// CashInCommand records a customer deposit against the teller till
type CashInCommand struct {
	TransactionReference string          `json:"transactionReference"`
	MemberAccount        string          `json:"memberAccount"`
	Amount               decimal.Decimal `json:"amount"`
	Fee                  decimal.Decimal `json:"fee"`
	BranchID             uuid.UUID       `json:"branchId"`
	TellerID             uuid.UUID       `json:"tellerId"`
	ValueDate            time.Time       `json:"valueDate"`
}

func (CashInCommand) CommandTag() string { return TagCashInEvent }

// CashOutCommand records a customer withdrawal against the teller till
type CashOutCommand struct {
	TransactionReference string          `json:"transactionReference"`
	MemberAccount        string          `json:"memberAccount"`
	Amount               decimal.Decimal `json:"amount"`
	Fee                  decimal.Decimal `json:"fee"`
	BranchID             uuid.UUID       `json:"branchId"`
	TellerID             uuid.UUID       `json:"tellerId"`
	ValueDate            time.Time       `json:"valueDate"`
}

func (CashOutCommand) CommandTag() string { return TagCashOutEvent }

// LoanRepaymentCommand applies a repayment to a loan account
type LoanRepaymentCommand struct {
	TransactionReference string          `json:"transactionReference"`
	LoanAccount          string          `json:"loanAccount"`
	PrincipalAmount      decimal.Decimal `json:"principalAmount"`
	InterestAmount       decimal.Decimal `json:"interestAmount"`
	PenaltyAmount        decimal.Decimal `json:"penaltyAmount"`
	BranchID             uuid.UUID       `json:"branchId"`
	ValueDate            time.Time       `json:"valueDate"`
}

func (LoanRepaymentCommand) CommandTag() string { return TagLoanRepaymentEvent }

// LoanDisbursementCommand releases an approved loan to a member account
type LoanDisbursementCommand struct {
	TransactionReference string          `json:"transactionReference"`
	LoanAccount          string          `json:"loanAccount"`
	MemberAccount        string          `json:"memberAccount"`
	Amount               decimal.Decimal `json:"amount"`
	DisbursementFee      decimal.Decimal `json:"disbursementFee"`
	BranchID             uuid.UUID       `json:"branchId"`
	ValueDate            time.Time       `json:"valueDate"`
}

func (LoanDisbursementCommand) CommandTag() string { return TagLoanDisbursementEvent }

// RemittanceCommand records an inbound or outbound remittance leg
type RemittanceCommand struct {
	TransactionReference string          `json:"transactionReference"`
	Direction            string          `json:"direction"` // IN or OUT
	CounterpartyBank     string          `json:"counterpartyBank"`
	Amount               decimal.Decimal `json:"amount"`
	Fee                  decimal.Decimal `json:"fee"`
	BranchID             uuid.UUID       `json:"branchId"`
	ValueDate            time.Time       `json:"valueDate"`
}

func (RemittanceCommand) CommandTag() string { return TagRemittanceEvent }

// MobileMoneyCommand records a wallet deposit or withdrawal through a
// mobile-money provider
type MobileMoneyCommand struct {
	TransactionReference string          `json:"transactionReference"`
	Provider             string          `json:"provider"`
	Direction            string          `json:"direction"` // IN or OUT
	WalletNumber         string          `json:"walletNumber"`
	Amount               decimal.Decimal `json:"amount"`
	Fee                  decimal.Decimal `json:"fee"`
	BranchID             uuid.UUID       `json:"branchId"`
	ValueDate            time.Time       `json:"valueDate"`
}

func (MobileMoneyCommand) CommandTag() string { return TagMobileMoneyEvent }

// ServiceFeeCommand posts a standalone service fee to income
type ServiceFeeCommand struct {
	TransactionReference string          `json:"transactionReference"`
	MemberAccount        string          `json:"memberAccount"`
	Amount               decimal.Decimal `json:"amount"`
	FeeType              string          `json:"feeType"`
	BranchID             uuid.UUID       `json:"branchId"`
	ValueDate            time.Time       `json:"valueDate"`
}

func (ServiceFeeCommand) CommandTag() string { return TagServiceFeeEvent }

// CommandRegistry resolves a (tag, payload) pair into a typed command.
// The registry owns decoding only; execution belongs to the handler the
// scheduler dispatches to.
type CommandRegistry struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type // command tag -> Go type
}

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		registry: make(map[string]reflect.Type),
	}
}

// DefaultCommandRegistry returns a registry with the full closed command set
func DefaultCommandRegistry() *CommandRegistry {
	r := NewCommandRegistry()
	r.Register(TransferCommand{})
	r.Register(CashInCommand{})
	r.Register(CashOutCommand{})
	r.Register(LoanRepaymentCommand{})
	r.Register(LoanDisbursementCommand{})
	r.Register(RemittanceCommand{})
	r.Register(MobileMoneyCommand{})
	r.Register(ServiceFeeCommand{})
	return r
}

// Register registers a command prototype under its tag
func (r *CommandRegistry) Register(prototype Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.registry[prototype.CommandTag()] = t
}

// Decode resolves the payload into a typed command. Failures are classified:
// errors.Is(err, ErrUnknownCommandTag) when no variant is registered for the
// tag, errors.Is(err, ErrMalformedPayload) when the tag is known but the
// payload does not decode.
func (r *CommandRegistry) Decode(tag string, payload []byte) (Command, error) {
	r.mu.RLock()
	t, ok := r.registry[tag]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommandTag, tag)
	}

	cmdPtr := reflect.New(t).Interface()
	if err := json.Unmarshal(payload, cmdPtr); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, tag, err)
	}

	cmd, ok := reflect.ValueOf(cmdPtr).Elem().Interface().(Command)
	if !ok {
		return nil, fmt.Errorf("%w: %s: decoded value is not a command", ErrMalformedPayload, tag)
	}

	return cmd, nil
}

// IsRegistered checks whether a command tag is part of the closed set
func (r *CommandRegistry) IsRegistered(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.registry[tag]
	return ok
}

// RegisteredTags returns all registered command tags
func (r *CommandRegistry) RegisteredTags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.registry))
	for tag := range r.registry {
		tags = append(tags, tag)
	}
	return tags
}
