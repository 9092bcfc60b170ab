package ledger

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Unlimited is the allowance sentinel that is never decremented by
// delegated spends.
const Unlimited = math.MaxInt64

// JournalHook receives a double-entry record after every completed
// mutation. Used to feed the persistence journal; nil disables recording.
type JournalHook func(Entry)

type allowanceKey struct {
	owner   uuid.UUID
	spender uuid.UUID
}

// TokenLedger maintains named-account balances and allowances for one
// fungible denom. Accounts are identified by UUID; uuid.Nil is the zero
// address and can never hold or move funds. The ledger is not safe for
// concurrent use; callers serialize operations.
type TokenLedger struct {
	denom      string
	balances   map[uuid.UUID]int64
	allowances map[allowanceKey]int64
	supply     int64
	hook       JournalHook
}

func NewTokenLedger(denom string) *TokenLedger {
	return &TokenLedger{
		denom:      denom,
		balances:   make(map[uuid.UUID]int64),
		allowances: make(map[allowanceKey]int64),
	}
}

// SetJournalHook installs the journal recorder for completed mutations.
func (l *TokenLedger) SetJournalHook(hook JournalHook) {
	l.hook = hook
}

func (l *TokenLedger) Denom() string {
	return l.denom
}

// BalanceOf returns the current balance for an account. Unknown accounts
// hold zero.
func (l *TokenLedger) BalanceOf(account uuid.UUID) int64 {
	return l.balances[account]
}

// TotalSupply returns the outstanding supply (total minted minus burned).
func (l *TokenLedger) TotalSupply() int64 {
	return l.supply
}

// Transfer moves amount from one account to another.
func (l *TokenLedger) Transfer(from, to uuid.UUID, amount int64) error {
	if from == uuid.Nil || to == uuid.Nil {
		return fmt.Errorf("%w: transfer %s", ErrZeroAddress, l.denom)
	}
	if amount < 0 {
		return fmt.Errorf("negative transfer amount %s: %d", l.denom, amount)
	}
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s have=%d need=%d", ErrInsufficientBalance, l.denom, l.balances[from], amount)
	}

	l.balances[from] -= amount
	l.balances[to] += amount
	l.record(EntryKindTransfer, from, to, amount)
	return nil
}

// Approve sets the allowance granted by owner to spender, replacing any
// previous grant. Unlimited marks the allowance as never-decrementing.
func (l *TokenLedger) Approve(owner, spender uuid.UUID, amount int64) error {
	if owner == uuid.Nil || spender == uuid.Nil {
		return fmt.Errorf("%w: approve %s", ErrZeroAddress, l.denom)
	}
	if amount < 0 {
		return fmt.Errorf("negative allowance %s: %d", l.denom, amount)
	}
	l.allowances[allowanceKey{owner, spender}] = amount
	return nil
}

// Allowance returns the remaining amount spender may move out of owner.
func (l *TokenLedger) Allowance(owner, spender uuid.UUID) int64 {
	return l.allowances[allowanceKey{owner, spender}]
}

// SpendAllowance decrements spender's allowance on owner by amount. The
// Unlimited sentinel is left untouched. Owner spending their own funds
// needs no allowance.
func (l *TokenLedger) SpendAllowance(owner, spender uuid.UUID, amount int64) error {
	if spender == owner {
		return nil
	}

	key := allowanceKey{owner, spender}
	allowed := l.allowances[key]
	if allowed == Unlimited {
		return nil
	}
	if allowed < amount {
		return fmt.Errorf("%w: %s allowed=%d need=%d", ErrInsufficientAllowance, l.denom, allowed, amount)
	}

	l.allowances[key] = allowed - amount
	return nil
}

// TransferFrom moves amount from one account to another on behalf of
// spender, consuming allowance. The balance is checked before the
// allowance is spent so a failed transfer leaves no partial state.
func (l *TokenLedger) TransferFrom(spender, from, to uuid.UUID, amount int64) error {
	if spender == uuid.Nil || from == uuid.Nil || to == uuid.Nil {
		return fmt.Errorf("%w: transferFrom %s", ErrZeroAddress, l.denom)
	}
	if amount < 0 {
		return fmt.Errorf("negative transfer amount %s: %d", l.denom, amount)
	}
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s have=%d need=%d", ErrInsufficientBalance, l.denom, l.balances[from], amount)
	}
	if err := l.SpendAllowance(from, spender, amount); err != nil {
		return err
	}

	l.balances[from] -= amount
	l.balances[to] += amount
	l.record(EntryKindTransfer, from, to, amount)
	return nil
}

// Mint creates amount new units in to's account, increasing supply.
func (l *TokenLedger) Mint(to uuid.UUID, amount int64) error {
	if to == uuid.Nil {
		return fmt.Errorf("%w: mint %s", ErrZeroAddress, l.denom)
	}
	if amount < 0 {
		return fmt.Errorf("negative mint amount %s: %d", l.denom, amount)
	}

	l.balances[to] += amount
	l.supply += amount
	l.record(EntryKindMint, uuid.Nil, to, amount)
	return nil
}

// Burn destroys amount units from from's account, decreasing supply.
func (l *TokenLedger) Burn(from uuid.UUID, amount int64) error {
	if from == uuid.Nil {
		return fmt.Errorf("%w: burn %s", ErrZeroAddress, l.denom)
	}
	if amount < 0 {
		return fmt.Errorf("negative burn amount %s: %d", l.denom, amount)
	}
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s have=%d need=%d", ErrInsufficientBalance, l.denom, l.balances[from], amount)
	}

	l.balances[from] -= amount
	l.supply -= amount
	l.record(EntryKindBurn, from, uuid.Nil, amount)
	return nil
}

func (l *TokenLedger) record(kind EntryKind, from, to uuid.UUID, amount int64) {
	if l.hook == nil || amount == 0 {
		return
	}
	l.hook(Entry{
		EntryID: uuid.New(),
		Denom:   l.denom,
		From:    from,
		To:      to,
		Amount:  amount,
		Kind:    kind,
	})
}
