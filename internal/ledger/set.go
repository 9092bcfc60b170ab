package ledger

// Set groups one TokenLedger per denom, created lazily. The registry uses
// it to bind each vault to its underlying-asset ledger and to allocate the
// vault's share-token ledger.
type Set struct {
	ledgers map[string]*TokenLedger
	hook    JournalHook
}

func NewSet() *Set {
	return &Set{
		ledgers: make(map[string]*TokenLedger),
	}
}

// SetJournalHook installs hook on every existing and future ledger.
func (s *Set) SetJournalHook(hook JournalHook) {
	s.hook = hook
	for _, l := range s.ledgers {
		l.SetJournalHook(hook)
	}
}

// Get returns the ledger for denom, creating it on first use.
func (s *Set) Get(denom string) *TokenLedger {
	if l, ok := s.ledgers[denom]; ok {
		return l
	}
	l := NewTokenLedger(denom)
	l.SetJournalHook(s.hook)
	s.ledgers[denom] = l
	return l
}

// Denoms returns the denoms with an instantiated ledger.
func (s *Set) Denoms() []string {
	denoms := make([]string, 0, len(s.ledgers))
	for d := range s.ledgers {
		denoms = append(denoms, d)
	}
	return denoms
}
