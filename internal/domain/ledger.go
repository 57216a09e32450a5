package domain

// Ledger maps a participant identity to its spendable credit, separate
// from anything escrowed in an active session. Balances never go
// negative: every debit checks sufficiency first and mutates nothing
// on failure.
type Ledger map[string]int64

// NewLedger returns an empty ledger.
func NewLedger() Ledger {
	return make(Ledger)
}

// Balance returns the stored credit for an identity.
func (l Ledger) Balance(id string) int64 {
	return l[id]
}

// Credit adds to an identity's stored credit. It never fails.
func (l Ledger) Credit(id string, amount int64) {
	if amount == 0 {
		return
	}
	l[id] += amount
}

// Debit removes credit if the identity holds enough, reporting whether
// it did. Zeroed entries are dropped to keep snapshots small.
func (l Ledger) Debit(id string, amount int64) bool {
	if l[id] < amount {
		return false
	}
	l[id] -= amount
	if l[id] == 0 {
		delete(l, id)
	}
	return true
}

// Fund covers a required stake out of the value sent with the
// operation, topped up from (or overflowing into) stored credit:
// an exact match touches nothing, a shortfall is debited from the
// ledger, a surplus is credited back. Returns false, with no ledger
// change, when stored credit cannot cover the shortfall.
func (l Ledger) Fund(id string, stake, sent int64) bool {
	switch {
	case sent == stake:
		return true
	case sent < stake:
		return l.Debit(id, stake-sent)
	default:
		l.Credit(id, sent-stake)
		return true
	}
}
