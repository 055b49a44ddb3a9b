package cart

import "storefront/internal/model"

// Kind of cart mutation.
type Kind string

const (
	KindAdd    Kind = "add"
	KindUpdate Kind = "update"
	KindRemove Kind = "remove"
	KindClear  Kind = "clear"
)

// State of a dispatched mutation.
//
//	idle -> pending -> reconciled
//	                -> rolled_back
//	                -> discarded (response arrived after logout)
type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "pending"
	StateReconciled State = "reconciled"
	StateRolledBack State = "rolled_back"
	StateDiscarded  State = "discarded"
)

// Transition is emitted each time a mutation changes state.
type Transition struct {
	Seq    uint64
	Kind   Kind
	LineID string
	From   State
	To     State
}

type mutation struct {
	seq      uint64
	gen      uint64
	kind     Kind
	lineID   string
	key      string
	product  model.Product
	quantity int
	size     *string
	snapshot []model.CartLine
	state    State

	// base is the quantity of key in the confirmed cart when an add was dispatched. Once a
	// server cart holds base+quantity the add is absorbed and no longer replayed.
	base     int
	absorbed string
}

// pendingID is the line id the mutation is shown against.
func (m *mutation) pendingID() string {
	if m.absorbed != "" {
		return m.absorbed
	}
	return m.lineID
}

// absorb reports whether confirmed already reflects the add, and records the server line id.
func (m *mutation) absorb(confirmed []model.CartLine) bool {
	if m.kind != KindAdd || m.absorbed != "" {
		return false
	}
	if keyQuantity(confirmed, m.key) < m.base+m.quantity {
		return false
	}
	for _, line := range confirmed {
		if line.MatchKey() == m.key {
			m.absorbed = line.ID
			break
		}
	}
	return true
}

func keyQuantity(lines []model.CartLine, key string) int {
	n := 0
	for _, line := range lines {
		if line.MatchKey() == key {
			n += line.Quantity
		}
	}
	return n
}

func (m *mutation) transition(to State) Transition {
	from := m.state
	if from == "" {
		from = StateIdle
	}
	m.state = to
	return Transition{Seq: m.seq, Kind: m.kind, LineID: m.lineID, From: from, To: to}
}

// apply lays the mutation's optimistic effect over lines.
func (m *mutation) apply(lines []model.CartLine) []model.CartLine {
	switch m.kind {
	case KindAdd:
		if m.absorbed != "" {
			return lines
		}
		for i := range lines {
			if lines[i].ID == m.lineID {
				lines[i].Quantity += m.quantity
				return lines
			}
		}
		for i := range lines {
			if lines[i].MatchKey() == m.key {
				lines[i].Quantity += m.quantity
				return lines
			}
		}
		return append(lines, model.CartLine{
			ID:       m.lineID,
			Product:  m.product,
			Quantity: m.quantity,
			Size:     m.size,
		})

	case KindUpdate:
		for i := range lines {
			if lines[i].ID == m.lineID {
				lines[i].Quantity = m.quantity
				break
			}
		}
		return lines

	case KindRemove:
		out := lines[:0]
		for _, line := range lines {
			if line.ID != m.lineID {
				out = append(out, line)
			}
		}
		return out

	case KindClear:
		return []model.CartLine{}
	}
	return lines
}
