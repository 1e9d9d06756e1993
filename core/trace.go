package core

import "sync"

// Purchase records a single buy made during a game.
type Purchase struct {
	Turn     int
	Round    int
	Player   string
	Item     string
	Treasure int
}

// Trace is the ordered list of purchases of a game
type Trace struct {
	mtx       *sync.Mutex
	purchases []*Purchase
}

func NewTrace() *Trace {
	return &Trace{
		purchases: make([]*Purchase, 0),
		mtx:       &sync.Mutex{},
	}
}

func (t *Trace) AddPurchase(p *Purchase) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.purchases = append(t.purchases, p)
}

func (t *Trace) Purchase(i int) *Purchase {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.purchases[i]
}

func (t *Trace) Len() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.purchases)
}

func (t *Trace) Last() *Purchase {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if len(t.purchases) == 0 {
		return nil
	}
	return t.purchases[len(t.purchases)-1]
}

// ByPlayer returns the purchases made by the named player in order.
func (t *Trace) ByPlayer(name string) []*Purchase {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	out := make([]*Purchase, 0)
	for _, p := range t.purchases {
		if p.Player == name {
			out = append(out, p)
		}
	}
	return out
}
