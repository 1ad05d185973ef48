package model

import (
	"github.com/guregu/null/v6"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SignalVector describes the most recent bar only.
type SignalVector struct {
	GoldenCross      bool
	DeathCross       bool
	TopDivergence    bool
	BottomDivergence bool
}

// Any reports whether at least one signal fired.
func (v SignalVector) Any() bool {
	return v.GoldenCross || v.DeathCross || v.TopDivergence || v.BottomDivergence
}

// Names lists the fired signals in a fixed order.
func (v SignalVector) Names() []string {
	var names []string
	if v.GoldenCross {
		names = append(names, "golden_cross")
	}
	if v.DeathCross {
		names = append(names, "death_cross")
	}
	if v.TopDivergence {
		names = append(names, "top_divergence")
	}
	if v.BottomDivergence {
		names = append(names, "bottom_divergence")
	}
	return names
}

// Snapshot is the per-instrument result of one refresh.
type Snapshot struct {
	Close            null.Float `json:"close"`
	ChangePercent    null.Float `json:"change_percent"`
	PE               null.Float `json:"pe"`
	RSI              null.Float `json:"rsi"`
	K                null.Float `json:"k"`
	D                null.Float `json:"d"`
	J                null.Float `json:"j"`
	MA20             null.Float `json:"ma20"`
	MA120            null.Float `json:"ma120"`
	MA240            null.Float `json:"ma240"`
	GoldenCross      bool       `json:"golden_cross"`
	DeathCross       bool       `json:"death_cross"`
	TopDivergence    bool       `json:"top_divergence"`
	BottomDivergence bool       `json:"bottom_divergence"`
}

// EmptySnapshot is substituted for instruments whose data could not be fetched.
func EmptySnapshot() *Snapshot {
	return &Snapshot{}
}

// Signals returns the four signal flags as a SignalVector.
func (s *Snapshot) Signals() SignalVector {
	return SignalVector{
		GoldenCross:      s.GoldenCross,
		DeathCross:       s.DeathCross,
		TopDivergence:    s.TopDivergence,
		BottomDivergence: s.BottomDivergence,
	}
}

// SetSignals copies the classifier output into the snapshot.
func (s *Snapshot) SetSignals(v SignalVector) {
	s.GoldenCross = v.GoldenCross
	s.DeathCross = v.DeathCross
	s.TopDivergence = v.TopDivergence
	s.BottomDivergence = v.BottomDivergence
}

// Board maps instrument keys to snapshots. JSON keys keep insertion order.
type Board struct {
	entries *orderedmap.OrderedMap[string, *Snapshot]
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{entries: orderedmap.New[string, *Snapshot]()}
}

// Set adds or replaces the snapshot for key. Replacing keeps its position.
func (b *Board) Set(key string, snap *Snapshot) {
	b.entries.Set(key, snap)
}

// Get returns the snapshot for key.
func (b *Board) Get(key string) (*Snapshot, bool) {
	return b.entries.Get(key)
}

// Keys returns the instrument keys in board order.
func (b *Board) Keys() []string {
	keys := make([]string, 0, b.entries.Len())
	for pair := b.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of instruments on the board.
func (b *Board) Len() int {
	return b.entries.Len()
}

func (b *Board) MarshalJSON() ([]byte, error) {
	return b.entries.MarshalJSON()
}

func (b *Board) UnmarshalJSON(data []byte) error {
	if b.entries == nil {
		b.entries = orderedmap.New[string, *Snapshot]()
	}
	return b.entries.UnmarshalJSON(data)
}
