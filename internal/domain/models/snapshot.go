package models

// BoundLevel is one price level of a forecast probability distribution.
type BoundLevel struct {
	Price            float64 `json:"price"`
	ProbabilityAbove float64 `json:"probability_above"`
	ProbabilityBelow float64 `json:"probability_below"`
}

// ProbabilityBounds is the forecast distribution for an asset over a fixed
// horizon. Levels are kept sorted ascending by price.
type ProbabilityBounds struct {
	Asset   string       `json:"asset"`
	Horizon string       `json:"horizon"`
	Levels  []BoundLevel `json:"levels"`
}

// Snapshot is one timestamped capture of a forecast distribution.
// Immutable once created.
type Snapshot struct {
	Timestamp int64             `json:"timestamp"` // ms since epoch
	Bounds    ProbabilityBounds `json:"bounds"`
}

// StoreDocument is the persisted layout of the snapshot store.
type StoreDocument struct {
	Version   string                `json:"version"`
	Snapshots map[string][]Snapshot `json:"snapshots"`
}
