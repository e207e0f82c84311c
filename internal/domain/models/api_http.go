package models

// AnalysisRequest asks for a percentile analysis of an asset at a price.
// Price 0 means "use the live stream price".
type AnalysisRequest struct {
	Asset string  `query:"asset" validate:"required"`
	Price float64 `query:"price" validate:"gte=0"`
}

// NearestRequest asks for the snapshot closest to a target timestamp (ms).
type NearestRequest struct {
	T int64 `query:"t" validate:"required,gt=0"`
}

// SufficiencyRequest asks whether an asset has enough observation history.
type SufficiencyRequest struct {
	MinCount int     `query:"min_count" default:"6" validate:"gte=1"`
	MinHours float64 `query:"min_hours" default:"12" validate:"gte=0"`
}

// InvalidateRequest names the resource to invalidate; empty means all.
type InvalidateRequest struct {
	Resource string `query:"resource"`
}
