package rate

// Record is one distinct product inside a parcel together with how many of
// its units the parcel holds.
type Record struct {
	Height   float64
	Width    float64
	Depth    float64
	Weight   float64
	Quantity int
}

// Measurements is the aggregate size and weight of a group of records.
type Measurements struct {
	TotalWeight float64
	MaxHeight   float64
	MaxWidth    float64
	MaxDepth    float64
	MaxSide     float64
	SumOfSides  float64
	Volume      float64
}

// Measure aggregates records using the envelope model: weights add up, each
// axis takes the largest value seen. Items are assumed to stack inside a box
// sized to the largest item on every axis, which underestimates the box for
// many small items. Pricing depends on this approximation, so keep it.
func Measure(records []Record) Measurements {
	var m Measurements
	for _, r := range records {
		m.TotalWeight += r.Weight * float64(r.Quantity)
		m.MaxHeight = max(m.MaxHeight, r.Height)
		m.MaxWidth = max(m.MaxWidth, r.Width)
		m.MaxDepth = max(m.MaxDepth, r.Depth)
	}
	m.MaxSide = max(m.MaxHeight, m.MaxWidth, m.MaxDepth)
	m.SumOfSides = m.MaxHeight + m.MaxWidth + m.MaxDepth
	m.Volume = m.MaxHeight * m.MaxWidth * m.MaxDepth
	return m
}

// Dimensions is the serialized outer size of a parcel.
type Dimensions struct {
	Height     float64 `json:"height"`
	Width      float64 `json:"width"`
	Depth      float64 `json:"depth"`
	MaxSide    float64 `json:"max_side"`
	SumOfSides float64 `json:"sum_of_sides"`
	Volume     float64 `json:"volume"`
}

func (m Measurements) dimensions() Dimensions {
	return Dimensions{
		Height:     m.MaxHeight,
		Width:      m.MaxWidth,
		Depth:      m.MaxDepth,
		MaxSide:    m.MaxSide,
		SumOfSides: m.SumOfSides,
		Volume:     m.Volume,
	}
}
