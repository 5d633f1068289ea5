package rate

// Cart limits. Allocation places units one at a time, so its cost grows with
// the square of the unit count.
const (
	MaxQuantity  = 500
	MaxLineItems = 200
)

// LineItem is one purchased product line. Dimensions are in centimetres and
// weight in kilograms; a nil or non-positive value means the data is missing.
type LineItem struct {
	ProductID string   `json:"product_id" validate:"required"`
	Name      string   `json:"name,omitempty"`
	Quantity  int      `json:"quantity" validate:"min=1,max=500"`
	Height    *float64 `json:"height,omitempty" validate:"omitempty,gte=0"`
	Width     *float64 `json:"width,omitempty" validate:"omitempty,gte=0"`
	Depth     *float64 `json:"depth,omitempty" validate:"omitempty,gte=0"`
	Weight    *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
}

// Completeness tells whether a line item carries all physical data needed
// for allocation.
type Completeness int

const (
	Complete Completeness = iota
	Incomplete
)

func (c Completeness) String() string {
	if c == Complete {
		return "complete"
	}
	return "incomplete"
}

// Physical is the resolved size and weight of a single unit.
type Physical struct {
	Height float64
	Width  float64
	Depth  float64
	Weight float64
}

// Volume of a single unit.
func (p Physical) Volume() float64 { return p.Height * p.Width * p.Depth }

// Physical resolves the item's dimensions. Missing fields are reported as
// Incomplete and read as zero in the returned value.
func (li LineItem) Physical() (Physical, Completeness) {
	state := Complete
	read := func(v *float64) float64 {
		if v == nil || *v <= 0 {
			state = Incomplete
			return 0
		}
		return *v
	}
	p := Physical{
		Height: read(li.Height),
		Width:  read(li.Width),
		Depth:  read(li.Depth),
		Weight: read(li.Weight),
	}
	return p, state
}

// Request is a quote request from the cart or order subsystem.
type Request struct {
	LineItems []LineItem `json:"line_items" validate:"max=200,dive"`
	Subtotal  float64    `json:"subtotal,omitempty" validate:"gte=0"`
}

// Completeness is Incomplete if any line item is.
func (r Request) Completeness() Completeness {
	for _, li := range r.LineItems {
		if _, c := li.Physical(); c == Incomplete {
			return Incomplete
		}
	}
	return Complete
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }
