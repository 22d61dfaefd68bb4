package cart

// Size is the garment size attached to a cart line.
type Size string

const (
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

// Line is the storefront's view of one cart entry. The line ID is assigned by
// the remote cart store and treated as opaque here.
type Line struct {
	ID        string  `json:"_id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Image     string  `json:"image"`
	Size      Size    `json:"size"`
	Quantity  int     `json:"quantity"`
}

// Snapshot is a point-in-time copy of the mirror plus its derived totals.
// Totals are always recomputed from the lines so they cannot drift.
type Snapshot struct {
	Lines      []Line  `json:"lines"`
	TotalItems int     `json:"totalItems"`
	TotalPrice float64 `json:"totalPrice"`
}

// snapshotOf computes a Snapshot from the given lines.
func snapshotOf(lines []Line) Snapshot {
	out := Snapshot{Lines: make([]Line, len(lines))}
	copy(out.Lines, lines)
	for _, l := range lines {
		out.TotalItems += l.Quantity
		out.TotalPrice += float64(l.Quantity) * l.UnitPrice
	}
	return out
}
