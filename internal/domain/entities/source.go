package entities

// Source is the archival record a case's citations point into.
type Source struct {
	ID       string `json:"id"`
	Repo     string `json:"repo"`
	Title    string `json:"title"`
	PacketID string `json:"packetId"`
}

// BoundingBox is a page region as [x, y, width, height] in page pixels.
type BoundingBox [4]float64

// Citation points from an extracted field to the page region it came from.
// Field is a display convention such as "children[2].name"; see FieldRef for
// its parsed form.
type Citation struct {
	SourceID   string      `json:"sourceId"`
	Page       int         `json:"page"`
	Field      string      `json:"field"`
	BBox       BoundingBox `json:"bbox"`
	Confidence float64     `json:"confidence"`
	ImageRef   string      `json:"imageRef,omitempty"`
}
