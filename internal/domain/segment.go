package domain

// Segment is the business line a record belongs to. It is a required field
// validated at the boundary, never inferred from a default.
type Segment string

const (
	SegmentTravel Segment = "travel"
	SegmentISP    Segment = "isp"
)

func (s Segment) IsValid() bool {
	return s == SegmentTravel || s == SegmentISP
}
