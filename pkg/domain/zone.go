package domain

// Zone partitions storage so the same kind can live in several logical
// tables. Zones compare by ID.
type Zone struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

var (
	// EmptyZone is used when no zone is specified.
	EmptyZone = Zone{}
	// TestZone isolates fixtures from the default zone.
	TestZone = Zone{ID: "test", Name: "Test"}
)

// NewZone constructs a zone.
func NewZone(id, name string) Zone { return Zone{ID: id, Name: name} }

// IsEmpty reports whether z is the default zone.
func (z Zone) IsEmpty() bool { return z.ID == "" }

func (z Zone) String() string {
	if z.IsEmpty() {
		return "<default>"
	}
	return z.ID
}
