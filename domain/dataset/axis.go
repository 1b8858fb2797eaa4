package dataset

import "fmt"

// OutputAxis is the reserved axis name that selects a sample's output value.
const OutputAxis = "value"

// Kind tells whether an axis reads a coordinate or the output value.
type Kind string

// Axis kinds.
const (
	KindInput  Kind = "input"
	KindOutput Kind = "output"
)

// Axis is a resolved axis. Index is the coordinate position and is only
// meaningful for input axes.
type Axis struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Index int    `json:"index"`
}

// IsOutput reports whether the axis reads the output value.
func (a Axis) IsOutput() bool {
	return a.Kind == KindOutput
}

// Resolve maps an axis name to an Axis. The output token always resolves;
// other names are matched exactly against the declared axes.
func Resolve(name string, axes []AxisInfo) (Axis, error) {
	if name == OutputAxis {
		return Axis{Name: name, Kind: KindOutput}, nil
	}
	for i, ax := range axes {
		if ax.Name == name {
			return Axis{Name: name, Kind: KindInput, Index: i}, nil
		}
	}
	return Axis{}, fmt.Errorf("%w: %q", ErrAxisNotFound, name)
}

// Role is the part an axis plays in a chart.
type Role string

// Chart roles.
const (
	RoleX     Role = "x"
	RoleY     Role = "y"
	RoleGroup Role = "group"
	RoleValue Role = "value"
	RoleSize  Role = "size"
	RoleColor Role = "color"
)

// Descriptor is the validated, read-only description of one chart request.
// Axes keeps the validated order; Roles binds each chart role to its axis.
type Descriptor struct {
	Title     string
	Dimension int
	Axes      []Axis
	Roles     map[Role]Axis
}

// Axis returns the axis bound to a role.
func (d Descriptor) Axis(role Role) (Axis, bool) {
	ax, ok := d.Roles[role]
	return ax, ok
}

// Name returns the axis name bound to a role, or "" when unbound.
func (d Descriptor) Name(role Role) string {
	return d.Roles[role].Name
}
