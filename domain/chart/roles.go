package chart

import (
	"sort"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
)

// Input names the form field an axis name is read from.
type Input string

// Form inputs.
const (
	InputX     Input = "x"
	InputY     Input = "y"
	InputColor Input = "color"
	InputSize  Input = "size"
	InputGroup Input = "group"
)

// Binding ties a chart role to the form input that names its axis.
// An optional binding falls back to the output axis when the input is empty.
type Binding struct {
	Role     dataset.Role
	Input    Input
	Optional bool
}

// Spec lists the bindings a chart type needs.
type Spec struct {
	Type     Type
	Bindings []Binding
}

// Uses reports whether the chart type reads the given input.
func (s Spec) Uses(in Input) bool {
	_, ok := s.Binding(in)
	return ok
}

// Binding returns the binding reading the given input.
func (s Spec) Binding(in Input) (Binding, bool) {
	for _, b := range s.Bindings {
		if b.Input == in {
			return b, true
		}
	}
	return Binding{}, false
}

func bind(role dataset.Role, in Input) Binding {
	return Binding{Role: role, Input: in}
}

var (
	bx     = bind(dataset.RoleX, InputX)
	by     = bind(dataset.RoleY, InputY)
	bsize  = bind(dataset.RoleSize, InputSize)
	bcolor = bind(dataset.RoleColor, InputColor)
	bcat   = bind(dataset.RoleGroup, InputX)
	bgroup = bind(dataset.RoleGroup, InputGroup)
)

var specs = map[Type]Spec{
	TypeLine1D:                  {TypeLine1D, []Binding{bx}},
	TypeCategory:                {TypeCategory, []Binding{bcat}},
	TypeSize:                    {TypeSize, []Binding{bx, bsize}},
	TypeColor:                   {TypeColor, []Binding{bx, bcolor}},
	TypeScatter:                 {TypeScatter, []Binding{bx, by}},
	TypeBarSize:                 {TypeBarSize, []Binding{bcat, bsize}},
	TypeBarColor:                {TypeBarColor, []Binding{bcat, bcolor}},
	TypeBar:                     {TypeBar, []Binding{bcat, bind(dataset.RoleValue, InputY)}},
	TypeSizeColor:               {TypeSizeColor, []Binding{bx, bsize, bcolor}},
	TypeScatterSize:             {TypeScatterSize, []Binding{bx, by, bsize}},
	TypeScatterColor:            {TypeScatterColor, []Binding{bx, by, bcolor}},
	TypeGroupedBarSize:          {TypeGroupedBarSize, []Binding{bgroup, bx, bsize}},
	TypeGroupedBar:              {TypeGroupedBar, []Binding{bgroup, bx, {Role: dataset.RoleValue, Input: InputY, Optional: true}}},
	TypeGroupedBarColor:         {TypeGroupedBarColor, []Binding{bgroup, bx, bcolor}},
	TypeScatterSizeColor:        {TypeScatterSizeColor, []Binding{bx, by, bsize, bcolor}},
	TypeGroupedScatterSizeColor: {TypeGroupedScatterSizeColor, []Binding{bgroup, bx, by, bsize, bcolor}},
}

// Lookup returns the role bindings of a chart type.
func Lookup(t Type) (Spec, bool) {
	s, ok := specs[t]
	return s, ok
}

// Types returns every known chart type in name order.
func Types() []Type {
	out := make([]Type, 0, len(specs))
	for t := range specs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
