package inspection

import "strconv"

// Floor lists the rooms on one storey.
type Floor struct {
	Number int
	Rooms  []string
}

// Registry is the set of rooms an inspection may target.
type Registry struct {
	floors []Floor
	known  map[string]struct{}
}

type floorSpec struct {
	number int
	last   int
	skip   []int
}

var defaultFloors = []floorSpec{
	{number: 2, last: 13},
	{number: 3, last: 13},
	{number: 4, last: 12, skip: []int{4}},
	{number: 5, last: 13, skip: []int{11}},
}

// DefaultRegistry returns the property's room layout: floors 2 to 5, with 404
// and 511 absent.
func DefaultRegistry() *Registry {
	floors := make([]Floor, 0, len(defaultFloors))
	for _, spec := range defaultFloors {
		floor := Floor{Number: spec.number}
		for n := 1; n <= spec.last; n++ {
			if contains(spec.skip, n) {
				continue
			}
			floor.Rooms = append(floor.Rooms, strconv.Itoa(spec.number*100+n))
		}
		floors = append(floors, floor)
	}
	return NewRegistry(floors)
}

// NewRegistry builds a registry from an explicit layout.
func NewRegistry(floors []Floor) *Registry {
	r := &Registry{known: make(map[string]struct{})}
	for _, f := range floors {
		rooms := append([]string(nil), f.Rooms...)
		r.floors = append(r.floors, Floor{Number: f.Number, Rooms: rooms})
		for _, room := range rooms {
			r.known[room] = struct{}{}
		}
	}
	return r
}

// Floors returns a copy of the layout.
func (r *Registry) Floors() []Floor {
	out := make([]Floor, len(r.floors))
	for i, f := range r.floors {
		out[i] = Floor{Number: f.Number, Rooms: append([]string(nil), f.Rooms...)}
	}
	return out
}

// Rooms returns every room in floor order.
func (r *Registry) Rooms() []string {
	var out []string
	for _, f := range r.floors {
		out = append(out, f.Rooms...)
	}
	return out
}

// Known reports whether room exists.
func (r *Registry) Known(room string) bool {
	_, ok := r.known[room]
	return ok
}

func contains(values []int, target int) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
