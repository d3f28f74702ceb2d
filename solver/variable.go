package solver

// Event is a kind of domain-narrowing notification a variable can fire
// (spec.md §4.7).
type Event int

const (
	EventBind Event = iota
	EventChange
	EventBounds
	eventCount
)

// Var is the shared contract of the three variable flavors (spec.md §4.7.4).
type Var interface {
	Bound() bool
	Min() int
	Max() int
	Size() int
	Contains(v int) bool

	// Label binds the solver's chosen branching value; Unlabel undoes the
	// same decision on backtrack, returning false if excluding it emptied
	// the domain (spec.md §4.7.1/§4.7.2/§4.7.3 "Labeling").
	Label(s *Solver) bool
	Unlabel(s *Solver) bool

	// Remove excludes val from the domain, failing if that would empty it.
	Remove(s *Solver, val int) bool

	// registrations, for search heuristics (spec.md §4.7.4 "degree").
	Degree() int
	DynDegree() int

	// register subscribes a propagator to fire on the given event; it is
	// called once per (propagator, variable) pair at post() time.
	register(reg Registration)
}

// Registration is the bookkeeping a variable keeps per subscribed
// propagator: which events it cares about, and whether it is currently
// entailed ("done"), which excludes it from DynDegree.
type Registration struct {
	Prop  Propagator
	Event Event
}

// registry is embedded by each variable flavor to implement Degree/DynDegree
// and event dispatch without duplicating the bookkeeping three times.
type registry struct {
	regs []Registration
}

func (r *registry) register(reg Registration) {
	r.regs = append(r.regs, reg)
}

func (r *registry) Degree() int { return len(r.regs) }

func (r *registry) DynDegree() int {
	n := 0
	for _, reg := range r.regs {
		if !reg.Prop.Entailed() {
			n++
		}
	}
	return n
}

// fire enqueues every registered propagator whose Event is <= the strongest
// event that actually happened this operation (Bind implies Change and
// Bounds; spec.md §4.7.1's "enqueues bounds/change/bind" language).
func (r *registry) fire(s *Solver, fired Event) {
	for _, reg := range r.regs {
		if eventImplies(fired, reg.Event) {
			s.enqueue(reg.Prop)
		}
	}
}

// eventImplies reports whether observing `fired` also satisfies a
// subscription to `want`: Bind implies Change and Bounds; Change implies
// neither Bind nor Bounds on its own (spec.md §4.7.1).
func eventImplies(fired, want Event) bool {
	if fired == want {
		return true
	}
	if fired == EventBind {
		return want == EventChange || want == EventBounds
	}
	return false
}
