package typeinfo

// AssignableTo reports whether a value statically typed as d may be treated as a
// value of type other. Type parameters are invariant unless they carry a
// wildcard; arrays are covariant in their element type.
//
// other must not be nil.
func (d *Descriptor) AssignableTo(other *Descriptor) bool {
	if other == nil {
		panic("typeinfo: AssignableTo called with a nil descriptor")
	}
	return d.assignable(other, true)
}

// assignable implements AssignableTo. outermost is false for type-parameter
// positions, where only exact matches or wildcard containment are accepted.
func (d *Descriptor) assignable(o *Descriptor, outermost bool) bool {
	if d.Equal(o) {
		return true
	}

	switch o.variance {
	case Extends:
		switch d.variance {
		case Extends:
			return d.bound.assignable(o.bound, true)
		case Super:
			return o.bound.IsObject()
		}
		return d.assignable(o.bound, true)
	case Super:
		switch d.variance {
		case Super:
			return o.bound.assignable(d.bound, true)
		case Extends:
			return false
		}
		return o.bound.assignable(d, true)
	}

	if d.variance != Invariant {
		return false
	}
	if !outermost {
		return false
	}
	if o.IsObject() {
		return true
	}

	if d.array || o.array {
		if d.array != o.array {
			return false
		}
		return d.Elem().assignable(o.Elem(), true)
	}

	if d.class != o.class {
		path := d.reg.PathTo(d, o.class)
		if path == nil {
			return false
		}
		return path[len(path)-1].assignable(o, true)
	}

	for i := range d.params {
		if !d.params[i].assignable(o.params[i], false) {
			return false
		}
	}
	return true
}
