package typeinfo

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Variance marks a descriptor as a wildcard bound.
type Variance uint8

const (
	// Invariant is a plain, non-wildcard type.
	Invariant Variance = iota

	// Extends is an upper-bounded wildcard (? extends T).
	Extends

	// Super is a lower-bounded wildcard (? super T).
	Super
)

// String returns a human-readable variance name.
func (v Variance) String() string {
	switch v {
	case Invariant:
		return "invariant"
	case Extends:
		return "extends"
	case Super:
		return "super"
	default:
		return "unknown"
	}
}

// Descriptor is an immutable structural representation of a type signature.
// Descriptors are created by a Registry and must not be constructed directly.
type Descriptor struct {
	reg      *Registry
	class    *Class
	params   []*Descriptor
	array    bool
	variance Variance
	bound    *Descriptor
	hash     uint64
	str      string
}

func newDescriptor(reg *Registry, class *Class, params []*Descriptor, array bool, v Variance, bound *Descriptor) *Descriptor {
	d := &Descriptor{
		reg:      reg,
		class:    class,
		params:   params,
		array:    array,
		variance: v,
		bound:    bound,
	}
	d.hash = d.computeHash()
	d.str = d.render()
	return d
}

// Class returns the nominal base class. It is nil for wildcards.
func (d *Descriptor) Class() *Class {
	return d.class
}

// Params returns a copy of the type parameters.
func (d *Descriptor) Params() []*Descriptor {
	return append([]*Descriptor(nil), d.params...)
}

// NumParams returns the number of type parameters.
func (d *Descriptor) NumParams() int {
	return len(d.params)
}

// Param returns the i-th type parameter.
func (d *Descriptor) Param(i int) *Descriptor {
	return d.params[i]
}

// IsArray reports whether the descriptor is an array type.
func (d *Descriptor) IsArray() bool {
	return d.array
}

// Variance returns the wildcard variance, or Invariant.
func (d *Descriptor) Variance() Variance {
	return d.variance
}

// IsWildcard reports whether the descriptor is a wildcard bound.
func (d *Descriptor) IsWildcard() bool {
	return d.variance != Invariant
}

// Bound returns the wildcard bound. It is nil for non-wildcards.
func (d *Descriptor) Bound() *Descriptor {
	return d.bound
}

// Registry returns the registry that owns the descriptor.
func (d *Descriptor) Registry() *Registry {
	return d.reg
}

// Hash returns the structural hash. Equal descriptors always hash identically.
func (d *Descriptor) Hash() uint64 {
	return d.hash
}

// String renders the descriptor as a signature, e.g. "List<? extends CharSequence>".
func (d *Descriptor) String() string {
	return d.str
}

// Equal reports structural equality.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil {
		return false
	}
	if d.hash != o.hash ||
		d.class != o.class ||
		d.array != o.array ||
		d.variance != o.variance ||
		len(d.params) != len(o.params) {
		return false
	}
	if !d.bound.Equal(o.bound) {
		return false
	}
	for i := range d.params {
		if !d.params[i].Equal(o.params[i]) {
			return false
		}
	}
	return true
}

// Elem returns the element type of an array descriptor, or nil.
func (d *Descriptor) Elem() *Descriptor {
	if !d.array {
		return nil
	}
	return d.reg.intern(newDescriptor(d.reg, d.class, d.params, false, Invariant, nil))
}

// IsObject reports whether d is the root class Object.
func (d *Descriptor) IsObject() bool {
	return d.class != nil && d.class == d.reg.object && !d.array
}

// Supertype returns the direct parent: the superclass, else the first
// super-interface, else Object. It returns nil for Object and wildcards.
func (d *Descriptor) Supertype() *Descriptor {
	if d.IsWildcard() || d.IsObject() {
		return nil
	}
	supers := d.reg.directSupers(d)
	if len(supers) == 0 {
		return d.reg.Object()
	}
	return supers[0]
}

// ReduceBounds returns a bound-free form of d. Extends wildcards collapse to their
// bound. Super wildcards collapse to Object, or to the direct parent of their
// bound when liftBySuper is set.
func (d *Descriptor) ReduceBounds(liftBySuper bool) *Descriptor {
	switch d.variance {
	case Extends:
		return d.bound.ReduceBounds(liftBySuper)
	case Super:
		if !liftBySuper {
			return d.reg.Object()
		}
		parent := d.bound.Supertype()
		if parent == nil {
			return d.reg.Object()
		}
		return parent.ReduceBounds(liftBySuper)
	}
	if len(d.params) == 0 {
		return d
	}
	params := make([]*Descriptor, len(d.params))
	for i, p := range d.params {
		params[i] = p.ReduceBounds(liftBySuper)
	}
	return d.reg.intern(newDescriptor(d.reg, d.class, params, d.array, Invariant, nil))
}

func (d *Descriptor) computeHash() uint64 {
	h := xxhash.New()
	if d.class != nil {
		_, _ = h.WriteString(d.class.name)
	}
	var flags byte
	if d.array {
		flags |= 1
	}
	flags |= byte(d.variance) << 1

	var buf [8]byte
	_, _ = h.Write([]byte{0, flags})
	binary.LittleEndian.PutUint64(buf[:], uint64(len(d.params)))
	_, _ = h.Write(buf[:])
	for _, p := range d.params {
		binary.LittleEndian.PutUint64(buf[:], p.hash)
		_, _ = h.Write(buf[:])
	}
	if d.bound != nil {
		binary.LittleEndian.PutUint64(buf[:], d.bound.hash)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func (d *Descriptor) render() string {
	var sb strings.Builder
	switch d.variance {
	case Extends:
		sb.WriteByte('?')
		if !d.bound.IsObject() {
			sb.WriteString(" extends ")
			sb.WriteString(d.bound.str)
		}
		return sb.String()
	case Super:
		sb.WriteString("? super ")
		sb.WriteString(d.bound.str)
		return sb.String()
	}

	sb.WriteString(d.class.name)
	if len(d.params) > 0 {
		sb.WriteByte('<')
		for i, p := range d.params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.str)
		}
		sb.WriteByte('>')
	}
	if d.array {
		sb.WriteString("[]")
	}
	return sb.String()
}
