package typeinfo

import (
	"fmt"
	"slices"
	"sync"
)

// ObjectName is the name of the root class every registry declares.
const ObjectName = "Object"

// Class is a nominal base identity declared in a Registry.
type Class struct {
	reg           *Registry
	name          string
	params        []string
	iface         bool
	hasSuperclass bool

	// supers holds the superclass template first (when declared), then interfaces.
	supers []*expr
}

// Name returns the class name.
func (c *Class) Name() string {
	return c.name
}

// Params returns the names of the class's type parameters.
func (c *Class) Params() []string {
	return slices.Clone(c.params)
}

// IsInterface reports whether the class was declared as an interface.
func (c *Class) IsInterface() bool {
	return c.iface
}

// String returns the class name.
func (c *Class) String() string {
	return c.name
}

// Decl describes a class to declare.
type Decl struct {
	// Name is the unique class name.
	Name string `yaml:"name" toml:"name" json:"name"`

	// Params lists type parameter names, e.g. ["K", "V"].
	Params []string `yaml:"params,omitempty" toml:"params,omitempty" json:"params,omitempty"`

	// Extends is the superclass signature. Interfaces must leave it empty.
	Extends string `yaml:"extends,omitempty" toml:"extends,omitempty" json:"extends,omitempty"`

	// Implements lists interface signatures. For interfaces these are the
	// super-interfaces.
	Implements []string `yaml:"implements,omitempty" toml:"implements,omitempty" json:"implements,omitempty"`

	// Interface marks the class as an interface.
	Interface bool `yaml:"interface,omitempty" toml:"interface,omitempty" json:"interface,omitempty"`
}

// Registry owns declared classes and interns descriptors.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	classes  map[string]*Class
	interned map[string]*Descriptor
	object   *Class
	objectD  *Descriptor
}

// NewRegistry creates a registry with the root class Object declared.
func NewRegistry() *Registry {
	r := &Registry{
		classes:  make(map[string]*Class),
		interned: make(map[string]*Descriptor),
	}
	r.object = &Class{reg: r, name: ObjectName}
	r.classes[ObjectName] = r.object
	r.objectD = r.intern(newDescriptor(r, r.object, nil, false, Invariant, nil))
	return r
}

// Object returns the descriptor of the root class.
func (r *Registry) Object() *Descriptor {
	return r.objectD
}

// Lookup returns a declared class by name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.classes[name]
	return c, ok
}

// Classes returns the number of declared classes, including Object.
func (r *Registry) Classes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.classes)
}

// Declare adds a class to the registry. Every class referenced by the
// declaration's supertypes must already be declared, except that the class
// itself may appear as a type argument.
func (r *Registry) Declare(decl Decl) (*Class, error) {
	if !validName(decl.Name) {
		return nil, fmt.Errorf("%w: bad class name %q", ErrInvalidDecl, decl.Name)
	}
	if decl.Interface && decl.Extends != "" {
		return nil, fmt.Errorf("%w: interface %s cannot extend a class", ErrInvalidDecl, decl.Name)
	}
	for i, p := range decl.Params {
		if !validName(p) || p == decl.Name || slices.Contains(decl.Params[:i], p) {
			return nil, fmt.Errorf("%w: bad type parameter list for %s", ErrInvalidDecl, decl.Name)
		}
	}

	c := &Class{
		reg:    r,
		name:   decl.Name,
		params: slices.Clone(decl.Params),
		iface:  decl.Interface,
	}

	sigs := decl.Implements
	if decl.Extends != "" {
		sigs = append([]string{decl.Extends}, decl.Implements...)
		c.hasSuperclass = true
	}
	supers := make([]*expr, 0, len(sigs))
	for _, sig := range sigs {
		e, err := parseSignature(sig, decl.Params)
		if err != nil {
			return nil, err
		}
		if e.hasArrayVar() {
			return nil, fmt.Errorf("%w: supertype %s of %s uses a type variable as an array element", ErrInvalidDecl, sig, decl.Name)
		}
		supers = append(supers, e)
	}
	c.supers = supers

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[decl.Name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateClass, decl.Name)
	}
	for i, e := range supers {
		if e.kind != exprNamed || e.array {
			return nil, fmt.Errorf("%w: supertype of %s must be a plain class", ErrInvalidDecl, decl.Name)
		}
		target, ok := r.classes[e.name]
		if !ok {
			return nil, fmt.Errorf("%w: %s (supertype of %s)", ErrUnknownClass, e.name, decl.Name)
		}
		wantInterface := !(i == 0 && c.hasSuperclass)
		if target.iface != wantInterface {
			if wantInterface {
				return nil, fmt.Errorf("%w: %s is not an interface", ErrInvalidDecl, e.name)
			}
			return nil, fmt.Errorf("%w: %s is an interface", ErrInvalidDecl, e.name)
		}
		if len(e.args) != 0 && len(e.args) != len(target.params) {
			return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, target.name, len(target.params), len(e.args))
		}
		if err := r.checkLocked(e, c); err != nil {
			return nil, err
		}
	}

	r.classes[decl.Name] = c
	return c, nil
}

// MustDeclare is like Declare but panics on error.
func (r *Registry) MustDeclare(decl Decl) *Class {
	c, err := r.Declare(decl)
	if err != nil {
		panic(err)
	}
	return c
}

// checkLocked validates that every class named in the type arguments of e
// exists with matching arity. The class being declared, self, may appear as a
// type argument (String implements Comparable<String>) but never as the head of
// a supertype, which keeps supertype chains acyclic.
func (r *Registry) checkLocked(e *expr, self *Class) error {
	for _, a := range e.args {
		if err := r.checkArgLocked(a, self); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) checkArgLocked(e *expr, self *Class) error {
	switch e.kind {
	case exprNamed:
		c, ok := r.classes[e.name]
		if !ok && e.name == self.name {
			c, ok = self, true
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownClass, e.name)
		}
		if len(e.args) != 0 && len(e.args) != len(c.params) {
			return fmt.Errorf("%w: %s takes %d, got %d", ErrArity, c.name, len(c.params), len(e.args))
		}
		for _, a := range e.args {
			if err := r.checkArgLocked(a, self); err != nil {
				return err
			}
		}
	case exprWildcard:
		if e.bound != nil {
			return r.checkArgLocked(e.bound, self)
		}
	}
	return nil
}

// Resolve parses a signature and returns its interned descriptor.
func (r *Registry) Resolve(signature string) (*Descriptor, error) {
	r.mu.RLock()
	d, ok := r.interned[signature]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	e, err := parseSignature(signature, nil)
	if err != nil {
		return nil, err
	}
	return r.build(e, nil)
}

// MustResolve is like Resolve but panics on error.
func (r *Registry) MustResolve(signature string) *Descriptor {
	d, err := r.Resolve(signature)
	if err != nil {
		panic(err)
	}
	return d
}

// Of returns the descriptor of class c applied to params. Passing no params for
// a generic class binds every parameter to Object.
func (r *Registry) Of(c *Class, params ...*Descriptor) (*Descriptor, error) {
	if c == nil || c.reg != r {
		return nil, fmt.Errorf("%w: class not owned by this registry", ErrInvalidType)
	}
	if len(params) == 0 && len(c.params) > 0 {
		params = make([]*Descriptor, len(c.params))
		for i := range params {
			params[i] = r.objectD
		}
	}
	if len(params) != len(c.params) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, c.name, len(c.params), len(params))
	}
	for _, p := range params {
		if p == nil || p.reg != r {
			return nil, fmt.Errorf("%w: parameter not owned by this registry", ErrInvalidType)
		}
	}
	return r.intern(newDescriptor(r, c, slices.Clone(params), false, Invariant, nil)), nil
}

// ArrayOf returns the array type whose elements are d.
func (r *Registry) ArrayOf(d *Descriptor) (*Descriptor, error) {
	if d.IsWildcard() || d.array {
		return nil, fmt.Errorf("%w: cannot make an array of %s", ErrInvalidType, d)
	}
	return r.intern(newDescriptor(r, d.class, d.params, true, Invariant, nil)), nil
}

// Extends returns the wildcard "? extends bound".
func (r *Registry) Extends(bound *Descriptor) (*Descriptor, error) {
	return r.wildcard(Extends, bound)
}

// Super returns the wildcard "? super bound".
func (r *Registry) Super(bound *Descriptor) (*Descriptor, error) {
	return r.wildcard(Super, bound)
}

func (r *Registry) wildcard(v Variance, bound *Descriptor) (*Descriptor, error) {
	if bound == nil || bound.IsWildcard() {
		return nil, fmt.Errorf("%w: wildcard bound must be a concrete type", ErrInvalidType)
	}
	return r.intern(newDescriptor(r, nil, nil, false, v, bound)), nil
}

// intern returns the canonical descriptor equal to d.
func (r *Registry) intern(d *Descriptor) *Descriptor {
	r.mu.RLock()
	existing, ok := r.interned[d.str]
	r.mu.RUnlock()
	if ok {
		return existing
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.interned[d.str]; ok {
		return existing
	}
	r.interned[d.str] = d
	return d
}

// build resolves e, substituting env for type variables.
func (r *Registry) build(e *expr, env []*Descriptor) (*Descriptor, error) {
	switch e.kind {
	case exprVar:
		if e.index >= len(env) {
			return nil, fmt.Errorf("%w: unbound type variable %s", ErrInvalidType, e.name)
		}
		if e.array {
			return r.ArrayOf(env[e.index])
		}
		return env[e.index], nil

	case exprWildcard:
		bound := r.objectD
		if e.bound != nil {
			b, err := r.build(e.bound, env)
			if err != nil {
				return nil, err
			}
			bound = b
		}
		if bound.IsWildcard() {
			// A type variable bound to a wildcard: ? extends (? extends X) is
			// ? extends X, likewise for super. Mixed variance only bounds by Object.
			if bound.variance == e.variance {
				return bound, nil
			}
			return r.wildcard(Extends, r.objectD)
		}
		return r.wildcard(e.variance, bound)
	}

	c, ok := r.Lookup(e.name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, e.name)
	}
	params := make([]*Descriptor, len(e.args))
	for i, a := range e.args {
		p, err := r.build(a, env)
		if err != nil {
			return nil, err
		}
		params[i] = p
	}
	d, err := r.Of(c, params...)
	if err != nil {
		return nil, err
	}
	if e.array {
		return r.ArrayOf(d)
	}
	return d, nil
}

// directSupers re-expresses the declared supertypes of d with d's type
// arguments substituted, superclass first. Object closes the list of every class
// that declares no superclass, interfaces included.
func (r *Registry) directSupers(d *Descriptor) []*Descriptor {
	c := d.class
	if c == nil || c == r.object {
		return nil
	}

	out := make([]*Descriptor, 0, len(c.supers)+1)
	for _, tmpl := range c.supers {
		s, err := r.build(tmpl, d.params)
		if err != nil {
			// Templates are validated at declaration time.
			panic(fmt.Sprintf("typeinfo: resolving supertype of %s: %v", d, err))
		}
		out = append(out, s)
	}
	if !c.hasSuperclass {
		out = append(out, r.objectD)
	}
	return out
}

// PathTo returns the chain of descriptors from d up to the first supertype whose
// class is target, both ends inclusive. Superclasses are searched before
// interfaces. It returns nil when d does not descend from target.
func (r *Registry) PathTo(d *Descriptor, target *Class) []*Descriptor {
	if d.IsWildcard() || target == nil {
		return nil
	}
	if d.array {
		if target == r.object {
			return []*Descriptor{d, r.objectD}
		}
		return nil
	}
	if d.class == target {
		return []*Descriptor{d}
	}
	for _, s := range r.directSupers(d) {
		if p := r.PathTo(s, target); p != nil {
			return append([]*Descriptor{d}, p...)
		}
	}
	return nil
}
