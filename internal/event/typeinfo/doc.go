// Package typeinfo provides immutable structural type descriptors for the event bus.
//
// A Descriptor describes a declared type signature: a nominal base class, an ordered
// list of type parameters, an array flag and an optional variance (wildcard) bound.
// Descriptors are compared structurally and carry a precomputed 64-bit hash, so they
// can key caches without any runtime reflection.
//
// # Registry
//
// Classes and descriptors are owned by a Registry. The registry declares the class
// hierarchy and interns descriptors so that resolving the same signature twice yields
// the same pointer:
//
//	reg := typeinfo.NewRegistry()
//	reg.MustDeclare(typeinfo.Decl{Name: "CharSequence", Interface: true})
//	reg.MustDeclare(typeinfo.Decl{Name: "String", Implements: []string{"CharSequence"}})
//	reg.MustDeclare(typeinfo.Decl{Name: "List", Params: []string{"E"}, Interface: true})
//	reg.MustDeclare(typeinfo.Decl{
//	    Name:       "ArrayList",
//	    Params:     []string{"E"},
//	    Implements: []string{"List<E>"},
//	})
//
//	strs := reg.MustResolve("ArrayList<String>")
//	seqs := reg.MustResolve("List<? extends CharSequence>")
//	strs.AssignableTo(seqs) // true
//
// The root class Object is always declared. Supertypes must be declared before the
// classes that reference them, which keeps every supertype chain finite and acyclic.
// A class may name itself in a type argument of a supertype, as in
// String implements Comparable<String>. Supertype templates cannot use a type
// variable as an array element (T[]).
//
// Class and parameter names are identifiers: letters, digits, '_', '.' and '$',
// not starting with a digit. The words extends and super are reserved.
//
// # Signatures
//
// Resolve accepts a small generic-signature grammar:
//
//	Name                 a class; raw generic classes bind every parameter to Object
//	Name<A, B>           a parameterized class
//	Name[]               an array of Name
//	?                    an unbounded wildcard (? extends Object)
//	? extends T          an upper-bounded wildcard
//	? super T            a lower-bounded wildcard
//
// # Thread Safety
//
// Descriptors are immutable and safe to share. Registry methods are safe for
// concurrent use.
package typeinfo
