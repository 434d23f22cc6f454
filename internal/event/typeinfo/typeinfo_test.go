package typeinfo

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRegistry declares a small library-style hierarchy plus an event lattice.
func newTestRegistry(t testing.TB) *Registry {
	t.Helper()

	r := NewRegistry()
	decls := []Decl{
		{Name: "CharSequence", Interface: true},
		{Name: "Comparable", Params: []string{"T"}, Interface: true},
		{Name: "String", Implements: []string{"CharSequence", "Comparable<String>"}},
		{Name: "Number"},
		{Name: "Integer", Extends: "Number", Implements: []string{"Comparable<Integer>"}},
		{Name: "Iterable", Params: []string{"T"}, Interface: true},
		{Name: "Collection", Params: []string{"E"}, Interface: true, Implements: []string{"Iterable<E>"}},
		{Name: "List", Params: []string{"E"}, Interface: true, Implements: []string{"Collection<E>"}},
		{Name: "AbstractList", Params: []string{"E"}, Implements: []string{"List<E>"}},
		{Name: "ArrayList", Params: []string{"E"}, Extends: "AbstractList<E>"},
		{Name: "StringList", Extends: "ArrayList<String>"},
		{Name: "Map", Params: []string{"K", "V"}, Interface: true},
		{Name: "HashMap", Params: []string{"K", "V"}, Implements: []string{"Map<K, V>"}},
		{Name: "Pair", Params: []string{"A", "B"}, Interface: true},
		{Name: "Swapped", Params: []string{"X", "Y"}, Implements: []string{"Pair<Y, X>"}},
		{Name: "Event", Interface: true},
		{Name: "BaseEvent", Interface: true, Implements: []string{"Event"}},
		{Name: "ParentEvent", Implements: []string{"BaseEvent"}},
		{Name: "ChildEvent", Extends: "ParentEvent"},
	}
	for _, d := range decls {
		_, err := r.Declare(d)
		require.NoError(t, err, "declaring %s", d.Name)
	}
	return r
}

func TestRegistry_ObjectDeclared(t *testing.T) {
	r := NewRegistry()

	obj := r.Object()
	require.NotNil(t, obj)
	assert.True(t, obj.IsObject())
	assert.Equal(t, "Object", obj.String())
	assert.Nil(t, obj.Supertype())
	assert.Equal(t, 1, r.Classes())
}

func TestRegistry_Resolve_Interns(t *testing.T) {
	r := newTestRegistry(t)

	a := r.MustResolve("Map<String, List<Integer>>")
	b := r.MustResolve("Map< String,List<Integer> >")
	assert.Same(t, a, b)
	assert.Equal(t, "Map<String, List<Integer>>", a.String())
}

func TestRegistry_Resolve_Rendering(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		in   string
		want string
	}{
		{"String", "String"},
		{"String[]", "String[]"},
		{"List", "List<Object>"},
		{"List<?>", "List<?>"},
		{"List<? extends Object>", "List<?>"},
		{"List<? extends CharSequence>", "List<? extends CharSequence>"},
		{"List<? super String>", "List<? super String>"},
		{"List<String[]>", "List<String[]>"},
		{"List<String>[]", "List<String>[]"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := r.Resolve(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestRegistry_Resolve_Errors(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name   string
		in     string
		target error
		syntax bool
	}{
		{"unknown class", "Nope", ErrUnknownClass, false},
		{"unknown nested", "List<Nope>", ErrUnknownClass, false},
		{"too many args", "List<String, String>", ErrArity, false},
		{"args on plain class", "String<Integer>", ErrArity, false},
		{"empty", "", nil, true},
		{"unterminated", "List<String", nil, true},
		{"trailing", "String foo", nil, true},
		{"nested wildcard", "List<? extends ?>", nil, true},
		{"multi dim", "String[][]", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.in)
			require.Error(t, err)
			if tt.syntax {
				var se *SyntaxError
				assert.ErrorAs(t, err, &se)
				return
			}
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestRegistry_Declare_Errors(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name   string
		decl   Decl
		target error
	}{
		{"duplicate", Decl{Name: "String"}, ErrDuplicateClass},
		{"empty name", Decl{}, ErrInvalidDecl},
		{"unknown super", Decl{Name: "X", Extends: "Missing"}, ErrUnknownClass},
		{"self reference", Decl{Name: "Loop", Extends: "Loop"}, ErrUnknownClass},
		{"interface extends class", Decl{Name: "I", Interface: true, Extends: "Number"}, ErrInvalidDecl},
		{"extends interface", Decl{Name: "C", Extends: "CharSequence"}, ErrInvalidDecl},
		{"implements class", Decl{Name: "C", Implements: []string{"Number"}}, ErrInvalidDecl},
		{"variable supertype", Decl{Name: "G", Params: []string{"T"}, Extends: "T"}, ErrInvalidDecl},
		{"duplicate params", Decl{Name: "G", Params: []string{"T", "T"}}, ErrInvalidDecl},
		{"bad arity", Decl{Name: "G", Implements: []string{"Map<String>"}}, ErrArity},
		{"self as interface", Decl{Name: "Loop", Interface: true, Implements: []string{"Loop"}}, ErrUnknownClass},
		{"self argument arity", Decl{Name: "Node", Params: []string{"T"}, Implements: []string{"Comparable<Node<T, T>>"}}, ErrArity},
		{"array name", Decl{Name: "Foo[]"}, ErrInvalidDecl},
		{"generic name", Decl{Name: "Foo<T>"}, ErrInvalidDecl},
		{"wildcard name", Decl{Name: "?"}, ErrInvalidDecl},
		{"keyword name", Decl{Name: "super"}, ErrInvalidDecl},
		{"leading digit", Decl{Name: "1Foo"}, ErrInvalidDecl},
		{"bad param name", Decl{Name: "G", Params: []string{"T[]"}}, ErrInvalidDecl},
		{"param shadows class", Decl{Name: "G", Params: []string{"G"}}, ErrInvalidDecl},
		{"array of variable", Decl{Name: "ArrList", Params: []string{"T"}, Implements: []string{"List<T[]>"}}, ErrInvalidDecl},
		{"nested array of variable", Decl{Name: "ArrMap", Params: []string{"T"}, Implements: []string{"Map<String, List<? extends T[]>>"}}, ErrInvalidDecl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Declare(tt.decl)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestRegistry_Declare_SelfReference(t *testing.T) {
	r := newTestRegistry(t)

	str := r.MustResolve("String")
	assert.True(t, str.AssignableTo(r.MustResolve("Comparable<String>")))
	assert.False(t, str.AssignableTo(r.MustResolve("Comparable<Integer>")))

	_, err := r.Declare(Decl{Name: "Node", Params: []string{"T"}, Implements: []string{"Comparable<Node<T>>"}})
	require.NoError(t, err)

	node := r.MustResolve("Node<String>")
	assert.True(t, node.AssignableTo(r.MustResolve("Comparable<Node<String>>")))
	assert.True(t, node.AssignableTo(r.MustResolve("Comparable<? extends Node<?>>")))
	assert.False(t, node.AssignableTo(r.MustResolve("Comparable<Node<Integer>>")))

	path := r.PathTo(node, r.MustResolve("Comparable<Node<String>>").Class())
	require.Len(t, path, 2)
	assert.Equal(t, "Comparable<Node<String>>", path[1].String())
}

func TestRegistry_Declare_NamesCannotCollideWithSignatures(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Declare(Decl{Name: "Foo"})
	require.NoError(t, err)
	_, err = r.Declare(Decl{Name: "Foo[]"})
	require.ErrorIs(t, err, ErrInvalidDecl)

	arr := r.MustResolve("Foo[]")
	assert.True(t, arr.IsArray())
	assert.Equal(t, "Foo", arr.Elem().Class().Name())

	c, err := r.Declare(Decl{Name: "pkg.Outer$Inner"})
	require.NoError(t, err)
	d, err := r.Of(c)
	require.NoError(t, err)
	assert.False(t, d.IsArray())
	assert.Same(t, d, r.MustResolve("pkg.Outer$Inner"))
}

func TestDescriptor_WildcardArgumentsThroughSupertypes(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Declare(Decl{Name: "Holder", Params: []string{"T"}, Implements: []string{"List<? extends T>"}})
	require.NoError(t, err)
	_, err = r.Declare(Decl{Name: "Sink", Params: []string{"T"}, Implements: []string{"List<? super T>"}})
	require.NoError(t, err)

	tests := []struct {
		from string
		to   string
		want bool
	}{
		{"Holder<String>", "List<? extends String>", true},
		{"Holder<? extends CharSequence>", "List<? extends CharSequence>", true},
		{"Holder<? extends CharSequence>", "List<?>", true},
		{"Holder<? extends CharSequence>", "List<CharSequence>", false},
		{"Holder<? super String>", "List<?>", true},
		{"Holder<? super String>", "List<? extends CharSequence>", false},
		{"Sink<? super String>", "List<? super String>", true},
		{"Sink<? extends CharSequence>", "List<?>", true},
		{"Sink<? extends CharSequence>", "List<? super String>", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			from := r.MustResolve(tt.from)
			to := r.MustResolve(tt.to)
			require.NotPanics(t, func() {
				assert.Equal(t, tt.want, from.AssignableTo(to))
			})
		})
	}
}

func TestDescriptor_EqualAndHash(t *testing.T) {
	r1 := newTestRegistry(t)
	r2 := newTestRegistry(t)

	a := r1.MustResolve("List<? extends CharSequence>")
	b := r2.MustResolve("List<? extends CharSequence>")

	assert.Equal(t, a.Hash(), b.Hash(), "hash is a function of the structure")
	assert.False(t, a.Equal(b), "classes from different registries are distinct identities")

	c := r1.MustResolve("List<? super CharSequence>")
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Hash(), c.Hash())

	arr := r1.MustResolve("String[]")
	assert.False(t, arr.Equal(r1.MustResolve("String")))
	assert.True(t, arr.Elem().Equal(r1.MustResolve("String")))
	assert.Nil(t, r1.MustResolve("String").Elem())
}

func TestDescriptor_HashWideClass(t *testing.T) {
	wide := func(n int) *Descriptor {
		r := NewRegistry()
		params := make([]string, n)
		for i := range params {
			params[i] = fmt.Sprintf("T%d", i)
		}
		c, err := r.Declare(Decl{Name: "Wide", Params: params})
		require.NoError(t, err)
		d, err := r.Of(c)
		require.NoError(t, err)
		return d
	}

	a, b := wide(300), wide(300)
	assert.Equal(t, 300, a.NumParams())
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), wide(300-256).Hash())
}

func TestDescriptor_Wildcard(t *testing.T) {
	r := newTestRegistry(t)

	w := r.MustResolve("List<? super String>").Param(0)
	assert.True(t, w.IsWildcard())
	assert.Equal(t, Super, w.Variance())
	assert.Nil(t, w.Class())
	assert.Same(t, r.MustResolve("String"), w.Bound())
	assert.Nil(t, w.Supertype())
}

func TestDescriptor_AssignableTo(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		from, to string
		want     bool
	}{
		{"String", "String", true},
		{"String", "CharSequence", true},
		{"String", "Object", true},
		{"CharSequence", "Object", true},
		{"CharSequence", "String", false},
		{"Integer", "Number", true},
		{"Integer", "Comparable<Integer>", true},
		{"Integer", "Comparable<Number>", false},
		{"String", "Comparable<String>", true},

		// generic substitution through the hierarchy
		{"ArrayList<String>", "List<String>", true},
		{"ArrayList<String>", "Iterable<String>", true},
		{"ArrayList<String>", "List<CharSequence>", false},
		{"StringList", "List<String>", true},
		{"StringList", "Collection<? extends CharSequence>", true},
		{"StringList", "List<Integer>", false},
		{"HashMap<String, Integer>", "Map<String, Integer>", true},
		{"HashMap<String, Integer>", "Map<Integer, String>", false},
		{"Swapped<String, Integer>", "Pair<Integer, String>", true},
		{"Swapped<String, Integer>", "Pair<String, Integer>", false},

		// wildcards in parameter position
		{"List<String>", "List<? extends CharSequence>", true},
		{"List<String>", "List<CharSequence>", false},
		{"List<? extends CharSequence>", "List<String>", false},
		{"List<? extends String>", "List<? extends CharSequence>", true},
		{"List<? extends CharSequence>", "List<? extends String>", false},
		{"List<CharSequence>", "List<? super String>", true},
		{"List<String>", "List<? super CharSequence>", false},
		{"List<? super CharSequence>", "List<? super String>", true},
		{"List<? super String>", "List<? super CharSequence>", false},
		{"List<? super String>", "List<?>", true},
		{"List<?>", "List<? super String>", false},
		{"List<? extends String>", "List<? super String>", false},
		{"List<List<String>>", "List<List<? extends CharSequence>>", false},
		{"List<List<String>>", "List<? extends List<? extends CharSequence>>", true},

		// arrays
		{"String[]", "CharSequence[]", true},
		{"String[]", "Object", true},
		{"String[]", "String", false},
		{"String", "String[]", false},
		{"CharSequence[]", "String[]", false},
		{"List<String[]>", "List<CharSequence[]>", false},

		// events
		{"ChildEvent", "ParentEvent", true},
		{"ChildEvent", "BaseEvent", true},
		{"ChildEvent", "Event", true},
		{"ParentEvent", "ChildEvent", false},
		{"Event", "BaseEvent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			from := r.MustResolve(tt.from)
			to := r.MustResolve(tt.to)
			assert.Equal(t, tt.want, from.AssignableTo(to))
		})
	}
}

func TestDescriptor_AssignableTo_TopLevelWildcard(t *testing.T) {
	r := newTestRegistry(t)

	str := r.MustResolve("String")
	cs := r.MustResolve("CharSequence")

	extCS, err := r.Extends(cs)
	require.NoError(t, err)
	extStr, err := r.Extends(str)
	require.NoError(t, err)
	supStr, err := r.Super(str)
	require.NoError(t, err)

	assert.True(t, str.AssignableTo(extCS))
	assert.True(t, extStr.AssignableTo(extCS))
	assert.False(t, extCS.AssignableTo(cs), "a bounded type is never assignable to a concrete type")
	assert.True(t, cs.AssignableTo(supStr))
	assert.False(t, supStr.AssignableTo(str))
}

func TestDescriptor_AssignableTo_NilPanics(t *testing.T) {
	r := newTestRegistry(t)
	assert.Panics(t, func() {
		r.MustResolve("String").AssignableTo(nil)
	})
}

func TestDescriptor_AssignableTo_Transitive(t *testing.T) {
	r := newTestRegistry(t)

	sigs := []string{
		"Object", "String", "CharSequence", "Integer", "Number",
		"Comparable<String>", "Comparable<Integer>",
		"StringList", "ArrayList<String>", "AbstractList<String>", "List<String>",
		"Collection<String>", "Iterable<String>", "List<CharSequence>",
		"List<? extends CharSequence>", "Collection<? extends CharSequence>",
		"Iterable<? extends CharSequence>", "List<?>", "List<? super String>",
		"List<Object>", "String[]", "CharSequence[]", "Object[]",
		"ChildEvent", "ParentEvent", "BaseEvent", "Event",
	}
	ds := make([]*Descriptor, len(sigs))
	for i, s := range sigs {
		ds[i] = r.MustResolve(s)
	}

	for _, a := range ds {
		for _, b := range ds {
			if !a.AssignableTo(b) {
				continue
			}
			for _, c := range ds {
				if b.AssignableTo(c) {
					assert.True(t, a.AssignableTo(c), "%s -> %s -> %s", a, b, c)
				}
			}
		}
	}
}

func TestDescriptor_Supertype(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		in, want string
	}{
		{"ChildEvent", "ParentEvent"},
		{"ParentEvent", "BaseEvent"},
		{"BaseEvent", "Event"},
		{"Event", "Object"},
		{"ArrayList<String>", "AbstractList<String>"},
		{"Integer", "Number"},
		{"Number", "Object"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := r.MustResolve(tt.in).Supertype()
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestRegistry_PathTo(t *testing.T) {
	r := newTestRegistry(t)

	event, _ := r.Lookup("Event")
	path := r.PathTo(r.MustResolve("ChildEvent"), event)
	require.Len(t, path, 4)

	var names []string
	for _, d := range path {
		names = append(names, d.String())
	}
	assert.Equal(t, []string{"ChildEvent", "ParentEvent", "BaseEvent", "Event"}, names)

	list, _ := r.Lookup("Iterable")
	path = r.PathTo(r.MustResolve("StringList"), list)
	require.NotEmpty(t, path)
	assert.Equal(t, "Iterable<String>", path[len(path)-1].String())

	assert.Nil(t, r.PathTo(r.MustResolve("String"), event))
}

func TestDescriptor_ReduceBounds(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		in          string
		liftBySuper bool
		want        string
	}{
		{"List<? extends CharSequence>", false, "List<CharSequence>"},
		{"List<?>", false, "List<Object>"},
		{"List<? super Integer>", false, "List<Object>"},
		{"List<? super Integer>", true, "List<Number>"},
		{"Map<String, List<? extends Number>>", false, "Map<String, List<Number>>"},
		{"String", false, "String"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := r.MustResolve(tt.in).ReduceBounds(tt.liftBySuper)
			assert.Equal(t, tt.want, got.String())
			assert.Same(t, r.MustResolve(tt.want), got)
		})
	}
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	r := newTestRegistry(t)

	const goroutines = 32
	results := make([]*Descriptor, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.MustResolve("HashMap<String, List<? extends Number>>")
		}(i)
	}
	wg.Wait()

	for _, d := range results {
		assert.Same(t, results[0], d)
	}
}
