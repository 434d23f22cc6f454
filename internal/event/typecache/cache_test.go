package typecache

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/typebus/internal/event/typeinfo"
)

func newRegistry(t *testing.T) *typeinfo.Registry {
	t.Helper()
	r := typeinfo.NewRegistry()
	r.MustDeclare(typeinfo.Decl{Name: "CharSequence", Interface: true})
	r.MustDeclare(typeinfo.Decl{Name: "String", Implements: []string{"CharSequence"}})
	r.MustDeclare(typeinfo.Decl{Name: "Integer"})
	r.MustDeclare(typeinfo.Decl{Name: "List", Params: []string{"E"}, Interface: true})
	return r
}

func TestCache_PutAndGet(t *testing.T) {
	r := newRegistry(t)
	c := New(16)

	str := r.MustResolve("String")
	integer := r.MustResolve("Integer")

	c.Put(str, true)
	c.Put(integer, false)

	v, ok := c.Get(str)
	require.True(t, ok)
	assert.True(t, v)

	v, ok = c.Get(integer)
	require.True(t, ok)
	assert.False(t, v)

	_, ok = c.Get(r.MustResolve("List<String>"))
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_FirstValueWins(t *testing.T) {
	r := newRegistry(t)
	c := New(0)
	str := r.MustResolve("String")

	c.Put(str, true)
	c.Put(str, false)

	v, ok := c.Get(str)
	require.True(t, ok)
	assert.True(t, v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_StructuralKeys(t *testing.T) {
	// Descriptors from different registries share hashes but are distinct keys.
	r1 := newRegistry(t)
	r2 := newRegistry(t)
	c := New(4)

	a := r1.MustResolve("List<String>")
	b := r2.MustResolve("List<String>")
	require.Equal(t, a.Hash(), b.Hash())

	c.Put(a, true)
	c.Put(b, false)

	va, _ := c.Get(a)
	vb, _ := c.Get(b)
	assert.True(t, va)
	assert.False(t, vb)
	assert.Equal(t, 2, c.Len())
}

func TestCache_ResolveComputesOnce(t *testing.T) {
	r := newRegistry(t)
	c := New(4)
	str := r.MustResolve("String")
	cs := r.MustResolve("CharSequence")

	var calls int
	compute := func() bool {
		calls++
		return str.AssignableTo(cs)
	}

	v, hit := c.Resolve(str, compute)
	assert.True(t, v)
	assert.False(t, hit)

	for i := 0; i < 10; i++ {
		v, hit = c.Resolve(str, compute)
		assert.True(t, v)
		assert.True(t, hit)
	}
	assert.Equal(t, 1, calls)
}

func TestCache_ConcurrentResolve(t *testing.T) {
	r := newRegistry(t)
	c := New(4)
	keys := []*typeinfo.Descriptor{
		r.MustResolve("String"),
		r.MustResolve("Integer"),
		r.MustResolve("List<String>"),
		r.MustResolve("List<Integer>"),
	}
	target := r.MustResolve("CharSequence")

	var computed atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := keys[i%len(keys)]
				v, _ := c.Resolve(k, func() bool {
					computed.Add(1)
					return k.AssignableTo(target)
				})
				assert.Equal(t, k.AssignableTo(target), v)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(keys), c.Len())
	assert.GreaterOrEqual(t, computed.Load(), int64(len(keys)))
}
