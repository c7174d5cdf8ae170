package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMapSetGet(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("a", 1)
	m.Set("b", 2)

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	// Replacing keeps the original position
	m.Set("a", 10)
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, _ = m.Get("a")
	assert.Equal(t, 10, v)
}

func TestOrderedMapMarshalKeepsInsertionOrder(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("zebra", 1)
	m.Set("apple", 2)
	m.Set("mango", 3)

	out, err := json.Marshal(m)
	require.NoError(t, err)

	// Not alphabetical: zebra was inserted first.
	assert.Equal(t, `{"zebra":1,"apple":2,"mango":3}`, string(out))
}

func TestOrderedMapUnmarshalKeepsDocumentOrder(t *testing.T) {
	var m OrderedMap[int]
	require.NoError(t, json.Unmarshal([]byte(`{"z":1,"a":2,"m":3}`), &m))

	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())

	out, err := json.Marshal(&m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2,"m":3}`, string(out))
}

func TestOrderedMapUnmarshalNested(t *testing.T) {
	var m OrderedMap[*OrderedMap[string]]
	require.NoError(t, json.Unmarshal([]byte(`{"outer":{"y":"1","x":"2"}}`), &m))

	inner, ok := m.Get("outer")
	require.True(t, ok)
	assert.Equal(t, []string{"y", "x"}, inner.Keys())
}

func TestOrderedMapUnmarshalRejectsNonObject(t *testing.T) {
	var m OrderedMap[int]
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &m))
}

func TestOrderedMapDelete(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	m.Delete("b")
	assert.Equal(t, []string{"a", "c"}, m.Keys())
	_, ok := m.Get("b")
	assert.False(t, ok)

	// Deleting a missing key is a no-op
	m.Delete("b")
	assert.Equal(t, 2, m.Len())
}

func TestOrderedMapNilReceiver(t *testing.T) {
	var m *OrderedMap[int]

	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Keys())
	_, ok := m.Get("a")
	assert.False(t, ok)
	m.Delete("a")
}

func TestOrderedMapZeroValueSet(t *testing.T) {
	var m OrderedMap[int]
	m.Set("a", 1)

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
