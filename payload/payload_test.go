package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	p := New(Dict{
		{Key: "TXN", Value: "Hello"},
		{Key: "count", Value: 3},
		{Key: "ok", Value: true},
		{Key: "nope", Value: false},
		{Key: "missing", Value: nil},
	})
	wire := p.Bytes()

	got := Parse(wire)
	txn, err := got.GetStr("TXN", "")
	require.NoError(t, err)
	assert.Equal(t, "Hello", txn)

	count, err := got.GetInt("count", -1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	ok, err := got.GetBool("ok", false)
	require.NoError(t, err)
	assert.True(t, ok)

	nope, err := got.GetBool("nope", true)
	require.NoError(t, err)
	assert.False(t, nope)

	empty, ok2 := got.Get("missing")
	require.True(t, ok2)
	assert.Equal(t, []byte{}, empty)
}

func TestListRoundTrip(t *testing.T) {
	p := New(Dict{
		{Key: "names", Value: List{"alice", "bob", "carol"}},
	})
	wire := p.Bytes()

	got := Parse(wire)
	n, err := got.GetInt("names.[]", -1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := got.GetList("names", ParseMap{MagicIndex: KindString}, nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alice", list[0])
	assert.Equal(t, "bob", list[1])
	assert.Equal(t, "carol", list[2])
}

func TestUnmatchedLeafStaysRawBytes(t *testing.T) {
	p := New(Dict{{Key: "names", Value: List{"alice"}}})
	got := Parse(p.Bytes())

	list, err := got.GetList("names", nil, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []byte("alice"), list[0], "without a matching parse-map entry, leaves stay raw bytes")
}

func TestNestedListOfDicts(t *testing.T) {
	p := New(Dict{
		{Key: "stats", Value: List{
			Dict{{Key: "key", Value: "kills"}, {Key: "value", Value: 10}},
			Dict{{Key: "key", Value: "deaths"}, {Key: "value", Value: 4}},
		}},
	})
	got := Parse(p.Bytes())

	list, err := got.GetList("stats", ParseMap{"value": KindInt, "key": KindString}, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)

	first, ok := list[0].(map[string]ParsedValue)
	require.True(t, ok)
	assert.Equal(t, "kills", first["key"])
	assert.Equal(t, 10, first["value"])
}

func TestMapRoundTrip(t *testing.T) {
	p := New(Dict{
		{Key: "owners", Value: Map{
			{Key: "101", Value: "alice"},
			{Key: "202", Value: "bob"},
		}},
	})
	wire := p.Bytes()

	got := Parse(wire)
	n, err := got.GetInt("owners.{}", -1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m, err := got.GetMap("owners", ParseMap{MagicMap: KindString}, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", m["101"])
	assert.Equal(t, "bob", m["202"])
}

func TestParseMapIndexTypesListItems(t *testing.T) {
	p := New(Dict{
		{Key: "vals", Value: List{"1", "2", "3"}},
	})
	got := Parse(p.Bytes())

	list, err := got.GetList("vals", ParseMap{MagicIndex: KindInt}, nil)
	require.NoError(t, err)
	assert.Equal(t, []ParsedValue{1, 2, 3}, list)
}

func TestQuotingAppliesOnlyWhenNeeded(t *testing.T) {
	p := New(Dict{
		{Key: "plain", Value: "abc"},
		{Key: "hasEquals", Value: "a=b"},
		{Key: "hasNewline", Value: "a\nb"},
		{Key: "nonAscii", Value: "café"},
	})
	wire := string(p.Bytes())
	assert.Contains(t, wire, "plain=abc")
	assert.NotContains(t, wire, "hasEquals=a=b")
	assert.NotContains(t, wire, "café")
}

func TestBoolParsesYesNo(t *testing.T) {
	got := Parse([]byte("a=YES\nb=NO"))
	av, err := got.GetBool("a", false)
	require.NoError(t, err)
	assert.True(t, av)
	bv, err := got.GetBool("b", true)
	require.NoError(t, err)
	assert.False(t, bv)
}

func TestMissingListIndexIsFatal(t *testing.T) {
	got := Parse([]byte("names.[]=2\nnames.0=alice"))
	_, err := got.GetList("names", nil, nil)
	require.Error(t, err)
}

func TestDefaultsWhenAbsent(t *testing.T) {
	got := Parse([]byte("a=1"))
	s, err := got.GetStr("missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", s)

	list, err := got.GetList("missing", nil, []ParsedValue{})
	require.NoError(t, err)
	assert.Equal(t, []ParsedValue{}, list)
}
