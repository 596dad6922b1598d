package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNever, "never"},
		{KindAny, "any"},
		{KindBytes, "bytes"},
		{KindBytes | KindTimestamp, "bytes or timestamp"},
		{KindNumber, "integer or float"},
		{KindObject | KindNull, "null or object"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestKindSetOperations(t *testing.T) {
	k := KindBytes | KindTimestamp

	assert.True(t, k.Contains(KindBytes))
	assert.False(t, k.Contains(KindBytes|KindInteger))
	assert.True(t, k.Intersects(KindBytes|KindInteger))
	assert.False(t, k.Intersects(KindNumber))
	assert.Equal(t, KindBytes, k.Intersect(KindBytes|KindInteger))
	assert.Equal(t, KindBytes|KindTimestamp|KindNull, k.Union(KindNull))

	assert.True(t, KindNever.IsEmpty())
	assert.True(t, KindBytes.IsExact())
	assert.False(t, k.IsExact())
	assert.Equal(t, []Kind{KindBytes, KindTimestamp}, k.Kinds())
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"bytes", "integer", "float", "boolean", "timestamp", "regex", "null", "array", "object", "any"} {
		k, ok := ParseKind(name)
		require.True(t, ok, name)
		require.Equal(t, name, k.String())
	}

	_, ok := ParseKind("string")
	require.False(t, ok)
}
