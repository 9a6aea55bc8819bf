package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackRegistryAddDedupesByFDAndData(t *testing.T) {
	r := newCallbackRegistry()
	calls := 0
	r.add(5, "data-a", func(interface{}) error { calls++; return nil })
	r.add(5, "data-a", func(interface{}) error { calls += 10; return nil })

	require.Len(t, r.snapshot(), 1)
	require.NoError(t, r.dispatch(5))
	assert.Equal(t, 10, calls)
}

func TestCallbackRegistryDifferentDataIsSecondEntry(t *testing.T) {
	r := newCallbackRegistry()
	r.add(5, "a", func(interface{}) error { return nil })
	r.add(5, "b", func(interface{}) error { return nil })
	assert.Len(t, r.snapshot(), 2)
}

func TestCallbackRegistryRemove(t *testing.T) {
	r := newCallbackRegistry()
	r.add(7, nil, func(interface{}) error { return nil })
	assert.True(t, r.remove(7))
	assert.False(t, r.remove(7))
	assert.Empty(t, r.snapshot())
}

func TestCallbackRegistryDisabledExcludedFromSnapshot(t *testing.T) {
	r := newCallbackRegistry()
	r.add(3, nil, func(interface{}) error { return nil })
	r.setEnabled(3, false)
	assert.Empty(t, r.snapshot())
}

func TestCallbackRegistryDispatchPropagatesError(t *testing.T) {
	r := newCallbackRegistry()
	wantErr := errors.New("boom")
	r.add(1, nil, func(interface{}) error { return wantErr })
	assert.Equal(t, wantErr, r.dispatch(1))
}

func TestCallbackRegistryDispatchUnknownFDIsNoop(t *testing.T) {
	r := newCallbackRegistry()
	assert.NoError(t, r.dispatch(42))
}
