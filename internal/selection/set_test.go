package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_Toggle(t *testing.T) {
	s := New()
	assert.True(t, s.Toggle("a"))
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Toggle("a"))
	assert.False(t, s.Contains("a"))
	assert.Equal(t, 0, s.Len())
}

func TestSet_PruneSupersetIsNoop(t *testing.T) {
	s := New("1", "2")
	dropped := s.Prune([]string{"1", "2", "3", "4"})
	assert.Empty(t, dropped)
	assert.Equal(t, []string{"1", "2"}, s.IDs())

	// idempotent
	assert.Empty(t, s.Prune([]string{"1", "2", "3", "4"}))
	assert.Equal(t, []string{"1", "2"}, s.IDs())
}

func TestSet_PruneSubsetRemovesMissing(t *testing.T) {
	s := New("1", "2", "3")
	dropped := s.Prune([]string{"2"})
	assert.Equal(t, []string{"1", "3"}, dropped)
	assert.Equal(t, []string{"2"}, s.IDs())

	s.Prune(nil)
	assert.Equal(t, 0, s.Len())
}

func TestSet_ToggleAllIsScoped(t *testing.T) {
	s := New("hidden")
	visible := []string{"a", "b"}

	s.ToggleAll(visible, true)
	assert.Equal(t, []string{"a", "b", "hidden"}, s.IDs())
	assert.True(t, s.AllSelected(visible))

	s.ToggleAll(visible, false)
	assert.Equal(t, []string{"hidden"}, s.IDs())
	assert.False(t, s.AllSelected(visible))
	assert.False(t, s.AllSelected(nil))
}

func TestSet_RemoveSucceeded(t *testing.T) {
	s := New("1", "2", "3")
	s.RemoveSucceeded([]string{"2", "4"})
	assert.Equal(t, []string{"1", "3"}, s.IDs())
}

func TestSet_Clear(t *testing.T) {
	s := New("1", "2")
	s.Clear()
	assert.Empty(t, s.IDs())
	assert.True(t, s.Toggle("1"))
}
