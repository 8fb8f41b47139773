package selection

import (
	"testing"

	"tripgraph/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
)

func TestPlainClickReplacesSelection(t *testing.T) {
	store := NewStore()
	a := valueobjects.NewEntityID()
	b := valueobjects.NewEntityID()

	store.Click(a, false)
	assert.True(t, store.IsSelected(a))
	assert.Equal(t, 1, store.Len())

	store.Click(b, false)
	assert.False(t, store.IsSelected(a))
	assert.True(t, store.IsSelected(b))
	assert.Equal(t, 1, store.Len())
}

func TestPlainClickTogglesOffExactSelection(t *testing.T) {
	store := NewStore()
	a := valueobjects.NewEntityID()

	store.Click(a, false)
	store.Click(a, false)
	assert.Equal(t, 0, store.Len())
}

func TestPlainClickCollapsesMultiSelection(t *testing.T) {
	store := NewStore()
	a := valueobjects.NewEntityID()
	b := valueobjects.NewEntityID()

	store.Click(a, true)
	store.Click(b, true)
	assert.Equal(t, 2, store.Len())

	// Plain click on a member of a multi-selection replaces, not clears
	store.Click(a, false)
	assert.True(t, store.IsSelected(a))
	assert.False(t, store.IsSelected(b))
	assert.Equal(t, 1, store.Len())
}

func TestModifierClickToggles(t *testing.T) {
	store := NewStore()
	a := valueobjects.NewEntityID()
	b := valueobjects.NewEntityID()

	store.Click(a, false)
	store.Click(b, true)
	assert.True(t, store.IsSelected(a))
	assert.True(t, store.IsSelected(b))

	store.Click(a, true)
	assert.False(t, store.IsSelected(a))
	assert.True(t, store.IsSelected(b))
}

func TestGroupClickReplacesWithoutModifier(t *testing.T) {
	store := NewStore()
	a := valueobjects.NewEntityID()
	b := valueobjects.NewEntityID()
	c := valueobjects.NewEntityID()

	store.Click(a, false)
	store.ClickGroup([]valueobjects.EntityID{b, c}, false)

	assert.False(t, store.IsSelected(a))
	assert.True(t, store.IsSelected(b))
	assert.True(t, store.IsSelected(c))
}

func TestGroupClickUnionsWithModifier(t *testing.T) {
	store := NewStore()
	a := valueobjects.NewEntityID()
	b := valueobjects.NewEntityID()

	store.Click(a, false)
	store.ClickGroup([]valueobjects.EntityID{b}, true)

	assert.True(t, store.IsSelected(a))
	assert.True(t, store.IsSelected(b))
}

func TestGroupClickEmptyIsNoOp(t *testing.T) {
	store := NewStore()
	a := valueobjects.NewEntityID()

	store.Click(a, false)
	store.ClickGroup(nil, false)

	assert.True(t, store.IsSelected(a))
}

func TestClear(t *testing.T) {
	store := NewStore()
	store.Click(valueobjects.NewEntityID(), false)

	store.Clear()
	assert.Equal(t, 0, store.Len())
}

func TestSelectedReturnsCopy(t *testing.T) {
	store := NewStore()
	a := valueobjects.NewEntityID()
	store.Click(a, false)

	got := store.Selected()
	delete(got, a)
	assert.True(t, store.IsSelected(a))
}
