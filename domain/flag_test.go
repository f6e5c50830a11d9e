// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomFlagIsLowercased(t *testing.T) {
	assert.Equal(t, Flag("junk"), CustomFlag("Junk"))
	assert.Equal(t, Flag("$mdnsent"), CustomFlag("$MDNSent"))
}

func TestFlagsSetSemantics(t *testing.T) {
	flags := NewFlags(FlagSeen)
	flags.Add(FlagSeen)
	flags.Add(FlagFlagged)

	assert.Len(t, flags, 2)
	assert.True(t, flags.Has(FlagSeen))
	assert.True(t, flags.Has(FlagFlagged))
	assert.False(t, flags.Has(FlagDeleted))

	flags.Remove(FlagSeen)
	assert.False(t, flags.Has(FlagSeen))
}

func TestFlagsUnion(t *testing.T) {
	union := NewFlags(FlagSeen).Union(NewFlags(FlagSeen, FlagAnswered))
	assert.True(t, NewFlags(FlagSeen, FlagAnswered).Equal(union))
}

func TestFlagsEqual(t *testing.T) {
	assert.True(t, NewFlags().Equal(NewFlags()))
	assert.True(t, NewFlags(FlagSeen, FlagDraft).Equal(NewFlags(FlagDraft, FlagSeen)))
	assert.False(t, NewFlags(FlagSeen).Equal(NewFlags(FlagDraft)))
	assert.False(t, NewFlags(FlagSeen).Equal(NewFlags(FlagSeen, FlagDraft)))
}

func TestFlagsCloneIsIndependent(t *testing.T) {
	flags := NewFlags(FlagSeen)
	clone := flags.Clone()
	clone.Add(FlagDraft)

	assert.False(t, flags.Has(FlagDraft))
	assert.True(t, clone.Has(FlagDraft))
}

func TestFlagsListIsSorted(t *testing.T) {
	flags := NewFlags(FlagSeen, FlagAnswered, FlagDraft)
	assert.Equal(t, []Flag{FlagAnswered, FlagDraft, FlagSeen}, flags.List())
	assert.Equal(t, "answered draft seen", flags.String())
}
