// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import (
	"sort"
	"strings"
)

// Flag is a normalized message flag. The well-known IMAP system flags get
// their own constants; anything else is carried verbatim (lowercased) as a
// custom flag.
type Flag string

const (
	FlagSeen     = Flag("seen")
	FlagAnswered = Flag("answered")
	FlagFlagged  = Flag("flagged")
	FlagDeleted  = Flag("deleted")
	FlagDraft    = Flag("draft")
)

func CustomFlag(name string) Flag {
	return Flag(strings.ToLower(name))
}

// Flags is a set of flags. The zero value is not usable, use NewFlags.
type Flags map[Flag]struct{}

func NewFlags(flags ...Flag) Flags {
	f := Flags{}
	for _, flag := range flags {
		f.Add(flag)
	}
	return f
}

func (f Flags) Add(flag Flag) {
	f[flag] = struct{}{}
}

func (f Flags) Remove(flag Flag) {
	delete(f, flag)
}

func (f Flags) Has(flag Flag) bool {
	_, ok := f[flag]
	return ok
}

func (f Flags) Union(other Flags) Flags {
	union := NewFlags()
	for flag := range f {
		union.Add(flag)
	}
	for flag := range other {
		union.Add(flag)
	}
	return union
}

func (f Flags) Equal(other Flags) bool {
	if len(f) != len(other) {
		return false
	}
	for flag := range f {
		if !other.Has(flag) {
			return false
		}
	}
	return true
}

func (f Flags) Clone() Flags {
	clone := NewFlags()
	for flag := range f {
		clone.Add(flag)
	}
	return clone
}

// List returns the flags in deterministic (lexicographic) order.
func (f Flags) List() []Flag {
	flags := make([]Flag, 0, len(f))
	for flag := range f {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}

func (f Flags) String() string {
	strs := make([]string, 0, len(f))
	for _, flag := range f.List() {
		strs = append(strs, string(flag))
	}
	return strings.Join(strs, " ")
}
