// SPDX-License-Identifier: GPL-3.0-or-later
package domain

// SelectionStrategy decides which folders take part in a sync. It is applied
// uniformly to live listings and cache listings so that both sides of a diff
// see the same universe of folders.
type SelectionStrategy interface {
	Matches(folder string) bool
}

type AllFolders struct{}

func (AllFolders) Matches(string) bool { return true }

type IncludeFolders struct {
	Names map[string]struct{}
}

func Include(names ...string) IncludeFolders {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return IncludeFolders{Names: set}
}

func (s IncludeFolders) Matches(folder string) bool {
	_, ok := s.Names[folder]
	return ok
}

type ExcludeFolders struct {
	Names map[string]struct{}
}

func Exclude(names ...string) ExcludeFolders {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return ExcludeFolders{Names: set}
}

func (s ExcludeFolders) Matches(folder string) bool {
	_, ok := s.Names[folder]
	return !ok
}
