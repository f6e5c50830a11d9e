// SPDX-License-Identifier: GPL-3.0-or-later
package sync

import (
	"sort"

	"github.com/mailsmith/go-mail-sync/domain"
)

// FolderState is the folder-name view of the four observable states.
type FolderState struct {
	LeftCache  map[string]domain.Folder
	Left       map[string]domain.Folder
	RightCache map[string]domain.Folder
	Right      map[string]domain.Folder
}

// EmailState is the Message-ID-keyed view of one folder across the four
// observable states.
type EmailState struct {
	LeftCache  map[string]*domain.Envelope
	Left       map[string]*domain.Envelope
	RightCache map[string]*domain.Envelope
	Right      map[string]*domain.Envelope
}

func FoldersByName(folders domain.Folders) map[string]domain.Folder {
	m := make(map[string]domain.Folder, len(folders))
	for _, f := range folders {
		m[f.Name] = f
	}
	return m
}

// BuildFolderPatch computes the hunks that make both caches mirror their
// live side and both live sides agree on the folder set. Cache entries act
// as tombstone evidence: a folder present in a cache but gone from its live
// side was deleted there, and the deletion wins over re-creation. The inbox
// is the exception, it is purged, never deleted.
func BuildFolderPatch(state FolderState) []Hunk {
	names := map[string]struct{}{}
	for _, m := range []map[string]domain.Folder{state.LeftCache, state.Left, state.RightCache, state.Right} {
		for name := range m {
			names[name] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	hunks := []Hunk{}
	for _, name := range sorted {
		_, lc := state.LeftCache[name]
		_, l := state.Left[name]
		_, rc := state.RightCache[name]
		_, r := state.Right[name]

		switch {
		case l && r:
			if !lc {
				hunks = append(hunks, CacheFolder{Name: name, On: TargetLeftCache})
			}
			if !rc {
				hunks = append(hunks, CacheFolder{Name: name, On: TargetRightCache})
			}

		case l && !r:
			if rc {
				// Deleted on right.
				hunks = append(hunks, propagateFolderDeletion(name, TargetLeft, lc)...)
			} else {
				// New on left.
				hunks = append(hunks, CreateFolder{Name: name, On: TargetRight})
				if !lc {
					hunks = append(hunks, CacheFolder{Name: name, On: TargetLeftCache})
				}
				hunks = append(hunks, CacheFolder{Name: name, On: TargetRightCache})
			}

		case !l && r:
			if lc {
				// Deleted on left.
				hunks = append(hunks, propagateFolderDeletion(name, TargetRight, rc)...)
			} else {
				// New on right.
				hunks = append(hunks, CreateFolder{Name: name, On: TargetLeft})
				hunks = append(hunks, CacheFolder{Name: name, On: TargetLeftCache})
				if !rc {
					hunks = append(hunks, CacheFolder{Name: name, On: TargetRightCache})
				}
			}

		default:
			// Gone from both live sides, only stale cache rows remain.
			if lc {
				hunks = append(hunks, UncacheFolder{Name: name, On: TargetLeftCache})
			}
			if rc {
				hunks = append(hunks, UncacheFolder{Name: name, On: TargetRightCache})
			}
		}
	}

	return hunks
}

// propagateFolderDeletion emits the hunks removing a folder from the side
// that still has it (surviving) after it disappeared from the other live
// side. survivorCached tells whether the survivor's own cache row exists.
func propagateFolderDeletion(name string, survivor Target, survivorCached bool) []Hunk {
	survivorCache := TargetLeftCache
	staleCache := TargetRightCache
	if survivor == TargetRight {
		survivorCache = TargetRightCache
		staleCache = TargetLeftCache
	}

	if domain.KindOf(name) == domain.KindInbox {
		hunks := []Hunk{PurgeFolder{Name: name, On: survivor}}
		if !survivorCached {
			hunks = append(hunks, CacheFolder{Name: name, On: survivorCache})
		}
		return append(hunks, UncacheFolder{Name: name, On: staleCache})
	}

	hunks := []Hunk{DeleteFolder{Name: name, On: survivor}}
	if survivorCached {
		hunks = append(hunks, UncacheFolder{Name: name, On: survivorCache})
	}
	return append(hunks, UncacheFolder{Name: name, On: staleCache})
}

// BuildEmailPatch diffs one folder's envelopes across the four states,
// grouped by Message-ID. Flag conflicts between the two live sides resolve
// to the union of both sets. The emitted hunks are independent: no two
// hunks of one patch mutate the same message on the same target.
func BuildEmailPatch(folder string, state EmailState) []Hunk {
	ids := map[string]struct{}{}
	for _, m := range []map[string]*domain.Envelope{state.LeftCache, state.Left, state.RightCache, state.Right} {
		for id := range m {
			ids[id] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	hunks := []Hunk{}
	for _, id := range sorted {
		lc := state.LeftCache[id]
		l := state.Left[id]
		rc := state.RightCache[id]
		r := state.Right[id]

		switch {
		case l != nil && r != nil:
			hunks = append(hunks, reconcileFlags(folder, lc, l, rc, r)...)

		case l == nil && r == nil:
			if lc != nil {
				hunks = append(hunks, UncacheEmail{FolderName: folder, ID: lc.InternalID, On: TargetLeftCache})
			}
			if rc != nil {
				hunks = append(hunks, UncacheEmail{FolderName: folder, ID: rc.InternalID, On: TargetRightCache})
			}

		case l != nil:
			// Only left has it live.
			if rc != nil {
				// Right cached it once, so it was deleted on right.
				hunks = append(hunks, DeleteEmail{FolderName: folder, ID: l.InternalID, On: TargetLeft})
				if lc != nil {
					hunks = append(hunks, UncacheEmail{FolderName: folder, ID: lc.InternalID, On: TargetLeftCache})
				}
				hunks = append(hunks, UncacheEmail{FolderName: folder, ID: rc.InternalID, On: TargetRightCache})
			} else {
				hunks = append(hunks, copyThenCache(folder, lc, l, TargetLeft, TargetRight)...)
			}

		default:
			// Only right has it live.
			if lc != nil {
				hunks = append(hunks, DeleteEmail{FolderName: folder, ID: r.InternalID, On: TargetRight})
				hunks = append(hunks, UncacheEmail{FolderName: folder, ID: lc.InternalID, On: TargetLeftCache})
				if rc != nil {
					hunks = append(hunks, UncacheEmail{FolderName: folder, ID: rc.InternalID, On: TargetRightCache})
				}
			} else {
				hunks = append(hunks, copyThenCache(folder, rc, r, TargetRight, TargetLeft)...)
			}
		}
	}

	return hunks
}

// reconcileFlags handles a message present on both live sides: converge the
// live flag sets on their union, then bring both cache mirrors up to date.
func reconcileFlags(folder string, lc, l, rc, r *domain.Envelope) []Hunk {
	union := l.Flags.Union(r.Flags)
	hunks := []Hunk{}

	if !l.Flags.Equal(union) {
		hunks = append(hunks, UpdateFlags{FolderName: folder, Envelope: withFlags(l, union), On: TargetLeft})
	}
	if !r.Flags.Equal(union) {
		hunks = append(hunks, UpdateFlags{FolderName: folder, Envelope: withFlags(r, union), On: TargetRight})
	}

	hunks = append(hunks, refreshCache(folder, lc, l, union, TargetLeft, TargetLeftCache)...)
	hunks = append(hunks, refreshCache(folder, rc, r, union, TargetRight, TargetRightCache)...)

	return hunks
}

// refreshCache brings one side's cache mirror in line with the resolved
// flag set. A missing mirror row with no flag conflict is re-fetched from
// the live side; anything else is corrected from the envelope in hand.
func refreshCache(folder string, cached, live *domain.Envelope, union domain.Flags, liveTarget, cacheTarget Target) []Hunk {
	if cached == nil {
		if live.Flags.Equal(union) {
			return []Hunk{GetThenCache{FolderName: folder, ID: live.InternalID, Source: liveTarget}}
		}
		return []Hunk{UpdateCachedFlags{FolderName: folder, Envelope: withFlags(live, union), On: cacheTarget}}
	}
	if !cached.Flags.Equal(union) {
		return []Hunk{UpdateCachedFlags{FolderName: folder, Envelope: withFlags(live, union), On: cacheTarget}}
	}
	return nil
}

// copyThenCache emits the hunks bringing a message that exists on one live
// side only over to the other side.
func copyThenCache(folder string, srcCached, src *domain.Envelope, source, dest Target) []Hunk {
	hunks := []Hunk{CopyThenCache{
		FolderName:         folder,
		Envelope:           src,
		Source:             source,
		Dest:               dest,
		RefreshSourceCache: srcCached == nil,
	}}

	if srcCached != nil && !srcCached.Flags.Equal(src.Flags) {
		sourceCache := TargetLeftCache
		if source == TargetRight {
			sourceCache = TargetRightCache
		}
		hunks = append(hunks, UpdateCachedFlags{FolderName: folder, Envelope: src, On: sourceCache})
	}

	return hunks
}

func withFlags(e *domain.Envelope, flags domain.Flags) *domain.Envelope {
	clone := *e
	clone.Flags = flags.Clone()
	return &clone
}
