// SPDX-License-Identifier: GPL-3.0-or-later
package sync

import (
	"fmt"

	"github.com/mailsmith/go-mail-sync/domain"
)

// Target names one of the four states a hunk applies to: the two live
// backends and their two cache mirrors.
type Target int

const (
	TargetLeft = Target(iota)
	TargetLeftCache
	TargetRight
	TargetRightCache
)

func (t Target) String() string {
	switch t {
	case TargetLeft:
		return "left"
	case TargetLeftCache:
		return "left cache"
	case TargetRight:
		return "right"
	case TargetRightCache:
		return "right cache"
	}
	return "unknown"
}

// IsCache reports whether the target is one of the two cache mirrors.
func (t Target) IsCache() bool {
	return t == TargetLeftCache || t == TargetRightCache
}

// Hunk is one atomic reconciliation action. Hunks are pure data: they carry
// enough context to be applied without consulting state outside the worker's
// own connections, and to be rendered for progress reporting. No hunk in a
// patch depends on another hunk of the same patch having been applied.
type Hunk interface {
	// Folder returns the folder the hunk belongs to, for grouping.
	Folder() string
	fmt.Stringer
}

// Folder-level hunks.

type CreateFolder struct {
	Name string
	On   Target
}

func (h CreateFolder) Folder() string { return h.Name }
func (h CreateFolder) String() string {
	return fmt.Sprintf("create folder %s on %s", h.Name, h.On)
}

type CacheFolder struct {
	Name string
	On   Target
}

func (h CacheFolder) Folder() string { return h.Name }
func (h CacheFolder) String() string {
	return fmt.Sprintf("cache folder %s on %s", h.Name, h.On)
}

type UncacheFolder struct {
	Name string
	On   Target
}

func (h UncacheFolder) Folder() string { return h.Name }
func (h UncacheFolder) String() string {
	return fmt.Sprintf("uncache folder %s on %s", h.Name, h.On)
}

type DeleteFolder struct {
	Name string
	On   Target
}

func (h DeleteFolder) Folder() string { return h.Name }
func (h DeleteFolder) String() string {
	return fmt.Sprintf("delete folder %s on %s", h.Name, h.On)
}

// PurgeFolder empties a folder without removing it. Emitted instead of
// DeleteFolder for folders that must survive, the inbox above all.
type PurgeFolder struct {
	Name string
	On   Target
}

func (h PurgeFolder) Folder() string { return h.Name }
func (h PurgeFolder) String() string {
	return fmt.Sprintf("purge folder %s on %s", h.Name, h.On)
}

// Email-level hunks.

// GetThenCache fetches one envelope from the Source live backend and writes
// it to Source's cache mirror.
type GetThenCache struct {
	FolderName string
	ID         string
	Source     Target
}

func (h GetThenCache) Folder() string { return h.FolderName }
func (h GetThenCache) String() string {
	return fmt.Sprintf("cache envelope %s of folder %s from %s", h.ID, h.FolderName, h.Source)
}

// CopyThenCache copies one message from Source to Dest and caches it on
// Dest's mirror. When RefreshSourceCache is set (first-time sync), Source's
// mirror gets a fresh row too.
type CopyThenCache struct {
	FolderName         string
	Envelope           *domain.Envelope
	Source             Target
	Dest               Target
	RefreshSourceCache bool
}

func (h CopyThenCache) Folder() string { return h.FolderName }
func (h CopyThenCache) String() string {
	return fmt.Sprintf("copy email %s of folder %s from %s to %s", h.Envelope.MessageID, h.FolderName, h.Source, h.Dest)
}

// UpdateFlags rewrites the live flag set of one message. The envelope
// carries the resolved flags and the backend-local identifier of the side
// being updated.
type UpdateFlags struct {
	FolderName string
	Envelope   *domain.Envelope
	On         Target
}

func (h UpdateFlags) Folder() string { return h.FolderName }
func (h UpdateFlags) String() string {
	return fmt.Sprintf("set flags %v of email %s in folder %s on %s", h.Envelope.Flags, h.Envelope.MessageID, h.FolderName, h.On)
}

// UpdateCachedFlags is the cache-only correction: no live backend call, the
// stale mirror rows are replaced with the envelope's flags.
type UpdateCachedFlags struct {
	FolderName string
	Envelope   *domain.Envelope
	On         Target
}

func (h UpdateCachedFlags) Folder() string { return h.FolderName }
func (h UpdateCachedFlags) String() string {
	return fmt.Sprintf("refresh cached flags of email %s in folder %s on %s", h.Envelope.MessageID, h.FolderName, h.On)
}

type UncacheEmail struct {
	FolderName string
	ID         string
	On         Target
}

func (h UncacheEmail) Folder() string { return h.FolderName }
func (h UncacheEmail) String() string {
	return fmt.Sprintf("uncache email %s of folder %s on %s", h.ID, h.FolderName, h.On)
}

type DeleteEmail struct {
	FolderName string
	ID         string
	On         Target
}

func (h DeleteEmail) Folder() string { return h.FolderName }
func (h DeleteEmail) String() string {
	return fmt.Sprintf("delete email %s of folder %s on %s", h.ID, h.FolderName, h.On)
}
