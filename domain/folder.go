// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "strings"

// FolderKind classifies folders whose semantics need special-casing during
// a sync, most importantly the inbox which must never be deleted.
type FolderKind int

const (
	KindRegular = FolderKind(0)
	KindInbox   = FolderKind(1)
	KindSent    = FolderKind(2)
	KindDrafts  = FolderKind(3)
	KindTrash   = FolderKind(4)
)

type Folder struct {
	Name string
	Kind FolderKind
}

type Folders []Folder

// KindOf guesses the folder kind from its name. Backends that know better
// (e.g. IMAP SPECIAL-USE attributes) may set the kind themselves instead.
func KindOf(name string) FolderKind {
	switch strings.ToUpper(name) {
	case "INBOX":
		return KindInbox
	case "SENT", "SENT MESSAGES", "SENT ITEMS":
		return KindSent
	case "DRAFTS":
		return KindDrafts
	case "TRASH", "DELETED", "DELETED ITEMS":
		return KindTrash
	}
	return KindRegular
}

func NewFolder(name string) Folder {
	return Folder{Name: name, Kind: KindOf(name)}
}

func (fs Folders) Names() []string {
	names := make([]string, 0, len(fs))
	for _, f := range fs {
		names = append(names, f.Name)
	}
	return names
}
