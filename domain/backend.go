// SPDX-License-Identifier: GPL-3.0-or-later
package domain

type BackendKind string

const (
	BackendImap    = BackendKind("imap")
	BackendMaildir = BackendKind("maildir")
	BackendNotmuch = BackendKind("notmuch")
	BackendMemory  = BackendKind("memory")
)

// Message is an envelope together with the raw message bytes.
type Message struct {
	Envelope *Envelope
	Raw      []byte
}

type Messages []*Message

// Backend is the fixed capability interface every storage engine implements.
// Flag translation to the backend's native representation happens behind
// this boundary; the sync engine only ever sees normalized Flags.
type Backend interface {
	AddFolder(name string) error
	ListFolders() (Folders, error)
	PurgeFolder(name string) error
	ExpungeFolder(name string) error
	DeleteFolder(name string) error

	// ListEnvelopes returns the folder's envelopes, newest first. A
	// pageSize of 0 disables paging; a page beyond the end is an error.
	ListEnvelopes(folder string, page, pageSize int) (Envelopes, error)

	AddMessage(folder string, raw []byte, flags Flags) (string, error)
	GetMessages(folder string, ids []string) (Messages, error)
	CopyMessages(src, dst string, ids []string) error
	MoveMessages(src, dst string, ids []string) error
	DeleteMessages(folder string, ids []string) error

	AddFlags(folder string, ids []string, flags Flags) error
	SetFlags(folder string, ids []string, flags Flags) error
	RemoveFlags(folder string, ids []string, flags Flags) error

	Close() error
}

// BackendBuilder produces a fresh connected Backend. Each sync worker calls
// its builders exactly once so that no connection is ever shared between
// goroutines.
type BackendBuilder func() (Backend, error)
