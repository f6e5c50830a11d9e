// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "time"

type Mailbox struct {
	Name    string
	Address string
}

// Envelope is the metadata of one message as seen by one backend. InternalID
// is backend-local (an IMAP UID, a Maildir key, a Notmuch hash) and is never
// compared across backends; two envelopes describe the same message exactly
// when their Message-IDs are equal.
type Envelope struct {
	InternalID string
	MessageID  string
	Flags      Flags
	From       Mailbox
	Subject    string
	Date       time.Time
}

type Envelopes []*Envelope

// ByMessageID indexes the envelopes for diffing. Later entries with a
// duplicate Message-ID are ignored.
func (es Envelopes) ByMessageID() map[string]*Envelope {
	m := make(map[string]*Envelope, len(es))
	for _, e := range es {
		if _, ok := m[e.MessageID]; !ok {
			m[e.MessageID] = e
		}
	}
	return m
}
