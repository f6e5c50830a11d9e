// SPDX-License-Identifier: GPL-3.0-or-later
package imapbackend

import (
	"fmt"

	"github.com/emersion/go-imap"
)

// Servers without UIDPLUS or MOVE need emulation: delete becomes
// flag&expunge, move becomes copy&delete. The capable-server and fallback
// variants hide behind these two interfaces, picked once at connect time.

type deleter interface {
	delete(uids []uint32) error
}

type mover interface {
	move(uids []uint32, folder string) error
}

type deletedFlagger interface {
	flagDeleted(uids []uint32) (*imap.SeqSet, error)
}

type uidExpungeConn interface {
	deletedFlagger
	UidExpunge(seqSet *imap.SeqSet, ch chan uint32) error
}

// uidPlusDeleter expunges exactly the uids it flagged, so it is safe no
// matter what other deleted-flagged mails sit in the folder.
type uidPlusDeleter struct {
	imapConn uidExpungeConn
}

func (u *uidPlusDeleter) delete(uids []uint32) error {
	seqset, err := u.imapConn.flagDeleted(uids)
	if err != nil {
		return fmt.Errorf("could not flag items as deleted: %w", err)
	}

	out := make(chan uint32)
	done := make(chan error, 1)
	go func() {
		done <- u.imapConn.UidExpunge(seqset, out)
	}()

	expunged := []uint32{}
	for uid := range out {
		expunged = append(expunged, uid)
	}

	err = <-done
	if err != nil {
		return fmt.Errorf("could not expunge mails: %w", err)
	}

	if len(expunged) != len(uids) {
		return fmt.Errorf("unexpected number of expunges, expected %d got %d", len(uids), len(expunged))
	}

	return nil
}

// ErrDeletedFlagPresent means the folder already holds mails flagged
// deleted that this sync did not flag; a plain EXPUNGE would destroy them.
var ErrDeletedFlagPresent = fmt.Errorf("folder has previous items with delete flag set")

type expungeConn interface {
	deletedFlagger
	Expunge(ch chan uint32) error
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
}

// compatibilityDeleter emulates uid deletion with flag&expunge. It refuses
// to run when foreign deleted-flagged mails are present.
type compatibilityDeleter struct {
	imapConn expungeConn
}

func (c *compatibilityDeleter) delete(uids []uint32) error {
	criteria := imap.NewSearchCriteria()
	criteria.WithFlags = []string{imap.DeletedFlag}
	flagged, err := c.imapConn.UidSearch(criteria)
	if err != nil {
		return fmt.Errorf("could not search for deleted in folder: %w", err)
	}
	if len(flagged) > 0 {
		return ErrDeletedFlagPresent
	}

	_, err = c.imapConn.flagDeleted(uids)
	if err != nil {
		return fmt.Errorf("could not set deleted flag: %w", err)
	}

	out := make(chan uint32)
	done := make(chan error, 1)
	go func() {
		done <- c.imapConn.Expunge(out)
	}()

	expunged := []uint32{}
	for uid := range out {
		expunged = append(expunged, uid)
	}

	err = <-done
	if err != nil {
		return fmt.Errorf("could not expunge mails: %w", err)
	}

	if len(expunged) != len(uids) {
		return fmt.Errorf("unexpected number of expunges, expected %d got %d", len(uids), len(expunged))
	}

	return nil
}

type moveConn interface {
	UidMove(seqset *imap.SeqSet, dest string) error
}

type moveMover struct {
	moveClient moveConn
}

func (m *moveMover) move(uids []uint32, folder string) error {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	return m.moveClient.UidMove(seqset, folder)
}

type copyConn interface {
	UidCopy(seqset *imap.SeqSet, dest string) error
}

// compatibilityMover emulates MOVE with copy&delete.
type compatibilityMover struct {
	imapConn    copyConn
	mailDeleter deleter
}

func (c *compatibilityMover) move(uids []uint32, folder string) error {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	err := c.imapConn.UidCopy(seqset, folder)
	if err != nil {
		return fmt.Errorf("could not copy mails: %w", err)
	}

	err = c.mailDeleter.delete(uids)
	if err != nil {
		return fmt.Errorf("could not delete copied mails: %w", err)
	}

	return nil
}
