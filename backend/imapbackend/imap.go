// SPDX-License-Identifier: GPL-3.0-or-later
package imapbackend

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"sort"
	"strconv"
	"time"

	"github.com/mailsmith/go-mail-sync/domain"
	"github.com/mailsmith/go-mail-sync/log"
	"github.com/mailsmith/go-mail-sync/mail"

	"github.com/emersion/go-imap"
	move "github.com/emersion/go-imap-move"
	uidplus "github.com/emersion/go-imap-uidplus"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"
)

// Backend implements the backend capability interface on an IMAP account.
// One Backend owns one connection; the sync pool builds one per worker.
type Backend struct {
	connection    *client.Client
	uidplusClient *uidplus.Client
	mailDeleter   deleter
	mailMover     mover

	server, user, password string

	selectedFolder string

	l *logrus.Logger
}

// Builder returns a factory producing fresh connections to the same
// account, as the sync worker pool expects.
func Builder(server, user, password string) domain.BackendBuilder {
	return func() (domain.Backend, error) {
		return NewBackend(server, user, password)
	}
}

func NewBackend(server, user, password string) (*Backend, error) {
	imapClient, err := client.DialTLS(server, nil)
	if err != nil {
		return nil, fmt.Errorf("could not dial to imap: %w", err)
	}

	err = imapClient.Login(user, password)
	if err != nil {
		return nil, fmt.Errorf("could not login to imap: %w", err)
	}

	uidPlusClient := uidplus.NewClient(imapClient)
	uidPlusSupported, err := uidPlusClient.SupportUidPlus()
	if err != nil {
		return nil, fmt.Errorf("could not check for UIDPLUS support: %w", err)
	}

	moveClient := move.NewClient(imapClient)
	moveSupported, err := moveClient.SupportMove()
	if err != nil {
		return nil, fmt.Errorf("could not check for MOVE support: %w", err)
	}

	b := &Backend{
		connection: imapClient,
		server:     server,
		user:       user,
		password:   password,
		l:          log.Logger(log.LOG_BACKEND),
	}

	baseLogger := b.l.WithFields(logrus.Fields{"server": server})
	baseLogger.Debug("Logged in to server")

	if uidPlusSupported {
		baseLogger.Debug("UIDPLUS supported on server, using UID delete")
		b.uidplusClient = uidPlusClient
		b.mailDeleter = &uidPlusDeleter{
			imapConn: b,
		}
	} else {
		baseLogger.Info("UIDPLUS not supported on server, falling back to flag&expunge")
		b.mailDeleter = &compatibilityDeleter{
			imapConn: b,
		}
	}

	if moveSupported {
		baseLogger.Debug("MOVE supported on server")
		b.mailMover = &moveMover{
			moveClient: moveClient,
		}
	} else {
		baseLogger.Info("MOVE not supported on server, falling back to copy&delete")
		b.mailMover = &compatibilityMover{
			imapConn:    b,
			mailDeleter: b.mailDeleter,
		}
	}

	return b, nil
}

func (b *Backend) selectFolder(folder string) error {
	if b.selectedFolder == folder {
		return nil
	}

	_, err := b.connection.Select(folder, false)
	if err != nil {
		return fmt.Errorf("could not select folder %s: %w", folder, err)
	}

	b.selectedFolder = folder
	return nil
}

func (b *Backend) AddFolder(name string) error {
	err := b.connection.Create(name)
	if err != nil {
		return fmt.Errorf("could not create folder %s: %w", name, err)
	}
	return nil
}

func (b *Backend) ListFolders() (domain.Folders, error) {
	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- b.connection.List("", "*", mailboxes)
	}()

	folders := domain.Folders{}
	for m := range mailboxes {
		folders = append(folders, domain.NewFolder(m.Name))
	}

	err := <-done
	if err != nil {
		return nil, fmt.Errorf("could not list folders: %w", err)
	}

	return folders, nil
}

func (b *Backend) DeleteFolder(name string) error {
	if b.selectedFolder == name {
		b.selectedFolder = ""
	}
	err := b.connection.Delete(name)
	if err != nil {
		return fmt.Errorf("could not delete folder %s: %w", name, err)
	}
	return nil
}

func (b *Backend) PurgeFolder(name string) error {
	uids, err := b.listUids(name)
	if err != nil {
		return err
	}
	if len(uids) == 0 {
		return nil
	}
	return b.mailDeleter.delete(uids)
}

func (b *Backend) ExpungeFolder(name string) error {
	err := b.selectFolder(name)
	if err != nil {
		return err
	}

	out := make(chan uint32)
	done := make(chan error, 1)
	go func() {
		done <- b.connection.Expunge(out)
	}()
	for range out {
	}

	err = <-done
	if err != nil {
		return fmt.Errorf("could not expunge folder %s: %w", name, err)
	}
	return nil
}

func (b *Backend) ListEnvelopes(folder string, page, pageSize int) (domain.Envelopes, error) {
	uids, err := b.listUids(folder)
	if err != nil {
		return nil, err
	}

	// Newest first; IMAP uids grow monotonically within a mailbox.
	sort.Slice(uids, func(i, j int) bool { return uids[i] > uids[j] })

	if pageSize > 0 {
		from := page * pageSize
		if from > len(uids) {
			return nil, fmt.Errorf("page %d out of bounds for folder %s", page, folder)
		}
		to := from + pageSize
		if to > len(uids) {
			to = len(uids)
		}
		uids = uids[from:to]
	}

	if len(uids) == 0 {
		return domain.Envelopes{}, nil
	}

	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{
			Specifier: imap.HeaderSpecifier,
			Fields: []string{
				"Message-Id",
				"Subject",
				"From",
				"Date",
			},
		},
		Peek: true,
	}
	fetchItems := []imap.FetchItem{imap.FetchUid, imap.FetchFlags, section.FetchItem()}

	out := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- b.connection.UidFetch(seqset, fetchItems, out)
	}()

	envelopes := domain.Envelopes{}
	for msg := range out {
		rawHeaders, err := ioutil.ReadAll(msg.GetBody(section))
		if err != nil {
			return nil, fmt.Errorf("could not read mail headers: %w", err)
		}

		envelope, err := mail.HeaderInfos(rawHeaders)
		if err != nil {
			b.l.WithFields(logrus.Fields{"folder": folder, "uid": msg.Uid, "error": err}).Warn("Skipping unparsable mail")
			continue
		}

		envelope.InternalID = strconv.FormatUint(uint64(msg.Uid), 10)
		envelope.Flags = DecodeFlags(msg.Flags)
		envelopes = append(envelopes, envelope)
		b.l.WithFields(logrus.Fields{"uid": msg.Uid, "subject": mail.ShortSubject(envelope.Subject)}).Debug("Fetched envelope")
	}

	err = <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch envelopes: %w", err)
	}

	return envelopes, nil
}

func (b *Backend) AddMessage(folder string, raw []byte, flags domain.Flags) (string, error) {
	encodedFlags := EncodeFlags(flags)

	if b.uidplusClient != nil {
		_, uid, err := b.uidplusClient.Append(folder, encodedFlags, time.Now(), bytes.NewReader(raw))
		if err != nil {
			return "", fmt.Errorf("could not append: %w", err)
		}
		return strconv.FormatUint(uint64(uid), 10), nil
	}

	err := b.connection.Append(folder, encodedFlags, time.Now(), bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("could not append: %w", err)
	}

	// Without UIDPLUS the server does not tell us the new uid, find the
	// message again by its Message-Id header.
	envelope, err := mail.HeaderInfos(raw)
	if err != nil {
		return "", fmt.Errorf("could not parse appended mail: %w", err)
	}

	err = b.selectFolder(folder)
	if err != nil {
		return "", err
	}

	criteria := imap.NewSearchCriteria()
	criteria.Header.Set("Message-Id", envelope.MessageID)
	uids, err := b.connection.UidSearch(criteria)
	if err != nil {
		return "", fmt.Errorf("could not search for appended mail: %w", err)
	}
	if len(uids) == 0 {
		return "", fmt.Errorf("appended mail %s not found in folder %s", envelope.MessageID, folder)
	}

	return strconv.FormatUint(uint64(uids[len(uids)-1]), 10), nil
}

func (b *Backend) GetMessages(folder string, ids []string) (domain.Messages, error) {
	uids, err := parseUids(ids)
	if err != nil {
		return nil, err
	}
	err = b.selectFolder(folder)
	if err != nil {
		return nil, err
	}

	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)

	fullBodySection := &imap.BodySectionName{
		Peek: true,
	}
	fetchItems := []imap.FetchItem{imap.FetchUid, imap.FetchFlags, fullBodySection.FetchItem()}

	out := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- b.connection.UidFetch(seqset, fetchItems, out)
	}()

	messages := domain.Messages{}
	for msg := range out {
		rawMail, err := ioutil.ReadAll(msg.GetBody(fullBodySection))
		if err != nil {
			return nil, fmt.Errorf("could not read mail body: %w", err)
		}

		envelope, err := mail.HeaderInfos(rawMail)
		if err != nil {
			return nil, fmt.Errorf("could not parse mail header infos: %w", err)
		}
		envelope.InternalID = strconv.FormatUint(uint64(msg.Uid), 10)
		envelope.Flags = DecodeFlags(msg.Flags)

		messages = append(messages, &domain.Message{Envelope: envelope, Raw: rawMail})
	}

	err = <-done
	if err != nil {
		return nil, fmt.Errorf("could not fetch mails: %w", err)
	}

	return messages, nil
}

func (b *Backend) CopyMessages(src, dst string, ids []string) error {
	uids, err := parseUids(ids)
	if err != nil {
		return err
	}
	err = b.selectFolder(src)
	if err != nil {
		return err
	}

	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	err = b.connection.UidCopy(seqset, dst)
	if err != nil {
		return fmt.Errorf("could not copy mails: %w", err)
	}
	return nil
}

func (b *Backend) MoveMessages(src, dst string, ids []string) error {
	uids, err := parseUids(ids)
	if err != nil {
		return err
	}
	err = b.selectFolder(src)
	if err != nil {
		return err
	}
	return b.mailMover.move(uids, dst)
}

func (b *Backend) DeleteMessages(folder string, ids []string) error {
	uids, err := parseUids(ids)
	if err != nil {
		return err
	}
	err = b.selectFolder(folder)
	if err != nil {
		return err
	}
	return b.mailDeleter.delete(uids)
}

func (b *Backend) AddFlags(folder string, ids []string, flags domain.Flags) error {
	return b.storeFlags(folder, ids, imap.AddFlags, flags)
}

func (b *Backend) SetFlags(folder string, ids []string, flags domain.Flags) error {
	return b.storeFlags(folder, ids, imap.SetFlags, flags)
}

func (b *Backend) RemoveFlags(folder string, ids []string, flags domain.Flags) error {
	return b.storeFlags(folder, ids, imap.RemoveFlags, flags)
}

func (b *Backend) storeFlags(folder string, ids []string, op imap.FlagsOp, flags domain.Flags) error {
	uids, err := parseUids(ids)
	if err != nil {
		return err
	}
	err = b.selectFolder(folder)
	if err != nil {
		return err
	}

	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)

	encoded := []interface{}{}
	for _, flag := range EncodeFlags(flags) {
		encoded = append(encoded, flag)
	}

	err = b.connection.UidStore(seqset, imap.FormatFlagsOp(op, true), encoded, nil)
	if err != nil {
		return fmt.Errorf("could not store flags: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.connection.Logout()
}

func (b *Backend) listUids(folder string) ([]uint32, error) {
	err := b.selectFolder(folder)
	if err != nil {
		return nil, err
	}

	// Empty search criteria matches everything in the folder.
	criteria := imap.NewSearchCriteria()
	uids, err := b.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not list folder: %w", err)
	}
	return uids, nil
}

func (b *Backend) flagDeleted(uids []uint32) (*imap.SeqSet, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uids...)
	err := b.connection.UidStore(seqset, imap.FormatFlagsOp(imap.AddFlags, true), []interface{}{imap.DeletedFlag}, nil)
	if err != nil {
		return nil, fmt.Errorf("could not set delete flag: %w", err)
	}

	return seqset, nil
}

func (b *Backend) UidExpunge(seqSet *imap.SeqSet, ch chan uint32) error {
	return b.uidplusClient.UidExpunge(seqSet, ch)
}

func (b *Backend) Expunge(ch chan uint32) error {
	return b.connection.Expunge(ch)
}

func (b *Backend) UidSearch(criteria *imap.SearchCriteria) ([]uint32, error) {
	return b.connection.UidSearch(criteria)
}

func (b *Backend) UidCopy(seqset *imap.SeqSet, dest string) error {
	return b.connection.UidCopy(seqset, dest)
}

func parseUids(ids []string) ([]uint32, error) {
	uids := make([]uint32, 0, len(ids))
	for _, id := range ids {
		uid, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid imap uid %q: %w", id, err)
		}
		uids = append(uids, uint32(uid))
	}
	return uids, nil
}
