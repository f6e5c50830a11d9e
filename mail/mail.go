// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"bytes"
	"fmt"
	"mime"
	stdmail "net/mail"
	"strings"
	"time"

	"github.com/mailsmith/go-mail-sync/domain"

	"github.com/emersion/go-message/charset"
)

// HeaderInfos extracts the sync-relevant metadata from a raw message:
// Message-ID, decoded subject, sender mailbox and date. The Message-ID is
// kept in its angle-bracketed form so that it compares equal across
// backends regardless of who parsed it.
func HeaderInfos(rawMail []byte) (*domain.Envelope, error) {
	msg, err := stdmail.ReadMessage(bytes.NewReader(rawMail))
	if err != nil {
		return nil, fmt.Errorf("could not parse mail: %w", err)
	}

	messageId := strings.TrimSpace(msg.Header.Get("Message-Id"))
	if len(messageId) == 0 {
		return nil, fmt.Errorf("Message-Id header not found")
	}
	if !strings.HasPrefix(messageId, "<") {
		messageId = "<" + messageId + ">"
	}

	dec := &mime.WordDecoder{
		CharsetReader: charset.Reader,
	}
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	if err != nil {
		return nil, fmt.Errorf("could not decode subject header: %w", err)
	}

	from := domain.Mailbox{}
	if fromHeader := msg.Header.Get("From"); len(fromHeader) > 0 {
		addr, err := stdmail.ParseAddress(fromHeader)
		if err == nil {
			from.Name = addr.Name
			from.Address = addr.Address
		}
	}

	date, err := msg.Header.Date()
	if err != nil {
		// Date is informational only, a missing or malformed header
		// must not make the message unsyncable.
		date = time.Time{}
	}

	return &domain.Envelope{
		MessageID: messageId,
		Subject:   subject,
		From:      from,
		Date:      date,
	}, nil
}

func ShortSubject(subject string) string {
	if (len(subject)) > 30 {
		subject = subject[:30] + "..."
	}
	return subject
}
