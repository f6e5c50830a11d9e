// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const sampleMail = "Message-Id: <a@x>\r\n" +
	"From: Alice Example <alice@example.com>\r\n" +
	"Subject: =?UTF-8?Q?caf=C3=A9?=\r\n" +
	"Date: Mon, 02 Jan 2006 15:04:05 +0100\r\n" +
	"\r\n" +
	"body\r\n"

func TestHeaderInfos(t *testing.T) {
	env, err := HeaderInfos([]byte(sampleMail))
	assert.NoError(t, err)
	assert.Equal(t, "<a@x>", env.MessageID)
	assert.Equal(t, "café", env.Subject)
	assert.Equal(t, "Alice Example", env.From.Name)
	assert.Equal(t, "alice@example.com", env.From.Address)
	assert.Equal(t, 2006, env.Date.Year())
	_, offset := env.Date.Zone()
	assert.Equal(t, 3600, offset)
}

func TestHeaderInfosBareMessageId(t *testing.T) {
	raw := "Message-Id: a@x\r\nSubject: hi\r\n\r\nbody\r\n"
	env, err := HeaderInfos([]byte(raw))
	assert.NoError(t, err)
	assert.Equal(t, "<a@x>", env.MessageID)
}

func TestHeaderInfosMissingMessageId(t *testing.T) {
	raw := "Subject: hi\r\n\r\nbody\r\n"
	env, err := HeaderInfos([]byte(raw))
	assert.Nil(t, env)
	assert.EqualError(t, err, "Message-Id header not found")
}

func TestHeaderInfosMissingDate(t *testing.T) {
	raw := "Message-Id: <b@x>\r\nSubject: hi\r\n\r\nbody\r\n"
	env, err := HeaderInfos([]byte(raw))
	assert.NoError(t, err)
	assert.True(t, env.Date.Equal(time.Time{}))
}

func TestShortSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{"short", "hello", "hello"},
		{"long", "0123456789012345678901234567890123", "012345678901234567890123456789..."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShortSubject(tc.subject))
		})
	}
}
