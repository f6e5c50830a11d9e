// SPDX-License-Identifier: GPL-3.0-or-later
package cache

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsmith/go-mail-sync/domain"
	"github.com/mailsmith/go-mail-sync/log"
)

func TestMain(m *testing.M) {
	log.InitLogging("error")
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFolderRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.InsertRemoteFolder("acc", "INBOX"))
	require.NoError(t, store.InsertRemoteFolder("acc", "Archive"))
	require.NoError(t, store.InsertLocalFolder("acc", "INBOX"))

	remote, err := store.ListRemoteFolders("acc", domain.AllFolders{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Archive", "INBOX"}, remote.Names())

	local, err := store.ListLocalFolders("acc", domain.AllFolders{})
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX"}, local.Names())
}

func TestFolderInsertIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.InsertRemoteFolder("acc", "INBOX"))
	require.NoError(t, store.InsertRemoteFolder("acc", "INBOX"))

	folders, err := store.ListRemoteFolders("acc", domain.AllFolders{})
	require.NoError(t, err)
	assert.Len(t, folders, 1)
}

func TestFoldersAreNamespacedPerAccount(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.InsertRemoteFolder("one", "INBOX"))

	folders, err := store.ListRemoteFolders("other", domain.AllFolders{})
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestListFoldersAppliesStrategy(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.InsertRemoteFolder("acc", "INBOX"))
	require.NoError(t, store.InsertRemoteFolder("acc", "Trash"))

	folders, err := store.ListRemoteFolders("acc", domain.Exclude("Trash"))
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX"}, folders.Names())

	folders, err = store.ListRemoteFolders("acc", domain.Include("Trash"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Trash"}, folders.Names())
}

func TestDeleteFolderRemovesEnvelopes(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.InsertRemoteFolder("acc", "INBOX"))
	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", testEnvelope("1", "<a@x>", domain.FlagSeen)))

	require.NoError(t, store.DeleteRemoteFolder("acc", "INBOX"))

	folders, err := store.ListRemoteFolders("acc", domain.AllFolders{})
	require.NoError(t, err)
	assert.Empty(t, folders)

	envelopes, err := store.ListRemoteEnvelopes("acc", "INBOX")
	require.NoError(t, err)
	assert.Empty(t, envelopes)
}

func testEnvelope(internalId, messageId string, flags ...domain.Flag) *domain.Envelope {
	return &domain.Envelope{
		InternalID: internalId,
		MessageID:  messageId,
		Flags:      domain.NewFlags(flags...),
		From:       domain.Mailbox{Name: "Sender", Address: "sender@example.org"},
		Subject:    "hello",
		Date:       time.Date(2020, 11, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", testEnvelope("17", "<a@x>", domain.FlagSeen, domain.FlagAnswered)))

	envelopes, err := store.ListRemoteEnvelopes("acc", "INBOX")
	require.NoError(t, err)
	require.Len(t, envelopes, 1)

	envelope := envelopes[0]
	assert.Equal(t, "17", envelope.InternalID)
	assert.Equal(t, "<a@x>", envelope.MessageID)
	assert.True(t, domain.NewFlags(domain.FlagSeen, domain.FlagAnswered).Equal(envelope.Flags))
	assert.Equal(t, "Sender", envelope.From.Name)
	assert.Equal(t, "sender@example.org", envelope.From.Address)
	assert.Equal(t, "hello", envelope.Subject)
	assert.Equal(t, time.Date(2020, 11, 1, 12, 0, 0, 0, time.UTC), envelope.Date.UTC())
}

func TestFlaglessEnvelopeRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", testEnvelope("17", "<a@x>")))
	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", testEnvelope("17", "<a@x>")))

	envelopes, err := store.ListRemoteEnvelopes("acc", "INBOX")
	require.NoError(t, err)
	require.Len(t, envelopes, 1)
	assert.Empty(t, envelopes[0].Flags)
}

func TestEnvelopeInsertIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", testEnvelope("17", "<a@x>", domain.FlagSeen)))
	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", testEnvelope("17", "<a@x>", domain.FlagSeen)))

	envelopes, err := store.ListRemoteEnvelopes("acc", "INBOX")
	require.NoError(t, err)
	require.Len(t, envelopes, 1)
	assert.True(t, domain.NewFlags(domain.FlagSeen).Equal(envelopes[0].Flags))
}

func TestLocalAndRemoteEnvelopesAreSeparate(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", testEnvelope("17", "<a@x>", domain.FlagSeen)))

	envelopes, err := store.ListLocalEnvelopes("acc", "INBOX")
	require.NoError(t, err)
	assert.Empty(t, envelopes)
}

func TestDeleteEnvelope(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", testEnvelope("17", "<a@x>", domain.FlagSeen)))
	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", testEnvelope("18", "<b@x>")))

	require.NoError(t, store.DeleteRemoteEnvelope("acc", "INBOX", "17"))

	envelopes, err := store.ListRemoteEnvelopes("acc", "INBOX")
	require.NoError(t, err)
	require.Len(t, envelopes, 1)
	assert.Equal(t, "18", envelopes[0].InternalID)
}

func TestEnvelopesAreOrderedByDateDescending(t *testing.T) {
	store := newTestStore(t)

	older := testEnvelope("1", "<old@x>")
	older.Date = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := testEnvelope("2", "<new@x>")
	newer.Date = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", older))
	require.NoError(t, store.InsertRemoteEnvelope("acc", "INBOX", newer))

	envelopes, err := store.ListRemoteEnvelopes("acc", "INBOX")
	require.NoError(t, err)
	require.Len(t, envelopes, 2)
	assert.Equal(t, "<new@x>", envelopes[0].MessageID)
	assert.Equal(t, "<old@x>", envelopes[1].MessageID)
}
