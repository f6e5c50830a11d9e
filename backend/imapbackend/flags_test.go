// SPDX-License-Identifier: GPL-3.0-or-later
package imapbackend

import (
	"testing"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"

	"github.com/mailsmith/go-mail-sync/domain"
)

func TestEncodeFlags(t *testing.T) {
	flags := domain.NewFlags(domain.FlagSeen, domain.FlagAnswered, domain.FlagFlagged, domain.FlagDeleted, domain.FlagDraft)
	assert.ElementsMatch(
		t,
		[]string{imap.SeenFlag, imap.AnsweredFlag, imap.FlaggedFlag, imap.DeletedFlag, imap.DraftFlag},
		EncodeFlags(flags),
	)
}

func TestEncodeFlagsCustomKeyword(t *testing.T) {
	assert.Equal(t, []string{"$mdnsent"}, EncodeFlags(domain.NewFlags(domain.CustomFlag("$MDNSent"))))
}

func TestDecodeFlags(t *testing.T) {
	decoded := DecodeFlags([]string{imap.SeenFlag, imap.DraftFlag, "junk"})
	assert.True(t, domain.NewFlags(domain.FlagSeen, domain.FlagDraft, domain.CustomFlag("junk")).Equal(decoded))
}

func TestDecodeFlagsDropsRecent(t *testing.T) {
	decoded := DecodeFlags([]string{imap.RecentFlag, imap.SeenFlag})
	assert.True(t, domain.NewFlags(domain.FlagSeen).Equal(decoded))
}

func TestFlagsRoundTrip(t *testing.T) {
	flags := domain.NewFlags(domain.FlagSeen, domain.FlagFlagged, domain.CustomFlag("work"))
	assert.True(t, flags.Equal(DecodeFlags(EncodeFlags(flags))))
}
