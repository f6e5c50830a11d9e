// SPDX-License-Identifier: GPL-3.0-or-later
package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mailsmith/go-mail-sync/domain"
)

func TestEncodeMaildir(t *testing.T) {
	assert.Equal(t, "", EncodeMaildir(domain.NewFlags()))
	assert.Equal(t, "S", EncodeMaildir(domain.NewFlags(domain.FlagSeen)))
	assert.Equal(t, "FRS", EncodeMaildir(domain.NewFlags(domain.FlagSeen, domain.FlagAnswered, domain.FlagFlagged)))
	assert.Equal(t, "DT", EncodeMaildir(domain.NewFlags(domain.FlagDeleted, domain.FlagDraft)))
}

func TestEncodeMaildirDropsCustomFlags(t *testing.T) {
	flags := domain.NewFlags(domain.FlagSeen, domain.CustomFlag("Junk"))
	assert.Equal(t, "S", EncodeMaildir(flags))
}

func TestDecodeMaildir(t *testing.T) {
	assert.True(t, domain.NewFlags().Equal(DecodeMaildir("")))
	assert.True(t, domain.NewFlags(domain.FlagSeen, domain.FlagAnswered).Equal(DecodeMaildir("RS")))
	assert.True(t, domain.NewFlags(domain.FlagFlagged, domain.FlagDeleted, domain.FlagDraft).Equal(DecodeMaildir("DFT")))
}

func TestDecodeMaildirKeepsUnknownChars(t *testing.T) {
	flags := DecodeMaildir("Sa")
	assert.True(t, flags.Has(domain.FlagSeen))
	assert.True(t, flags.Has(domain.CustomFlag("a")))
}

func TestMaildirRoundTrip(t *testing.T) {
	flags := domain.NewFlags(domain.FlagSeen, domain.FlagFlagged, domain.FlagDraft)
	assert.True(t, flags.Equal(DecodeMaildir(EncodeMaildir(flags))))
}

func TestEncodeNotmuchInvertsSeen(t *testing.T) {
	assert.Equal(t, []string{"unread"}, EncodeNotmuch(domain.NewFlags()))
	assert.Equal(t, []string{}, EncodeNotmuch(domain.NewFlags(domain.FlagSeen)))
}

func TestEncodeNotmuch(t *testing.T) {
	flags := domain.NewFlags(domain.FlagAnswered, domain.FlagFlagged)
	assert.Equal(t, []string{"unread", "replied", "flagged"}, EncodeNotmuch(flags))
}

func TestEncodeNotmuchCustomFlagPassthrough(t *testing.T) {
	flags := domain.NewFlags(domain.FlagSeen, domain.CustomFlag("important"))
	assert.Equal(t, []string{"important"}, EncodeNotmuch(flags))
}

func TestDecodeNotmuch(t *testing.T) {
	flags := DecodeNotmuch([]string{"unread", "replied"})
	assert.False(t, flags.Has(domain.FlagSeen))
	assert.True(t, flags.Has(domain.FlagAnswered))

	flags = DecodeNotmuch([]string{"flagged", "draft", "deleted"})
	assert.True(t, flags.Has(domain.FlagSeen))
	assert.True(t, flags.Has(domain.FlagFlagged))
	assert.True(t, flags.Has(domain.FlagDraft))
	assert.True(t, flags.Has(domain.FlagDeleted))
}

func TestDecodeNotmuchCustomTag(t *testing.T) {
	flags := DecodeNotmuch([]string{"unread", "important"})
	assert.True(t, flags.Has(domain.CustomFlag("important")))
}

func TestNotmuchRoundTrip(t *testing.T) {
	for _, flags := range []domain.Flags{
		domain.NewFlags(),
		domain.NewFlags(domain.FlagSeen),
		domain.NewFlags(domain.FlagSeen, domain.FlagAnswered, domain.CustomFlag("work")),
		domain.NewFlags(domain.FlagDeleted, domain.FlagDraft),
	} {
		assert.True(t, flags.Equal(DecodeNotmuch(EncodeNotmuch(flags))), "round trip of %v", flags)
	}
}
