// SPDX-License-Identifier: GPL-3.0-or-later
package imapbackend

import (
	"github.com/mailsmith/go-mail-sync/domain"

	"github.com/emersion/go-imap"
)

// EncodeFlag translates a normalized flag to its IMAP wire string. Custom
// flags pass through as IMAP keywords.
func EncodeFlag(flag domain.Flag) string {
	switch flag {
	case domain.FlagSeen:
		return imap.SeenFlag
	case domain.FlagAnswered:
		return imap.AnsweredFlag
	case domain.FlagFlagged:
		return imap.FlaggedFlag
	case domain.FlagDeleted:
		return imap.DeletedFlag
	case domain.FlagDraft:
		return imap.DraftFlag
	}
	return string(flag)
}

// DecodeFlag translates an IMAP flag string back. \Recent is session-local
// server state, not message state, and is dropped.
func DecodeFlag(flag string) (domain.Flag, bool) {
	switch flag {
	case imap.SeenFlag:
		return domain.FlagSeen, true
	case imap.AnsweredFlag:
		return domain.FlagAnswered, true
	case imap.FlaggedFlag:
		return domain.FlagFlagged, true
	case imap.DeletedFlag:
		return domain.FlagDeleted, true
	case imap.DraftFlag:
		return domain.FlagDraft, true
	case imap.RecentFlag:
		return "", false
	}
	return domain.CustomFlag(flag), true
}

func EncodeFlags(flags domain.Flags) []string {
	encoded := []string{}
	for _, flag := range flags.List() {
		encoded = append(encoded, EncodeFlag(flag))
	}
	return encoded
}

func DecodeFlags(flags []string) domain.Flags {
	decoded := domain.NewFlags()
	for _, flag := range flags {
		if f, ok := DecodeFlag(flag); ok {
			decoded.Add(f)
		}
	}
	return decoded
}
