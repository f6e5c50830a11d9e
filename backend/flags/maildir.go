// SPDX-License-Identifier: GPL-3.0-or-later

// Package flags translates between domain flags and the representations
// the non-IMAP backend kinds use on disk.
package flags

import (
	"sort"
	"strings"

	"github.com/mailsmith/go-mail-sync/domain"
)

var maildirByFlag = map[domain.Flag]rune{
	domain.FlagSeen:     'S',
	domain.FlagAnswered: 'R',
	domain.FlagFlagged:  'F',
	domain.FlagDeleted:  'T',
	domain.FlagDraft:    'D',
}

var flagByMaildir = map[rune]domain.Flag{
	'S': domain.FlagSeen,
	'R': domain.FlagAnswered,
	'F': domain.FlagFlagged,
	'T': domain.FlagDeleted,
	'D': domain.FlagDraft,
}

// EncodeMaildir renders flags as the sorted info suffix of a maildir
// filename. Custom flags have no single-char form and are dropped.
func EncodeMaildir(flags domain.Flags) string {
	chars := []rune{}
	for _, flag := range flags.List() {
		c, ok := maildirByFlag[flag]
		if !ok {
			continue
		}
		chars = append(chars, c)
	}

	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	return string(chars)
}

// DecodeMaildir parses a maildir info suffix. Unknown chars are kept as
// custom flags so a later encode does not silently lose them elsewhere.
func DecodeMaildir(suffix string) domain.Flags {
	flags := domain.NewFlags()
	for _, c := range suffix {
		flag, ok := flagByMaildir[c]
		if !ok {
			flags.Add(domain.CustomFlag(strings.ToLower(string(c))))
			continue
		}
		flags.Add(flag)
	}

	return flags
}
