// SPDX-License-Identifier: GPL-3.0-or-later
package flags

import (
	"github.com/mailsmith/go-mail-sync/domain"
)

// Notmuch marks unseen mail with the "unread" tag, so the Seen flag is
// inverted relative to the tag list.
const tagUnread = "unread"

var tagByFlag = map[domain.Flag]string{
	domain.FlagAnswered: "replied",
	domain.FlagFlagged:  "flagged",
	domain.FlagDeleted:  "deleted",
	domain.FlagDraft:    "draft",
}

var flagByTag = map[string]domain.Flag{
	"replied": domain.FlagAnswered,
	"flagged": domain.FlagFlagged,
	"deleted": domain.FlagDeleted,
	"draft":   domain.FlagDraft,
}

// EncodeNotmuch renders flags as notmuch tags. Custom flags pass through
// as tags of the same name.
func EncodeNotmuch(flags domain.Flags) []string {
	tags := []string{}
	if !flags.Has(domain.FlagSeen) {
		tags = append(tags, tagUnread)
	}

	for _, flag := range flags.List() {
		if flag == domain.FlagSeen {
			continue
		}
		tag, ok := tagByFlag[flag]
		if !ok {
			tag = string(flag)
		}
		tags = append(tags, tag)
	}

	return tags
}

// DecodeNotmuch parses a notmuch tag list. Tags without a well-known
// flag become custom flags.
func DecodeNotmuch(tags []string) domain.Flags {
	flags := domain.NewFlags()
	flags.Add(domain.FlagSeen)

	for _, tag := range tags {
		if tag == tagUnread {
			flags.Remove(domain.FlagSeen)
			continue
		}
		flag, ok := flagByTag[tag]
		if !ok {
			flag = domain.CustomFlag(tag)
		}
		flags.Add(flag)
	}

	return flags
}
