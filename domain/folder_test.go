// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInbox, KindOf("INBOX"))
	assert.Equal(t, KindInbox, KindOf("Inbox"))
	assert.Equal(t, KindSent, KindOf("Sent"))
	assert.Equal(t, KindSent, KindOf("Sent Items"))
	assert.Equal(t, KindDrafts, KindOf("Drafts"))
	assert.Equal(t, KindTrash, KindOf("Trash"))
	assert.Equal(t, KindTrash, KindOf("Deleted Items"))
	assert.Equal(t, KindRegular, KindOf("Archive"))
}

func TestSelectionStrategies(t *testing.T) {
	assert.True(t, AllFolders{}.Matches("anything"))

	include := Include("INBOX", "Archive")
	assert.True(t, include.Matches("INBOX"))
	assert.False(t, include.Matches("Spam"))

	exclude := Exclude("Spam")
	assert.True(t, exclude.Matches("INBOX"))
	assert.False(t, exclude.Matches("Spam"))
}
