// SPDX-License-Identifier: GPL-3.0-or-later
package cache

import (
	migrate "github.com/rubenv/sql-migrate"
)

// Schema lives in a memory migration source so that opening a store on a
// fresh database file and on an already-initialized one is the same code
// path.
var migrationSource = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1_create_folders",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS folders (
					account TEXT NOT NULL,
					name TEXT NOT NULL,
					UNIQUE(account, name)
				)`,
			},
			Down: []string{`DROP TABLE folders`},
		},
		{
			Id: "2_create_envelopes",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS envelopes (
					internalid TEXT NOT NULL,
					messageid TEXT NOT NULL,
					account TEXT NOT NULL,
					folder TEXT NOT NULL,
					flag TEXT DEFAULT NULL,
					sendername TEXT NOT NULL DEFAULT '',
					senderaddress TEXT NOT NULL DEFAULT '',
					subject TEXT NOT NULL DEFAULT '',
					date DATETIME,
					UNIQUE(internalid, messageid, account, folder, flag)
				)`,
				`CREATE INDEX IF NOT EXISTS envelopes_account_folder ON envelopes (account, folder)`,
				// NULL flags compare distinct under UNIQUE, the flagless
				// sentinel row needs its own partial index to stay idempotent.
				`CREATE UNIQUE INDEX IF NOT EXISTS envelopes_flagless
					ON envelopes (internalid, messageid, account, folder) WHERE flag IS NULL`,
			},
			Down: []string{`DROP TABLE envelopes`},
		},
	},
}
