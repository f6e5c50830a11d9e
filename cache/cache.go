// SPDX-License-Identifier: GPL-3.0-or-later
package cache

import (
	"context"
	"crypto/md5"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mailsmith/go-mail-sync/domain"
	"github.com/mailsmith/go-mail-sync/log"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
)

// cacheSuffix is appended to the account key for the local side so that
// local and remote mirror rows of the same account never collide.
const cacheSuffix = ":cache"

// Store persists a mirror of each side's folder and envelope state so a
// sync can detect drift without re-querying the live backend for history.
// One Store owns one sqlite connection; workers needing cache access build
// their own Store on the same database file.
type Store struct {
	db *sqlx.DB
	l  *logrus.Logger
}

func NewStore(datasource string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", datasource)
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	l := log.Logger(log.LOG_CACHE)
	l.WithField("file", datasource).Debug("Connected")

	_, err = db.Exec(`PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("could not set journal mode: %w", err)
	}
	_, err = db.Exec(`PRAGMA synchronous=normal`)
	if err != nil {
		return nil, fmt.Errorf("could not set synchronous mode: %w", err)
	}
	_, err = db.Exec(`PRAGMA busy_timeout=5000`)
	if err != nil {
		return nil, fmt.Errorf("could not set busy timeout: %w", err)
	}

	appliedMigrations, err := migrate.Exec(db.DB, "sqlite3", migrationSource, migrate.Up)
	if err != nil {
		return nil, fmt.Errorf("could not migrate to newest version: %w", err)
	}

	l.WithField("migrations", appliedMigrations).Debug("Executed migrations")

	return &Store{
		db: db,
		l:  l,
	}, nil
}

func (s *Store) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}
	s.l.Debug("Disconnected")
	return nil
}

// namespace derives the account key one side's rows are stored under. The
// hash keeps arbitrary account names (separators, case oddities) out of the
// query values while staying stable across runs.
func namespace(account string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(account)))
}

func localNamespace(account string) string {
	return namespace(account + cacheSuffix)
}

func (s *Store) ListLocalFolders(account string, strategy domain.SelectionStrategy) (domain.Folders, error) {
	return s.listFolders(localNamespace(account), strategy)
}

func (s *Store) ListRemoteFolders(account string, strategy domain.SelectionStrategy) (domain.Folders, error) {
	return s.listFolders(namespace(account), strategy)
}

func (s *Store) listFolders(ns string, strategy domain.SelectionStrategy) (domain.Folders, error) {
	names := []string{}
	err := s.db.Select(
		&names,
		`SELECT name FROM folders WHERE account = ? ORDER BY name`,
		ns,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	folders := domain.Folders{}
	for _, name := range names {
		if strategy.Matches(name) {
			folders = append(folders, domain.NewFolder(name))
		}
	}

	s.l.WithField("Count", len(folders)).Debug("Found cached folders")
	return folders, nil
}

func (s *Store) InsertLocalFolder(account, name string) error {
	return s.insertFolder(localNamespace(account), name)
}

func (s *Store) InsertRemoteFolder(account, name string) error {
	return s.insertFolder(namespace(account), name)
}

func (s *Store) insertFolder(ns, name string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO folders (account, name) VALUES (?, ?)",
		ns,
		name,
	)
	if err != nil {
		return fmt.Errorf("could not cache folder: %w", err)
	}

	s.l.WithFields(logrus.Fields{"Name": name}).Debug("Cached folder")
	return nil
}

func (s *Store) DeleteLocalFolder(account, name string) error {
	return s.deleteFolder(localNamespace(account), name)
}

func (s *Store) DeleteRemoteFolder(account, name string) error {
	return s.deleteFolder(namespace(account), name)
}

// deleteFolder removes the folder row together with every envelope row
// cached under it, in one transaction.
func (s *Store) deleteFolder(ns, name string) error {
	tx, err := s.db.BeginTxx(context.TODO(), nil)
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}

	_, err = tx.Exec("DELETE FROM folders WHERE account = ? AND name = ?", ns, name)
	if err != nil {
		return txEnd(tx, fmt.Errorf("could not uncache folder: %w", err))
	}

	_, err = tx.Exec("DELETE FROM envelopes WHERE account = ? AND folder = ?", ns, name)
	if err != nil {
		return txEnd(tx, fmt.Errorf("could not uncache folder envelopes: %w", err))
	}

	s.l.WithFields(logrus.Fields{"Name": name}).Debug("Uncached folder")
	return txEnd(tx, nil)
}

func (s *Store) ListLocalEnvelopes(account, folder string) (domain.Envelopes, error) {
	return s.listEnvelopes(localNamespace(account), folder)
}

func (s *Store) ListRemoteEnvelopes(account, folder string) (domain.Envelopes, error) {
	return s.listEnvelopes(namespace(account), folder)
}

func (s *Store) listEnvelopes(ns, folder string) (domain.Envelopes, error) {
	dbEnvelopes := []struct {
		InternalId    string
		MessageId     string
		Flags         sql.NullString
		SenderName    string
		SenderAddress string
		Subject       string
		Date          sql.NullTime
	}{}

	err := s.db.Select(
		&dbEnvelopes,
		`SELECT internalid, messageid, GROUP_CONCAT(flag) AS flags, sendername, senderaddress, subject, date
		FROM envelopes
		WHERE account = ? AND folder = ?
		GROUP BY messageid
		ORDER BY date DESC`,
		ns,
		folder,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	envelopes := domain.Envelopes{}
	for _, e := range dbEnvelopes {
		flags := domain.NewFlags()
		if e.Flags.Valid && len(e.Flags.String) > 0 {
			for _, flag := range strings.Split(e.Flags.String, ",") {
				flags.Add(domain.Flag(flag))
			}
		}

		envelope := &domain.Envelope{
			InternalID: e.InternalId,
			MessageID:  e.MessageId,
			Flags:      flags,
			From:       domain.Mailbox{Name: e.SenderName, Address: e.SenderAddress},
			Subject:    e.Subject,
		}
		if e.Date.Valid {
			envelope.Date = e.Date.Time
		}
		envelopes = append(envelopes, envelope)
	}

	s.l.WithFields(logrus.Fields{"Folder": folder, "Count": len(envelopes)}).Debug("Found cached envelopes")
	return envelopes, nil
}

func (s *Store) InsertLocalEnvelope(account, folder string, envelope *domain.Envelope) error {
	return s.insertEnvelope(localNamespace(account), folder, envelope)
}

func (s *Store) InsertRemoteEnvelope(account, folder string, envelope *domain.Envelope) error {
	return s.insertEnvelope(namespace(account), folder, envelope)
}

// insertEnvelope writes one row per flag, or a single NULL-flag sentinel
// row when the envelope carries no flags. INSERT OR IGNORE plus the unique
// constraints make retries harmless.
func (s *Store) insertEnvelope(ns, folder string, envelope *domain.Envelope) error {
	tx, err := s.db.BeginTxx(context.TODO(), nil)
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO envelopes
		(internalid, messageid, account, folder, flag, sendername, senderaddress, subject, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return txEnd(tx, fmt.Errorf("could not prepare statement: %w", err))
	}

	flags := []interface{}{}
	for _, flag := range envelope.Flags.List() {
		flags = append(flags, string(flag))
	}
	if len(flags) == 0 {
		flags = append(flags, nil)
	}

	for _, flag := range flags {
		_, err := stmt.Exec(
			envelope.InternalID,
			envelope.MessageID,
			ns,
			folder,
			flag,
			envelope.From.Name,
			envelope.From.Address,
			envelope.Subject,
			envelope.Date.UTC(),
		)
		if err != nil {
			return txEnd(tx, fmt.Errorf("could not cache envelope: %w", err))
		}
	}

	return txEnd(tx, nil)
}

func (s *Store) DeleteLocalEnvelope(account, folder, internalId string) error {
	return s.deleteEnvelope(localNamespace(account), folder, internalId)
}

func (s *Store) DeleteRemoteEnvelope(account, folder, internalId string) error {
	return s.deleteEnvelope(namespace(account), folder, internalId)
}

func (s *Store) deleteEnvelope(ns, folder, internalId string) error {
	_, err := s.db.Exec(
		"DELETE FROM envelopes WHERE account = ? AND folder = ? AND internalid = ?",
		ns,
		folder,
		internalId,
	)
	if err != nil {
		return fmt.Errorf("could not uncache envelope: %w", err)
	}

	return nil
}

func txEnd(tx *sqlx.Tx, err error) error {
	if err == nil {
		err = tx.Commit()
		if err != nil {
			return fmt.Errorf("could not commit tx: %w", err)
		}
	} else {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			errStr := err.Error()
			return fmt.Errorf("%s, could not rollback tx: %w", errStr, rollbackErr)
		} else {
			return err
		}
	}

	return nil
}
