// SPDX-License-Identifier: GPL-3.0-or-later
package sync

import (
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mailsmith/go-mail-sync/domain"
	"github.com/mailsmith/go-mail-sync/log"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// ErrSyncInProgress is returned when another process already holds the lock
// for the same account pair. Syncing refuses to run rather than queueing.
var ErrSyncInProgress = errors.New("a sync is already running for this account pair")

// Synchronizer drives one full sync of an account pair: folder phase first,
// then one email phase per folder, everything serialized across processes
// by an exclusive advisory file lock.
type Synchronizer struct {
	leftAccount  string
	rightAccount string
	builders     Builders

	configuration *configuration

	l *logrus.Logger
}

func NewSynchronizer(leftAccount, rightAccount string, builders Builders, configFunc ...ConfigFunc) (*Synchronizer, error) {
	if len(leftAccount) == 0 || len(rightAccount) == 0 {
		return nil, fmt.Errorf("both account names must be set")
	}
	if builders.Left == nil || builders.Right == nil || builders.Cache == nil {
		return nil, fmt.Errorf("all backend builders must be set")
	}

	config := &configuration{
		PoolSize: DefaultPoolSize,
		Strategy: domain.AllFolders{},
		LockDir:  os.TempDir(),
	}
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	return &Synchronizer{
		leftAccount:   leftAccount,
		rightAccount:  rightAccount,
		builders:      builders,
		configuration: config,
		l:             log.Logger(log.LOG_SYNC),
	}, nil
}

// SessionID identifies the account pair: the two opaque account names
// concatenated and hashed. It keys both the lock file and nothing else; the
// cache namespaces hash each account on its own.
func (s *Synchronizer) SessionID() string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s.leftAccount+s.rightAccount)))
}

func (s *Synchronizer) lockPath() string {
	return filepath.Join(s.configuration.LockDir, fmt.Sprintf("go-mail-sync.%s.lock", s.SessionID()))
}

// Sync runs the whole sequence and returns the folder-phase report. The
// email-phase outcomes are surfaced through the Events sink; a hunk failure
// never fails the sync, only lock and connection-setup errors do.
func (s *Synchronizer) Sync() (*Report, error) {
	lockPath := s.lockPath()
	fileLock := flock.New(lockPath)

	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("could not acquire sync lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s is held: %w", lockPath, ErrSyncInProgress)
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			s.l.WithFields(logrus.Fields{"lock": lockPath, "error": err}).Error("Could not release sync lock")
		}
	}()

	s.l.WithFields(logrus.Fields{"left": s.leftAccount, "right": s.rightAccount, "session": s.SessionID(), "dryrun": s.configuration.DryRun}).Info("Starting sync")

	pool := NewPool(s.leftAccount, s.rightAccount, s.builders, s.configuration.PoolSize, s.configuration.Events)

	// The orchestrator gets its own connection set for diffing, distinct
	// from any worker's.
	conns, err := pool.connect()
	if err != nil {
		return nil, fmt.Errorf("could not connect for diffing: %w", err)
	}
	defer conns.close()

	report, folders, err := s.syncFolders(pool, conns)
	if err != nil {
		return nil, err
	}

	for _, folder := range folders {
		if err := s.syncEmails(pool, conns, folder); err != nil {
			// Aborts this folder's phase only, the rest still runs.
			s.l.WithFields(logrus.Fields{"folder": folder, "error": err}).Error("Email sync failed for folder")
		}
	}

	s.l.WithFields(logrus.Fields{"hunks": len(report.Patch), "failed": len(report.Failures())}).Info("Sync done")
	return report, nil
}

// syncFolders diffs and reconciles the folder sets, then returns the folder
// names taking part in the email phase.
func (s *Synchronizer) syncFolders(pool *Pool, conns *connections) (*Report, []string, error) {
	strategy := s.configuration.Strategy

	leftLive, err := conns.left.ListFolders()
	if err != nil {
		return nil, nil, fmt.Errorf("could not list left folders: %w", err)
	}
	rightLive, err := conns.right.ListFolders()
	if err != nil {
		return nil, nil, fmt.Errorf("could not list right folders: %w", err)
	}
	leftCache, err := conns.cache.ListLocalFolders(s.leftAccount, strategy)
	if err != nil {
		return nil, nil, fmt.Errorf("could not list left cached folders: %w", err)
	}
	rightCache, err := conns.cache.ListRemoteFolders(s.rightAccount, strategy)
	if err != nil {
		return nil, nil, fmt.Errorf("could not list right cached folders: %w", err)
	}

	state := FolderState{
		LeftCache:  FoldersByName(selectFolders(leftCache, strategy)),
		Left:       FoldersByName(selectFolders(leftLive, strategy)),
		RightCache: FoldersByName(selectFolders(rightCache, strategy)),
		Right:      FoldersByName(selectFolders(rightLive, strategy)),
	}

	hunks := BuildFolderPatch(state)
	s.l.WithField("hunks", len(hunks)).Info("Built folder patch")

	if s.configuration.DryRun {
		report := NewReport()
		for _, hunk := range hunks {
			s.l.WithField("hunk", hunk.String()).Info("Would apply")
			report.Add(hunk, nil)
		}
		return report, folderNames(state), nil
	}

	report := pool.Run(hunks)

	// The folder universe may have changed, re-list for the email phase.
	leftLive, err = conns.left.ListFolders()
	if err != nil {
		return nil, nil, fmt.Errorf("could not re-list left folders: %w", err)
	}
	rightLive, err = conns.right.ListFolders()
	if err != nil {
		return nil, nil, fmt.Errorf("could not re-list right folders: %w", err)
	}

	names := map[string]struct{}{}
	for _, f := range selectFolders(leftLive, strategy) {
		names[f.Name] = struct{}{}
	}
	for _, f := range selectFolders(rightLive, strategy) {
		names[f.Name] = struct{}{}
	}
	folders := make([]string, 0, len(names))
	for name := range names {
		folders = append(folders, name)
	}
	sort.Strings(folders)

	return report, folders, nil
}

// syncEmails diffs and reconciles one folder's envelopes.
func (s *Synchronizer) syncEmails(pool *Pool, conns *connections, folder string) error {
	leftLive, err := conns.left.ListEnvelopes(folder, 0, 0)
	if err != nil {
		return fmt.Errorf("could not list left envelopes: %w", err)
	}
	rightLive, err := conns.right.ListEnvelopes(folder, 0, 0)
	if err != nil {
		return fmt.Errorf("could not list right envelopes: %w", err)
	}
	leftCache, err := conns.cache.ListLocalEnvelopes(s.leftAccount, folder)
	if err != nil {
		return fmt.Errorf("could not list left cached envelopes: %w", err)
	}
	rightCache, err := conns.cache.ListRemoteEnvelopes(s.rightAccount, folder)
	if err != nil {
		return fmt.Errorf("could not list right cached envelopes: %w", err)
	}

	state := EmailState{
		LeftCache:  leftCache.ByMessageID(),
		Left:       leftLive.ByMessageID(),
		RightCache: rightCache.ByMessageID(),
		Right:      rightLive.ByMessageID(),
	}

	hunks := BuildEmailPatch(folder, state)
	s.l.WithFields(logrus.Fields{"folder": folder, "hunks": len(hunks)}).Info("Built email patch")
	if len(hunks) == 0 {
		return nil
	}

	if s.configuration.DryRun {
		for _, hunk := range hunks {
			s.l.WithField("hunk", hunk.String()).Info("Would apply")
		}
		return nil
	}

	deletions := false
	for _, hunk := range hunks {
		if _, ok := hunk.(DeleteEmail); ok {
			deletions = true
			break
		}
	}

	report := pool.Run(hunks)
	s.l.WithFields(logrus.Fields{"folder": folder, "hunks": len(report.Patch), "failed": len(report.Failures())}).Info("Applied email patch")

	if deletions {
		if err := conns.left.ExpungeFolder(folder); err != nil {
			s.l.WithFields(logrus.Fields{"folder": folder, "error": err}).Warn("Could not expunge left folder")
		}
		if err := conns.right.ExpungeFolder(folder); err != nil {
			s.l.WithFields(logrus.Fields{"folder": folder, "error": err}).Warn("Could not expunge right folder")
		}
	}

	return nil
}

func selectFolders(folders domain.Folders, strategy domain.SelectionStrategy) domain.Folders {
	selected := domain.Folders{}
	for _, f := range folders {
		if strategy.Matches(f.Name) {
			selected = append(selected, f)
		}
	}
	return selected
}

func folderNames(state FolderState) []string {
	names := map[string]struct{}{}
	for name := range state.Left {
		names[name] = struct{}{}
	}
	for name := range state.Right {
		names[name] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	return sorted
}
