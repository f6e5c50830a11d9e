// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"github.com/mailsmith/go-mail-sync/backend/imapbackend"
	"github.com/mailsmith/go-mail-sync/cache"
	"github.com/mailsmith/go-mail-sync/config"
	"github.com/mailsmith/go-mail-sync/domain"
	"github.com/mailsmith/go-mail-sync/log"
	"github.com/mailsmith/go-mail-sync/sync"

	"github.com/sirupsen/logrus"
)

func main() {
	log.InitLogging("debug")
	logger := log.Logger(log.LOG_MAIN)

	conf, err := config.ReadConfig("config.toml")
	if err != nil {
		logger.WithField("error", err).Fatal("Could not load config")
	}

	if conf.Loglevel != nil {
		log.SetLogLevel(*conf.Loglevel)
	}

	leftBuilder, err := backendBuilder(&conf.Left)
	if err != nil {
		logger.WithFields(logrus.Fields{"account": conf.Left.Name, "error": err}).Fatal("Could not configure left backend")
	}
	rightBuilder, err := backendBuilder(&conf.Right)
	if err != nil {
		logger.WithFields(logrus.Fields{"account": conf.Right.Name, "error": err}).Fatal("Could not configure right backend")
	}

	builders := sync.Builders{
		Left:  leftBuilder,
		Right: rightBuilder,
		Cache: func() (*cache.Store, error) { return cache.NewStore(conf.Database) },
	}

	configs := []sync.ConfigFunc{}
	if conf.DryRun {
		configs = append(configs, sync.DryRun())
	}
	if conf.PoolSize > 0 {
		configs = append(configs, sync.PoolSize(conf.PoolSize))
	}
	if len(conf.IncludeFolders) > 0 {
		configs = append(configs, sync.Strategy(domain.Include(conf.IncludeFolders...)))
	}
	if len(conf.ExcludeFolders) > 0 {
		configs = append(configs, sync.Strategy(domain.Exclude(conf.ExcludeFolders...)))
	}

	events := make(chan sync.Event, 64)
	configs = append(configs, sync.Events(events))
	go func() {
		for event := range events {
			if event.Err != nil {
				logger.WithFields(logrus.Fields{"hunk": event.Hunk.String(), "error": event.Err}).Warn("Hunk failed")
				continue
			}
			logger.WithField("hunk", event.Hunk.String()).Debug("Hunk applied")
		}
	}()

	synchronizer, err := sync.NewSynchronizer(conf.Left.Name, conf.Right.Name, builders, configs...)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not start synchronizer")
	}

	if conf.DryRun {
		logger.Warn("Dry-run, computed changes will not be applied")
	}

	report, err := synchronizer.Sync()
	close(events)
	if err != nil {
		logger.WithField("error", err).Fatal("Sync failed")
	}

	failures := report.Failures()
	for _, outcome := range failures {
		logger.WithFields(logrus.Fields{"hunk": outcome.Hunk.String(), "error": outcome.Err}).Warn("Folder hunk failed")
	}
	logger.WithFields(logrus.Fields{"hunks": len(report.Patch), "failed": len(failures)}).Info("Done")
}

func backendBuilder(account *config.Account) (domain.BackendBuilder, error) {
	switch account.BackendKind() {
	case domain.BackendImap:
		return imapbackend.Builder(account.Host, account.User, account.Password), nil
	default:
		// Maildir and notmuch adapters plug in externally, the binary
		// itself only ships the imap one.
		return nil, &unsupportedKindError{kind: account.Kind}
	}
}

type unsupportedKindError struct {
	kind string
}

func (e *unsupportedKindError) Error() string {
	return "no built-in backend for kind " + e.kind
}
