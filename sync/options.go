// SPDX-License-Identifier: GPL-3.0-or-later
package sync

import (
	"fmt"

	"github.com/mailsmith/go-mail-sync/domain"
)

type ConfigFunc func(c *configuration) error

func PoolSize(size int) ConfigFunc {
	return func(c *configuration) error {
		if size < 1 {
			return fmt.Errorf("PoolSize must be at least 1")
		}
		c.PoolSize = size
		return nil
	}
}

func Strategy(strategy domain.SelectionStrategy) ConfigFunc {
	return func(c *configuration) error {
		if strategy == nil {
			return fmt.Errorf("Strategy cannot be nil")
		}
		c.Strategy = strategy
		return nil
	}
}

// Events registers a progress sink. Every attempted hunk of every phase is
// sent to it, including the email-phase hunks that do not end up in the
// returned report.
func Events(events chan<- Event) ConfigFunc {
	return func(c *configuration) error {
		c.Events = events
		return nil
	}
}

// DryRun builds the patches and reports them without applying anything.
func DryRun() ConfigFunc {
	return func(c *configuration) error {
		c.DryRun = true
		return nil
	}
}

// LockDir overrides where the session lock file lives, the OS temp
// directory by default.
func LockDir(dir string) ConfigFunc {
	return func(c *configuration) error {
		if len(dir) == 0 {
			return fmt.Errorf("LockDir cannot be empty")
		}
		c.LockDir = dir
		return nil
	}
}

type configuration struct {
	PoolSize int
	Strategy domain.SelectionStrategy
	Events   chan<- Event
	DryRun   bool
	LockDir  string
}
