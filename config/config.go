// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mailsmith/go-mail-sync/domain"
)

// Account describes one side of the synchronization.
type Account struct {
	Name string
	Kind string

	// Imap connection settings.
	Host     string
	User     string
	Password string

	// Maildir / notmuch location.
	Path string
}

type Config struct {
	Database string

	Left  Account
	Right Account

	IncludeFolders []string
	ExcludeFolders []string

	PoolSize int
	DryRun   bool

	Loglevel *string
}

func ReadConfig(filename string) (*Config, error) {
	config := &Config{
		Database: "mailsync.db",
		DryRun:   true,
	}

	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if err := validateNonEmptyStringField(c.Database, "Database must not be empty, set to a filename for the sqlite cache database"); err != nil {
		return err
	}

	if err := c.Left.validate("Left"); err != nil {
		return err
	}
	if err := c.Right.validate("Right"); err != nil {
		return err
	}

	if c.Left.Name == c.Right.Name {
		return fmt.Errorf("Left and Right accounts must have distinct names")
	}

	if len(c.IncludeFolders) > 0 && len(c.ExcludeFolders) > 0 {
		return fmt.Errorf("IncludeFolders and ExcludeFolders cannot be set at the same time")
	}

	if c.PoolSize < 0 {
		return fmt.Errorf("PoolSize must not be negative")
	}

	return nil
}

func (a *Account) validate(side string) error {
	if err := validateNonEmptyStringField(a.Name, side+".Name must not be empty, set to a stable identifier for the account"); err != nil {
		return err
	}

	switch a.Kind {
	case string(domain.BackendImap):
		if err := validateNonEmptyStringField(a.Host, side+".Host must not be empty, set to host:port of the imap server"); err != nil {
			return err
		}
		if err := validateNonEmptyStringField(a.User, side+".User must not be empty, set to username on the imap server"); err != nil {
			return err
		}
		if err := validateNonEmptyStringField(a.Password, side+".Password must not be empty, set to password of User on the imap server"); err != nil {
			return err
		}
	case string(domain.BackendMaildir), string(domain.BackendNotmuch):
		if err := validateNonEmptyStringField(a.Path, side+".Path must not be empty, set to the mail store directory"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s.Kind must be one of imap, maildir, notmuch", side)
	}

	return nil
}

// BackendKind returns the parsed account kind. Only valid after validate.
func (a *Account) BackendKind() domain.BackendKind {
	return domain.BackendKind(a.Kind)
}

func validateNonEmptyStringField(field string, err string) error {
	if len(strings.TrimSpace(field)) == 0 {
		return errors.New(err)
	}

	return nil
}
