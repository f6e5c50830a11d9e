// SPDX-License-Identifier: GPL-3.0-or-later

// Package memory implements the backend capability interface on an
// in-process store. It is the reference implementation of the contract and
// what the sync engine is tested against.
package memory

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/mailsmith/go-mail-sync/domain"
	"github.com/mailsmith/go-mail-sync/mail"
)

// Store holds the actual state. Backends produced by Builder are views onto
// one shared Store, mirroring how independent connections see one mailbox.
type Store struct {
	mu      sync.Mutex
	name    string
	folders map[string]*folder
	nextUid int
}

type folder struct {
	messages map[string]*message
}

type message struct {
	envelope *domain.Envelope
	raw      []byte
}

func NewStore(name string) *Store {
	return &Store{
		name:    name,
		folders: map[string]*folder{},
		nextUid: 1,
	}
}

// Builder returns a backend factory compatible with the sync worker pool;
// every produced backend shares this store.
func (s *Store) Builder() domain.BackendBuilder {
	return func() (domain.Backend, error) {
		return &Backend{store: s}, nil
	}
}

type Backend struct {
	store *Store
}

func (b *Backend) AddFolder(name string) error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[name]; !ok {
		s.folders[name] = &folder{messages: map[string]*message{}}
	}
	return nil
}

func (b *Backend) ListFolders() (domain.Folders, error) {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.folders))
	for name := range s.folders {
		names = append(names, name)
	}
	sort.Strings(names)

	folders := domain.Folders{}
	for _, name := range names {
		folders = append(folders, domain.NewFolder(name))
	}
	return folders, nil
}

func (b *Backend) PurgeFolder(name string) error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.folder(name)
	if err != nil {
		return err
	}
	f.messages = map[string]*message{}
	return nil
}

func (b *Backend) ExpungeFolder(name string) error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.folder(name)
	if err != nil {
		return err
	}
	for id, m := range f.messages {
		if m.envelope.Flags.Has(domain.FlagDeleted) {
			delete(f.messages, id)
		}
	}
	return nil
}

func (b *Backend) DeleteFolder(name string) error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[name]; !ok {
		return fmt.Errorf("folder %s does not exist in store %s", name, s.name)
	}
	delete(s.folders, name)
	return nil
}

func (b *Backend) ListEnvelopes(folderName string, page, pageSize int) (domain.Envelopes, error) {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.folder(folderName)
	if err != nil {
		return nil, err
	}

	envelopes := domain.Envelopes{}
	for _, m := range f.messages {
		envelopes = append(envelopes, cloneEnvelope(m.envelope))
	}
	sort.Slice(envelopes, func(i, j int) bool {
		if !envelopes[i].Date.Equal(envelopes[j].Date) {
			return envelopes[i].Date.After(envelopes[j].Date)
		}
		return envelopes[i].InternalID < envelopes[j].InternalID
	})

	if pageSize <= 0 {
		return envelopes, nil
	}
	from := page * pageSize
	if from > len(envelopes) {
		return nil, fmt.Errorf("page %d out of bounds for folder %s", page, folderName)
	}
	to := from + pageSize
	if to > len(envelopes) {
		to = len(envelopes)
	}
	return envelopes[from:to], nil
}

func (b *Backend) AddMessage(folderName string, raw []byte, flags domain.Flags) (string, error) {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.folder(folderName)
	if err != nil {
		return "", err
	}

	envelope, err := mail.HeaderInfos(raw)
	if err != nil {
		return "", fmt.Errorf("could not parse message: %w", err)
	}
	envelope.InternalID = strconv.Itoa(s.nextUid)
	s.nextUid++
	if flags == nil {
		envelope.Flags = domain.NewFlags()
	} else {
		envelope.Flags = flags.Clone()
	}

	f.messages[envelope.InternalID] = &message{envelope: envelope, raw: raw}
	return envelope.InternalID, nil
}

func (b *Backend) GetMessages(folderName string, ids []string) (domain.Messages, error) {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.folder(folderName)
	if err != nil {
		return nil, err
	}

	messages := domain.Messages{}
	for _, id := range ids {
		m, ok := f.messages[id]
		if !ok {
			return nil, fmt.Errorf("message %s does not exist in folder %s", id, folderName)
		}
		messages = append(messages, &domain.Message{Envelope: cloneEnvelope(m.envelope), Raw: m.raw})
	}
	return messages, nil
}

func (b *Backend) CopyMessages(src, dst string, ids []string) error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	srcFolder, err := s.folder(src)
	if err != nil {
		return err
	}
	dstFolder, err := s.folder(dst)
	if err != nil {
		return err
	}

	for _, id := range ids {
		m, ok := srcFolder.messages[id]
		if !ok {
			return fmt.Errorf("message %s does not exist in folder %s", id, src)
		}
		envelope := cloneEnvelope(m.envelope)
		envelope.InternalID = strconv.Itoa(s.nextUid)
		s.nextUid++
		dstFolder.messages[envelope.InternalID] = &message{envelope: envelope, raw: m.raw}
	}
	return nil
}

func (b *Backend) MoveMessages(src, dst string, ids []string) error {
	if err := b.CopyMessages(src, dst, ids); err != nil {
		return err
	}
	return b.DeleteMessages(src, ids)
}

func (b *Backend) DeleteMessages(folderName string, ids []string) error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.folder(folderName)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := f.messages[id]; !ok {
			return fmt.Errorf("message %s does not exist in folder %s", id, folderName)
		}
		delete(f.messages, id)
	}
	return nil
}

func (b *Backend) AddFlags(folderName string, ids []string, flags domain.Flags) error {
	return b.updateFlags(folderName, ids, func(current domain.Flags) domain.Flags {
		return current.Union(flags)
	})
}

func (b *Backend) SetFlags(folderName string, ids []string, flags domain.Flags) error {
	return b.updateFlags(folderName, ids, func(domain.Flags) domain.Flags {
		return flags.Clone()
	})
}

func (b *Backend) RemoveFlags(folderName string, ids []string, flags domain.Flags) error {
	return b.updateFlags(folderName, ids, func(current domain.Flags) domain.Flags {
		kept := domain.NewFlags()
		for _, flag := range current.List() {
			if !flags.Has(flag) {
				kept.Add(flag)
			}
		}
		return kept
	})
}

func (b *Backend) updateFlags(folderName string, ids []string, update func(domain.Flags) domain.Flags) error {
	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.folder(folderName)
	if err != nil {
		return err
	}
	for _, id := range ids {
		m, ok := f.messages[id]
		if !ok {
			return fmt.Errorf("message %s does not exist in folder %s", id, folderName)
		}
		m.envelope.Flags = update(m.envelope.Flags)
	}
	return nil
}

func (b *Backend) Close() error {
	return nil
}

// folder must be called with the store lock held.
func (s *Store) folder(name string) (*folder, error) {
	f, ok := s.folders[name]
	if !ok {
		return nil, fmt.Errorf("folder %s does not exist in store %s", name, s.name)
	}
	return f, nil
}

func cloneEnvelope(e *domain.Envelope) *domain.Envelope {
	clone := *e
	clone.Flags = e.Flags.Clone()
	return &clone
}
