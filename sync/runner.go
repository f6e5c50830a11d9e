// SPDX-License-Identifier: GPL-3.0-or-later
package sync

import (
	"fmt"

	"github.com/mailsmith/go-mail-sync/domain"
)

// apply dispatches one hunk to the matching operation on the worker's own
// connection set. Every hunk is self-contained, so this is a straight
// switch with no state outside conns.
func (p *Pool) apply(conns *connections, hunk Hunk) error {
	switch h := hunk.(type) {
	case CreateFolder:
		backend, err := conns.live(h.On)
		if err != nil {
			return err
		}
		return backend.AddFolder(h.Name)

	case DeleteFolder:
		backend, err := conns.live(h.On)
		if err != nil {
			return err
		}
		return backend.DeleteFolder(h.Name)

	case PurgeFolder:
		backend, err := conns.live(h.On)
		if err != nil {
			return err
		}
		return backend.PurgeFolder(h.Name)

	case CacheFolder:
		switch h.On {
		case TargetLeftCache:
			return conns.cache.InsertLocalFolder(p.leftAccount, h.Name)
		case TargetRightCache:
			return conns.cache.InsertRemoteFolder(p.rightAccount, h.Name)
		}
		return fmt.Errorf("cannot cache folder on live target %s", h.On)

	case UncacheFolder:
		switch h.On {
		case TargetLeftCache:
			return conns.cache.DeleteLocalFolder(p.leftAccount, h.Name)
		case TargetRightCache:
			return conns.cache.DeleteRemoteFolder(p.rightAccount, h.Name)
		}
		return fmt.Errorf("cannot uncache folder on live target %s", h.On)

	case GetThenCache:
		backend, err := conns.live(h.Source)
		if err != nil {
			return err
		}
		messages, err := backend.GetMessages(h.FolderName, []string{h.ID})
		if err != nil {
			return fmt.Errorf("could not get message %s: %w", h.ID, err)
		}
		if len(messages) == 0 {
			return fmt.Errorf("message %s not found in folder %s on %s", h.ID, h.FolderName, h.Source)
		}
		return p.insertCached(conns, cacheOf(h.Source), h.FolderName, messages[0].Envelope)

	case CopyThenCache:
		return p.copyThenCache(conns, h)

	case UpdateFlags:
		backend, err := conns.live(h.On)
		if err != nil {
			return err
		}
		return backend.SetFlags(h.FolderName, []string{h.Envelope.InternalID}, h.Envelope.Flags)

	case UpdateCachedFlags:
		if err := p.deleteCached(conns, h.On, h.FolderName, h.Envelope.InternalID); err != nil {
			return err
		}
		return p.insertCached(conns, h.On, h.FolderName, h.Envelope)

	case UncacheEmail:
		return p.deleteCached(conns, h.On, h.FolderName, h.ID)

	case DeleteEmail:
		backend, err := conns.live(h.On)
		if err != nil {
			return err
		}
		return backend.DeleteMessages(h.FolderName, []string{h.ID})
	}

	return fmt.Errorf("unsupported hunk %T", hunk)
}

// copyThenCache moves one message across backends: read from source, append
// to destination, then mirror both caches as requested.
func (p *Pool) copyThenCache(conns *connections, h CopyThenCache) error {
	src, err := conns.live(h.Source)
	if err != nil {
		return err
	}
	dst, err := conns.live(h.Dest)
	if err != nil {
		return err
	}

	messages, err := src.GetMessages(h.FolderName, []string{h.Envelope.InternalID})
	if err != nil {
		return fmt.Errorf("could not get message %s: %w", h.Envelope.MessageID, err)
	}
	if len(messages) == 0 {
		return fmt.Errorf("message %s not found in folder %s on %s", h.Envelope.MessageID, h.FolderName, h.Source)
	}

	newId, err := dst.AddMessage(h.FolderName, messages[0].Raw, h.Envelope.Flags)
	if err != nil {
		return fmt.Errorf("could not add message %s: %w", h.Envelope.MessageID, err)
	}

	destEnvelope := *h.Envelope
	destEnvelope.InternalID = newId
	if err := p.insertCached(conns, cacheOf(h.Dest), h.FolderName, &destEnvelope); err != nil {
		return err
	}

	if h.RefreshSourceCache {
		return p.insertCached(conns, cacheOf(h.Source), h.FolderName, h.Envelope)
	}
	return nil
}

func (c *connections) live(target Target) (domain.Backend, error) {
	switch target {
	case TargetLeft:
		return c.left, nil
	case TargetRight:
		return c.right, nil
	}
	return nil, fmt.Errorf("target %s is not a live backend", target)
}

// cacheOf maps a live target to its cache mirror.
func cacheOf(target Target) Target {
	if target == TargetLeft {
		return TargetLeftCache
	}
	return TargetRightCache
}

func (p *Pool) insertCached(conns *connections, on Target, folder string, envelope *domain.Envelope) error {
	switch on {
	case TargetLeftCache:
		return conns.cache.InsertLocalEnvelope(p.leftAccount, folder, envelope)
	case TargetRightCache:
		return conns.cache.InsertRemoteEnvelope(p.rightAccount, folder, envelope)
	}
	return fmt.Errorf("cannot cache envelope on live target %s", on)
}

func (p *Pool) deleteCached(conns *connections, on Target, folder, internalId string) error {
	switch on {
	case TargetLeftCache:
		return conns.cache.DeleteLocalEnvelope(p.leftAccount, folder, internalId)
	case TargetRightCache:
		return conns.cache.DeleteRemoteEnvelope(p.rightAccount, folder, internalId)
	}
	return fmt.Errorf("cannot uncache envelope on live target %s", on)
}
