package source

import (
	"fmt"
	"sync"
)

// Locks tracks which source groups are held by an exclusive session.
type Locks struct {
	mu       sync.Mutex
	held     map[string]bool
	sharedBy map[string]int
}

func NewLocks() *Locks {
	return &Locks{
		held:     make(map[string]bool),
		sharedBy: make(map[string]int),
	}
}

// Acquire registers a session on groupID. The returned func releases it.
func (l *Locks) Acquire(groupID string, mode SharingMode) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[groupID] || (mode == SharingExclusive && l.sharedBy[groupID] > 0) {
		return nil, fmt.Errorf("%w: %s", ErrGroupInUse, groupID)
	}

	if mode == SharingExclusive {
		l.held[groupID] = true
	} else {
		l.sharedBy[groupID]++
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if mode == SharingExclusive {
				delete(l.held, groupID)
			} else if l.sharedBy[groupID]--; l.sharedBy[groupID] <= 0 {
				delete(l.sharedBy, groupID)
			}
		})
	}, nil
}

// CheckSettings rejects settings a video-only back end cannot honour.
func CheckSettings(settings InitSettings) error {
	if settings.StreamingMode != StreamingVideo {
		return fmt.Errorf("%w: only video streaming is supported", ErrUnsupported)
	}
	if len(settings.SourceGroup.SourceInfos) == 0 {
		return fmt.Errorf("%w: group %q has no sources", ErrUnknownGroup, settings.SourceGroup.ID)
	}
	return nil
}

// FindSource looks up sourceID within group.
func FindSource(group SourceGroup, sourceID string) (SourceInfo, error) {
	for _, info := range group.SourceInfos {
		if info.ID == sourceID {
			return info, nil
		}
	}
	return SourceInfo{}, fmt.Errorf("%w: %s in group %s", ErrUnknownSource, sourceID, group.ID)
}
