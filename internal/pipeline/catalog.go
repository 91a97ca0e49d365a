package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/dgallion1/navdoc/internal/loader"
)

// Loaded is the site currently served along with where it came from.
type Loaded struct {
	Site     *loader.Site
	JobID    string
	LoadedAt time.Time

	started time.Time
}

// Catalog holds the current site. Readers never block; a reload swaps the
// whole site at once.
type Catalog struct {
	current atomic.Pointer[Loaded]
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Site returns the current site, or nil before the first load.
func (c *Catalog) Site() *loader.Site {
	if l := c.current.Load(); l != nil {
		return l.Site
	}
	return nil
}

// Current returns the current entry, or nil before the first load.
func (c *Catalog) Current() *Loaded {
	return c.current.Load()
}

// Fingerprint returns the current site's fingerprint, or "".
func (c *Catalog) Fingerprint() string {
	if s := c.Site(); s != nil {
		return s.Fingerprint
	}
	return ""
}

// Swap installs site as current unless a load that started after started
// has already been installed. It reports whether site was installed.
func (c *Catalog) Swap(site *loader.Site, jobID string, started time.Time) bool {
	next := &Loaded{Site: site, JobID: jobID, LoadedAt: time.Now(), started: started}
	for {
		cur := c.current.Load()
		if cur != nil && cur.started.After(started) {
			return false
		}
		if c.current.CompareAndSwap(cur, next) {
			return true
		}
	}
}
