package browsertest

import (
	"context"
	"purchase-automation/internal/browser"
	"sync"
)

var _ browser.Launcher = (*Launcher)(nil)

// Launcher hands out sessions whose pages are built by NewPage, it keeps
// track of how many sessions were open at the same time.
type Launcher struct {
	NewPage func() *Page

	mutex     sync.Mutex
	pages     []*Page
	active    int
	maxActive int
	closed    bool
}

func (l *Launcher) NewSession(ctx context.Context, _ browser.SessionOptions) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page := l.NewPage()

	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.pages = append(l.pages, page)
	l.active++
	if l.active > l.maxActive {
		l.maxActive = l.active
	}
	return &session{launcher: l, page: page}, nil
}

func (l *Launcher) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.closed = true
	return nil
}

// Pages returns every page handed out so far.
func (l *Launcher) Pages() []*Page {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]*Page(nil), l.pages...)
}

// MaxActive returns the highest number of sessions that were open at once.
func (l *Launcher) MaxActive() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.maxActive
}

// Active returns the number of sessions not closed yet.
func (l *Launcher) Active() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.active
}

type session struct {
	launcher *Launcher
	page     *Page
}

func (s *session) Page() browser.Page {
	return s.page
}

func (s *session) Close() error {
	s.launcher.mutex.Lock()
	s.launcher.active--
	s.launcher.mutex.Unlock()
	return s.page.Close()
}
