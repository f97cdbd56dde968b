package browser

import (
	"context"
	"fmt"
	"sync"

	errs "linkharvest/pkg/errors"
)

// FakePage is one scripted result page of a FakeSession
type FakePage struct {
	Links []string
	// ScanErr is returned by EvaluateDomQuery while this page is shown
	ScanErr error
	// FlakyClicks makes the first n pagination attempts from this page fail
	FlakyClicks int
}

// FakeSession replays a fixed sequence of pages. Clicking "next" on the
// last page fails. It records every call for assertions.
type FakeSession struct {
	Pages       []FakePage
	NavigateErr error

	mu       sync.Mutex
	index    int
	loaded   bool
	armed    bool
	attempts map[int]int
	calls    []string
}

func (f *FakeSession) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// Calls returns the recorded calls in order
func (f *FakeSession) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// PageIndex returns the index of the page currently shown
func (f *FakeSession) PageIndex() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

func (f *FakeSession) SelectTab(ctx context.Context, namePattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("select %s", namePattern)
	return nil
}

func (f *FakeSession) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("navigate %s", url)
	if f.NavigateErr != nil {
		return f.NavigateErr
	}
	f.index, f.loaded, f.armed = 0, true, false
	f.attempts = make(map[int]int)
	return nil
}

func (f *FakeSession) EvaluateDomQuery(ctx context.Context, selector string, expr Expression) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("query %s %s", selector, expr)
	if !f.loaded || f.index >= len(f.Pages) {
		return nil, errs.Newf(errs.ErrorTypeSession, "evaluate dom query", "no page loaded")
	}
	p := f.Pages[f.index]
	if p.ScanErr != nil {
		return nil, p.ScanErr
	}
	out := make([]string, len(p.Links))
	copy(out, p.Links)
	return out, nil
}

func (f *FakeSession) ClickElementByText(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("click %s", text)
	if !f.loaded {
		return errs.Newf(errs.ErrorTypeSession, "click", "no page loaded")
	}
	f.attempts[f.index]++
	if f.attempts[f.index] <= f.Pages[f.index].FlakyClicks {
		return errs.Newf(errs.ErrorTypeNavigation, "click", "%q is not clickable yet", text)
	}
	if f.index+1 >= len(f.Pages) {
		return errs.Newf(errs.ErrorTypeNavigation, "click", "no link with text %q", text)
	}
	f.armed = true
	return nil
}

func (f *FakeSession) WaitForNavigation(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("wait")
	if !f.armed {
		return errs.Newf(errs.ErrorTypeNavigation, "wait for navigation", "no navigation in progress")
	}
	f.armed = false
	f.index++
	return nil
}
