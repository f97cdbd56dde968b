package harvester

import (
	"context"
	"fmt"

	"linkharvest/pkg/browser"
)

// LinkSelector matches every anchor that carries a link
const LinkSelector = "a[href]"

// DefaultNextLabel is the text of the link to the following result page
const DefaultNextLabel = "Next"

// LinkScanner reads links from the current result page and moves to the next one
type LinkScanner interface {
	// ScanLinks returns the raw link targets on the current page
	ScanLinks(ctx context.Context) ([]string, error)
	// AdvancePage moves to the next result page and waits for it to load
	AdvancePage(ctx context.Context) error
}

// SessionScanner adapts a browser.Session to LinkScanner
type SessionScanner struct {
	Session   browser.Session
	NextLabel string
}

// NewSessionScanner creates a LinkScanner clicking the link labelled nextLabel
func NewSessionScanner(s browser.Session, nextLabel string) *SessionScanner {
	if nextLabel == "" {
		nextLabel = DefaultNextLabel
	}
	return &SessionScanner{Session: s, NextLabel: nextLabel}
}

func (s *SessionScanner) ScanLinks(ctx context.Context) ([]string, error) {
	return s.Session.EvaluateDomQuery(ctx, LinkSelector, browser.Href())
}

func (s *SessionScanner) AdvancePage(ctx context.Context) error {
	if err := s.Session.ClickElementByText(ctx, s.NextLabel); err != nil {
		return fmt.Errorf("click %q: %w", s.NextLabel, err)
	}
	if err := s.Session.WaitForNavigation(ctx); err != nil {
		return fmt.Errorf("wait for next page: %w", err)
	}
	return nil
}
