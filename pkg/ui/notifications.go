package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender uses notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender uses osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %s with title %s`, strconv.Quote(message), strconv.Quote(title))
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender shows a message box through PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.MessageBox]::Show(%s, %s) | Out-Null`,
		psQuote(message), psQuote(title))
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Start()
}

func psQuote(s string) string {
	out := []rune{'\''}
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}

// Notification kinds accepted by NewNotifier
const (
	NotifyTerminal = "terminal"
	NotifyDesktop  = "desktop"
	NotifyNone     = "none"
)

// Notifier reports the end of a batch on the terminal and, for the desktop
// kind, through the platform notification tool
type Notifier struct {
	sender  NotificationSender
	enabled bool
}

// NewNotifier creates a Notifier. Unknown kinds behave like terminal.
func NewNotifier(enabled bool, kind string) *Notifier {
	n := &Notifier{enabled: enabled && kind != NotifyNone}
	if kind != NotifyDesktop {
		return n
	}

	switch runtime.GOOS {
	case "linux":
		n.sender = &LinuxNotificationSender{}
	case "darwin":
		n.sender = &MacOSNotificationSender{}
	case "windows":
		n.sender = &WindowsNotificationSender{}
	}
	return n
}

// WithSender replaces the desktop sender
func (n *Notifier) WithSender(s NotificationSender) *Notifier {
	n.sender = s
	return n
}

// SendSuccess announces a finished batch
func (n *Notifier) SendSuccess(title, message string) {
	n.send(Green, title, message)
}

// SendError announces a failed batch
func (n *Notifier) SendError(title, message string) {
	n.send(Red, title, message)
}

func (n *Notifier) send(color func(string) string, title, message string) {
	if !n.enabled {
		return
	}
	fmt.Fprintf(Out, "\n%s: %s\n", color(title), message)

	if n.sender != nil {
		// notifications are best effort
		_ = n.sender.Send(title, message)
	}
}
