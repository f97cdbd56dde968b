// Package ui holds the plain terminal output of the command line: colored
// messages, the single line progress display and end of batch
// notifications. The full screen dashboard lives in package tui.
package ui
