// Package tui is the full screen dashboard shown by "download --tui".
package tui
