// Package checkpoint saves the progress of a download batch so an
// interrupted run can resume.
//
// A checkpoint belongs to one query and language. It stores the harvested
// URL list, so a resumed run does not drive the search again, and the URLs
// already saved, so they are not fetched twice.
//
// Checkpoints live in the user data directory:
//   - Linux: $XDG_DATA_HOME/linkharvest/checkpoints/ or ~/.local/share/linkharvest/checkpoints/
//   - macOS: ~/Library/Application Support/linkharvest/checkpoints/
//   - Windows: %APPDATA%/linkharvest/checkpoints/
package checkpoint
