// Package metadata writes the JSON manifest of a download batch.
package metadata
