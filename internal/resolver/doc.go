// Package resolver implements the ingest and format-resolution flows: store
// an upload as the start of a new group, and serve any requested format by
// falling back from the latest record, to a cached sibling variant, to a
// fresh transcode of the group's original.
package resolver
