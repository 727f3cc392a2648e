// Package config holds compile-time constants shared across the index engine.
package config

// Name shown by the REPL and used to derive default file names.
const Name = "relindex"

// Prompt printed by the REPL.
const Prompt = Name + "> "

// MaxPagesInBuffer is the maximum number of pages the pager keeps resident
// (pinned or unpinned) at once. Once exhausted, unpinned pages are evicted
// before any allocation fails.
const MaxPagesInBuffer = 64

// MaxRelationNameLen is the number of bytes of a relation's name that fit in
// the header page, not counting the trailing NUL.
const MaxRelationNameLen = 19

// GetPrompt returns Prompt if flag is set, else the empty string.
func GetPrompt(flag bool) string {
	if flag {
		return Prompt
	}
	return ""
}
