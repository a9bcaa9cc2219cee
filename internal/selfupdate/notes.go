// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"fmt"
	"strings"
)

// CollectNotes concatenates the notes of every catalog version strictly newer
// than current, oldest first. The running version's own notes are excluded.
func CollectNotes(c *Catalog, current Version) []string {
	if c == nil {
		return nil
	}

	var notes []string
	// Entries are kept in ascending version order.
	for _, e := range c.Entries {
		if e.Version.Compare(current) > 0 {
			notes = append(notes, e.Record.Notes...)
		}
	}
	return notes
}

// FormatNotes renders notes as the plain-text block shown before a download.
// It returns "" when there are no notes.
func FormatNotes(notes []string) string {
	if len(notes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("PLEASE NOTE:")
	for _, n := range notes {
		fmt.Fprintf(&sb, "\n%s", n)
	}
	return sb.String()
}
