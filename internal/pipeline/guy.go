package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"polemr/internal"
)

// Down guy note formats, in priority order. A PL NEW note supersedes
// every other spelling on the same pole.
var (
	rePLNewGuy   = regexp.MustCompile(`PL\s+NEW\s+[A-Z\s]+\s+ANCHOR\s+(\d+)'(?:\s*(\d+)")?\s+([NSEW]{1,2})(?:\s|$)`)
	reAnchorGuy  = regexp.MustCompile(`ANCHOR\s+(\d+)'(?:\s*(\d+)")?\s+([NSEW]{1,2})`)
	reSizedGuy   = regexp.MustCompile(`(?:GUY\s+)?(\d+/\d+"\s*EHS|[\d.]+"\s*EHS)\s*(?:GUY\s+)?(\d+)'(?:\s*(\d+)")?\s+([NSEW]{1,2})`)
	reGeneralGuy = regexp.MustCompile(`(?:^|\s)(\d+)'(?:\s*(\d+)")?\s+([NSEW]{1,2})(?:\s|$)`)
)

// ExtractGuyInfo pulls down guy leads, directions, and wire sizes out of
// a make-ready note. Duplicate lead/direction pairs collapse; only the
// sized GUY spelling carries a wire size.
func ExtractGuyInfo(note string) internal.GuyInfo {
	var info internal.GuyInfo
	if strings.TrimSpace(note) == "" {
		return info
	}
	note = strings.ToUpper(note)

	seen := map[string]bool{}
	add := func(feet, inches, direction, size string) {
		lead := feet + "'"
		if inches != "" {
			lead = fmt.Sprintf(`%s'%s"`, feet, inches)
		}
		direction = strings.TrimSpace(direction)
		key := lead + " " + direction
		if seen[key] {
			return
		}
		seen[key] = true
		info.Leads = append(info.Leads, lead)
		info.Directions = append(info.Directions, direction)
		info.Sizes = append(info.Sizes, strings.TrimSpace(size))
	}

	if matches := rePLNewGuy.FindAllStringSubmatch(note, -1); len(matches) > 0 {
		for _, m := range matches {
			add(m[1], m[2], m[3], "")
		}
		return info
	}
	for _, m := range reAnchorGuy.FindAllStringSubmatch(note, -1) {
		add(m[1], m[2], m[3], "")
	}
	for _, m := range reSizedGuy.FindAllStringSubmatch(note, -1) {
		add(m[2], m[3], m[4], m[1])
	}
	for _, m := range reGeneralGuy.FindAllStringSubmatch(note, -1) {
		add(m[1], m[2], m[3], "")
	}
	return info
}

// GuyNeeded reports whether the make-ready note calls for a new down
// guy for the proposed attacher.
func GuyNeeded(note string) string {
	n := strings.ToUpper(strings.TrimSpace(note))
	if strings.Contains(n, "METRONET ANCHOR") || strings.Contains(n, "METRONET DG") {
		return "YES"
	}
	return "NO"
}
