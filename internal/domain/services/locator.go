package services

import (
	"strconv"
	"strings"
)

// Default packet locator settings.
const (
	DefaultRepoTag   = "fs"
	DefaultKindTag   = "tab"
	DefaultRefPrefix = "mhg"
	DefaultYear      = 1960
)

// DefaultSuggestedPages are offered for review when a packet is first located.
var DefaultSuggestedPages = []int{1, 2, 3}

// PacketLocator maps a local catalogue reference and year to a packet id of
// the form "<repo>:<kind>:<year>:<prefix>-<reference>". It is a pure
// function of its settings and arguments.
type PacketLocator struct {
	RepoTag        string
	KindTag        string
	RefPrefix      string
	DefaultYear    int
	SuggestedPages []int
}

// Location is the result of resolving a catalogue reference.
type Location struct {
	PacketID       string `json:"packetId"`
	SuggestedPages []int  `json:"suggestedPages"`
}

// NewPacketLocator returns a locator with the default tags.
func NewPacketLocator() PacketLocator {
	return PacketLocator{
		RepoTag:        DefaultRepoTag,
		KindTag:        DefaultKindTag,
		RefPrefix:      DefaultRefPrefix,
		DefaultYear:    DefaultYear,
		SuggestedPages: DefaultSuggestedPages,
	}
}

// Locate returns the packet id for a reference such as "2322/60". A zero
// year means the year is unknown and the locator default applies.
func (l PacketLocator) Locate(reference string, year int) string {
	if year == 0 {
		year = l.DefaultYear
	}
	return strings.Join([]string{l.RepoTag, l.KindTag, strconv.Itoa(year), l.normalizeRef(reference)}, ":")
}

// Resolve is Locate plus the pages suggested for review.
func (l PacketLocator) Resolve(reference string, year int) Location {
	pages := make([]int, len(l.SuggestedPages))
	copy(pages, l.SuggestedPages)
	return Location{
		PacketID:       l.Locate(reference, year),
		SuggestedPages: pages,
	}
}

func (l PacketLocator) normalizeRef(reference string) string {
	ref := strings.ReplaceAll(strings.TrimSpace(reference), "/", "-")
	if l.RefPrefix == "" {
		return ref
	}
	return l.RefPrefix + "-" + ref
}
