// Package pagestore provides PageSource implementations for scanned page
// images: a local directory tree, a Google Cloud Storage bucket, and an
// in-memory cache in front of either.
//
// Both stores lay pages out as <packet>/<NNNN>.<ext>, where <packet> is the
// sanitized packet id and NNNN the zero-padded page number.
package pagestore

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ersonp/provpack/internal/infrastructure/config"
)

// imageExts are the page file extensions looked up, in order.
var imageExts = []string{"jpg", "jpeg", "png", "tif", "tiff", "webp"}

var rePageFile = regexp.MustCompile(`^(\d{4})\.([A-Za-z]+)$`)

func packetDir(packetID string) string {
	return config.SanitizePacketID(packetID)
}

func pageBase(page int) string {
	return fmt.Sprintf("%04d", page)
}

// parsePageFile returns the page number of a file name such as "0003.jpg".
func parsePageFile(name string) (int, bool) {
	m := rePageFile.FindStringSubmatch(name)
	if m == nil || !isImageExt(m[2]) {
		return 0, false
	}
	page, err := strconv.Atoi(m[1])
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

func isImageExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range imageExts {
		if e == ext {
			return true
		}
	}
	return false
}

// collectPages parses file names into a sorted, distinct page list.
func collectPages(names []string) []int {
	seen := make(map[int]bool)
	pages := []int{}
	for _, name := range names {
		page, ok := parsePageFile(name)
		if !ok || seen[page] {
			continue
		}
		seen[page] = true
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}
