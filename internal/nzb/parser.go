package nzb

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/javi11/nzbparser"
	"github.com/spf13/afero"
)

// ErrNoSegments is returned when a manifest parses cleanly but names no
// segment IDs. The checker is never invoked with an empty set.
var ErrNoSegments = errors.New("nzb contains no segment ids")

// ParseFile reads the NZB at path and returns its unique article message IDs.
func ParseFile(fsys afero.Fs, path string) ([]string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open nzb: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse extracts every segment message ID from an NZB document, collapsing
// duplicates. The returned slice is sorted so callers see a stable set; the
// checker itself does not depend on order.
func Parse(r io.Reader) ([]string, error) {
	parsed, err := nzbparser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse nzb: %w", err)
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, file := range parsed.Files {
		for _, segment := range file.Segments {
			id := strings.TrimSpace(segment.ID)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil, ErrNoSegments
	}

	sort.Strings(ids)
	return ids, nil
}
