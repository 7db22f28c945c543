package megatools

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/szmania/mega-manager/internal/model"
)

// A long-format megals line looks like:
//
//	2FFSiaKZ    0        588632 2013-04-11 19:49:23 /Root/pics/photo.jpg
//	3RsT2SxQ    1             - 2013-01-22 14:31:17 /Root/pics
//
// handle, node type, size (dash for directories), timestamp, then the path,
// which may itself contain spaces.
var listingLine = regexp.MustCompile(`^\S+\s+(\d)\s+(\d+|-)\s+\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} (/.*)$`)

// parseListingLine converts one megals output line to a typed entry. The
// second return is false for headers, special nodes and anything malformed.
func parseListingLine(line string) (model.RemoteFileEntry, bool) {
	m := listingLine.FindStringSubmatch(line)
	if m == nil {
		return model.RemoteFileEntry{}, false
	}

	var kind model.Kind
	switch m[1] {
	case "0":
		kind = model.KindFile
	case "1":
		kind = model.KindDirectory
	default:
		// Root, inbox and trash pseudo-nodes are of no interest.
		return model.RemoteFileEntry{}, false
	}

	var size int64
	if m[2] != "-" {
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return model.RemoteFileEntry{}, false
		}
		size = n
	}

	entry := model.RemoteFileEntry{
		Path: m[3],
		Kind: kind,
		Size: size,
	}
	if kind == model.KindFile {
		entry.Extension = strings.ToLower(path.Ext(entry.Path))
	}
	return entry, true
}
