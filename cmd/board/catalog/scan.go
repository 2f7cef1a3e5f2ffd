package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
)

var mediaTypes = map[tag.FileType]string{
	tag.MP3:  "audio/mpeg",
	tag.FLAC: "audio/flac",
	tag.OGG:  "audio/ogg",
	tag.M4A:  "audio/mp4",
	tag.M4B:  "audio/mp4",
	tag.ALAC: "audio/mp4",
}

// Scan walks root and returns every regular file as a RawFile, in lexical
// order. The media type is sniffed from the file header; files that cannot
// be identified keep an empty media type and are left to the extension rule.
func Scan(root string) ([]RawFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", root, err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", absRoot)
	}

	var files []RawFile
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtrees are skipped, not fatal
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			rel = d.Name()
		}
		files = append(files, RawFile{
			Name:      d.Name(),
			RelPath:   filepath.ToSlash(rel),
			MediaType: sniffMediaType(path),
			Path:      path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func sniffMediaType(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	_, fileType, err := tag.Identify(f)
	if err != nil {
		return ""
	}
	return mediaTypes[fileType]
}
