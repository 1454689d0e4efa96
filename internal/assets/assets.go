// Package assets enumerates candidate media files from the configured pools.
package assets

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/keagan/reelforge/pkg/util"
)

// Kind classifies a media file
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// Known extensions per kind, lower-case with leading dot.
var (
	VideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}
	AudioExtensions = []string{".mp3", ".wav", ".aac", ".m4a"}
)

// Ref identifies one candidate media file
type Ref struct {
	Path           string
	Kind           Kind
	NativeDuration float64
	HasAudio       bool
}

// Name returns the file name of the asset
func (r Ref) Name() string {
	return filepath.Base(r.Path)
}

// KindOf classifies a path by its extension
func KindOf(path string) Kind {
	ext := util.GetExtension(path)
	switch {
	case contains(ImageExtensions, ext):
		return KindImage
	case contains(AudioExtensions, ext):
		return KindAudio
	default:
		return KindVideo
	}
}

// IsImage reports whether path has an image extension
func IsImage(path string) bool {
	return contains(ImageExtensions, util.GetExtension(path))
}

// Scan lists files under folders whose extension is in extensions.
// Missing folders are skipped. Sub-directories are not descended into.
// Results keep folder order and, within a folder, file name order.
func Scan(folders []string, extensions []string) []Ref {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	var refs []Ref
	for _, folder := range folders {
		if folder == "" {
			continue
		}
		entries, err := os.ReadDir(folder)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(folder, entry.Name())
			if !exts[util.GetExtension(path)] {
				continue
			}
			refs = append(refs, Ref{Path: path, Kind: KindOf(path)})
		}
	}

	return refs
}

// ScanFolder is Scan over a single folder
func ScanFolder(folder string, extensions []string) []Ref {
	return Scan([]string{folder}, extensions)
}

// Subfolders returns the names of the directories directly under root
func Subfolders(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Paths returns the paths of refs
func Paths(refs []Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Path
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
