package frames

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Options controls how a frame directory is read.
type Options struct {
	Extensions []string
	Interval   time.Duration
	Manifest   string
}

// ManifestEntry is one record of the optional timing manifest.
type ManifestEntry struct {
	File    string `json:"file"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
}

// LoadDir reads every image in dir into an ordered Frame sequence.
func LoadDir(dir string, opts Options) ([]Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	manifest, err := readManifest(dir, opts.Manifest)
	if err != nil {
		return nil, err
	}
	if manifest != nil {
		return loadFromManifest(dir, manifest)
	}

	if opts.Interval <= 0 {
		return nil, errors.New("frame interval must be positive")
	}
	exts := normalizeExtensions(opts.Extensions)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := exts[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)

	out := make([]Frame, 0, len(names))
	for i, name := range names {
		img, err := decodeImage(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		start := time.Duration(i) * opts.Interval
		out = append(out, Frame{Image: img, Start: start, End: start + opts.Interval, FileName: name})
	}
	return out, nil
}

func readManifest(dir, name string) ([]ManifestEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read frame manifest: %w", err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse frame manifest: %w", err)
	}
	for _, e := range entries {
		if strings.TrimSpace(e.File) == "" {
			return nil, errors.New("frame manifest: entry without file")
		}
		if e.EndMS < e.StartMS {
			return nil, fmt.Errorf("frame manifest: %s ends before it starts", e.File)
		}
	}
	slices.SortStableFunc(entries, func(a, b ManifestEntry) int {
		switch {
		case a.StartMS < b.StartMS:
			return -1
		case a.StartMS > b.StartMS:
			return 1
		default:
			return 0
		}
	})
	return entries, nil
}

func loadFromManifest(dir string, entries []ManifestEntry) ([]Frame, error) {
	out := make([]Frame, 0, len(entries))
	for _, e := range entries {
		img, err := decodeImage(filepath.Join(dir, e.File))
		if err != nil {
			return nil, err
		}
		out = append(out, Frame{
			Image:    img,
			Start:    time.Duration(e.StartMS) * time.Millisecond,
			End:      time.Duration(e.EndMS) * time.Millisecond,
			FileName: e.File,
		})
	}
	return out, nil
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{".png", ".jpg", ".jpeg"}
	}
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}
