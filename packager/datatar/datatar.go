// Package datatar builds the IPK's data.tar.gz member: the installed
// filesystem tree for the app and any service components, plus the
// rendered packageinfo.json, with directories synthesized at most once
// per archive.
//
// Grounded on original_source/ares-package/src/packaging/data.rs's
// mkdirp-then-append_dir_all structure, generalized so every
// intermediate directory (not just the component roots) goes through
// the same ensure-once bookkeeping spec.md's "Design Notes" calls for,
// rather than the original's two separate mkdirp call sites.
package datatar

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// Component is one installed-tree source: a local directory copied
// into the archive under ArchiveDir, with an optional exclude filter.
type Component struct {
	SourceDir  string
	ArchiveDir string
	Exclude    *regexp.Regexp
}

// ExtraFile is a single synthesized file (packageinfo.json) placed
// directly into the archive rather than copied from a Component.
type ExtraFile struct {
	ArchivePath string
	Data        []byte
	Mode        int64
}

// BuildOptions configures Build.
type BuildOptions struct {
	Components []Component
	ExtraFiles []ExtraFile
	Mtime      time.Time
}

// dirMode is the mode spec.md requires for every synthesized
// directory entry — not a permission mask, the literal tar header
// value.
const dirMode = 0100775

// Build walks every component depth-first in sorted order and writes
// a gzipped tar containing the merged installed tree plus ExtraFiles.
func Build(opts BuildOptions) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	written := map[string]struct{}{}
	ensureDir := func(dir string) error {
		return ensureDirEntries(tw, written, dir, opts.Mtime)
	}

	for _, c := range opts.Components {
		if c.ArchiveDir != "" {
			if err := ensureDir(c.ArchiveDir); err != nil {
				return nil, err
			}
		}
		if err := walkComponent(tw, c, ensureDir); err != nil {
			return nil, err
		}
	}

	for _, f := range opts.ExtraFiles {
		dir := path.Dir(f.ArchivePath)
		if dir != "." && dir != "/" {
			if err := ensureDir(dir); err != nil {
				return nil, err
			}
		}
		header := &tar.Header{
			Name:     f.ArchivePath,
			Typeflag: tar.TypeReg,
			Mode:     f.Mode,
			Size:     int64(len(f.Data)),
			ModTime:  opts.Mtime,
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, err
		}
		if _, err := tw.Write(f.Data); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ensureDirEntries emits dir and every missing ancestor, in
// root-to-leaf order, consulting written so no path is emitted twice
// across the whole archive.
func ensureDirEntries(tw *tar.Writer, written map[string]struct{}, dir string, mtime time.Time) error {
	dir = path.Clean(dir)
	if dir == "." || dir == "/" {
		return nil
	}

	segments := splitSlash(dir)
	var built string
	for _, seg := range segments {
		if built == "" {
			built = seg
		} else {
			built = built + "/" + seg
		}
		if _, ok := written[built]; ok {
			continue
		}
		written[built] = struct{}{}

		header := &tar.Header{
			Name:     built + "/",
			Typeflag: tar.TypeDir,
			Mode:     dirMode,
			Uid:      0,
			Gid:      5000,
			Size:     0,
			ModTime:  mtime,
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
	}
	return nil
}

// splitSlash splits a POSIX-style archive path into its segments;
// path.Clean has already removed empty/"." segments.
func splitSlash(p string) []string {
	var out []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			if i > start {
				out = append(out, p[start:i])
			}
			start = i + 1
		}
	}
	if start < len(p) {
		out = append(out, p[start:])
	}
	return out
}

// walkComponent copies c.SourceDir's tree into the archive under
// c.ArchiveDir, depth-first, pre-order, sorted by name.
func walkComponent(tw *tar.Writer, c Component, ensureDir func(string) error) error {
	return walkDir(tw, c, "", ensureDir)
}

func walkDir(tw *tar.Writer, c Component, relPath string, ensureDir func(string) error) error {
	localDir := filepath.Join(c.SourceDir, filepath.FromSlash(relPath))
	entries, err := os.ReadDir(localDir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		entryRel := entry.Name()
		if relPath != "" {
			entryRel = relPath + "/" + entry.Name()
		}
		if c.Exclude != nil && c.Exclude.MatchString(entryRel) {
			continue
		}

		localPath := filepath.Join(c.SourceDir, filepath.FromSlash(entryRel))
		archivePath := c.ArchiveDir + "/" + entryRel

		info, err := entry.Info()
		if err != nil {
			return err
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(localPath)
			if err != nil {
				return err
			}
			if err := ensureDir(path.Dir(archivePath)); err != nil {
				return err
			}
			header := &tar.Header{
				Name:     archivePath,
				Typeflag: tar.TypeSymlink,
				Linkname: target,
				Mode:     0100777,
				Uid:      0,
				Gid:      5000,
				ModTime:  info.ModTime(),
			}
			if err := tw.WriteHeader(header); err != nil {
				return err
			}

		case info.IsDir():
			if err := ensureDir(archivePath); err != nil {
				return err
			}
			if err := walkDir(tw, c, entryRel, ensureDir); err != nil {
				return err
			}

		default:
			if err := ensureDir(path.Dir(archivePath)); err != nil {
				return err
			}
			f, err := os.Open(localPath)
			if err != nil {
				return err
			}
			header := &tar.Header{
				Name:     archivePath,
				Typeflag: tar.TypeReg,
				Mode:     int64(info.Mode().Perm()) | 0100000,
				Size:     info.Size(),
				Uid:      0,
				Gid:      5000,
				ModTime:  info.ModTime(),
			}
			if err := tw.WriteHeader(header); err != nil {
				f.Close()
				return err
			}
			if _, err := io.Copy(tw, f); err != nil {
				f.Close()
				return err
			}
			f.Close()
		}
	}
	return nil
}
