package input

import (
	"io/fs"
	"path/filepath"
	"regexp"
)

// NativeComponent is satisfied by any parsed manifest that can name a
// main executable to ELF-inspect for architecture (AppInfo, ServiceInfo).
type NativeComponent interface {
	NativeMain() (path string, native bool)
}

// ComponentInfo pairs a parsed manifest with the directory it came
// from and the exclude regex that applies to its subtree.
type ComponentInfo[T NativeComponent] struct {
	Path    string
	Info    T
	Exclude *regexp.Regexp
}

// ValidationInfo is what Validate computes for one component: its
// inferred architecture (nil if not native) and its on-disk size,
// honoring the component's exclude regex.
type ValidationInfo struct {
	Arch *Arch
	Size int64
}

// Validate computes size and, for native components, inferred
// architecture.
func (c ComponentInfo[T]) Validate() (ValidationInfo, error) {
	size, err := DirSize(c.Path, c.Exclude)
	if err != nil {
		return ValidationInfo{}, err
	}

	var arch *Arch
	if mainPath, native := c.Info.NativeMain(); native {
		a, err := InferArch(filepath.Join(c.Path, mainPath))
		if err != nil {
			return ValidationInfo{}, err
		}
		arch = &a
	}

	return ValidationInfo{Arch: arch, Size: size}, nil
}

// DirSize sums the size of every file under root, skipping any entry
// (and, for directories, its entire subtree) whose root-relative
// POSIX path matches exclude.
func DirSize(root string, exclude *regexp.Regexp) (int64, error) {
	var size int64
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if exclude != nil && exclude.MatchString(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}
