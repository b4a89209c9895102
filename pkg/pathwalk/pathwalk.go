// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pathwalk produces the ordered directories searched for configuration files.
package pathwalk

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// ConfigDir is the conventional subdirectory searched at every level.
const ConfigDir = "config"

// WalkToRoot returns start followed by each of its ancestors, ending
// with the filesystem root. If start is an existing file, the walk
// begins at its parent directory. If start cannot be made absolute,
// the walk only contains the filesystem root.
func WalkToRoot(fs afero.Fs, start string) []string {
	dir := startDir(fs, start)

	var dirs []string
	for {
		dirs = append(dirs, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			return dirs
		}
		dir = parent
	}
}

func startDir(fs afero.Fs, start string) string {
	abs, err := filepath.Abs(start)
	if err != nil || start == "" {
		return rootOf(abs)
	}
	isDir, err := afero.IsDir(fs, abs)
	if err == nil && !isDir {
		return filepath.Dir(abs)
	}
	return abs
}

func rootOf(path string) string {
	return filepath.VolumeName(path) + string(filepath.Separator)
}

// Level is one directory of a walk together with the directories
// searched for files at that level.
type Level struct {
	Dir        string
	Candidates []string
}

// Levels walks from start to the root and expands every directory
// into itself followed by each of the given subdirectories.
func Levels(fs afero.Fs, start string, subdirs ...string) []Level {
	dirs := WalkToRoot(fs, start)
	levels := make([]Level, len(dirs))
	for i, dir := range dirs {
		candidates := make([]string, 0, len(subdirs)+1)
		candidates = append(candidates, dir)
		for _, sub := range subdirs {
			candidates = append(candidates, filepath.Join(dir, sub))
		}
		levels[i] = Level{
			Dir:        dir,
			Candidates: candidates,
		}
	}
	return levels
}
