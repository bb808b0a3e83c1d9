package mcptools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// binaryExtensions marks files rejected before any hashing occurs: hashing
// arbitrary byte sequences line-by-line is meaningless and the tagged output
// would be garbage.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tiff": true, ".pdf": true,
	".zip": true, ".tar": true, ".gz": true, ".tgz": true, ".bz2": true,
	".xz": true, ".7z": true, ".rar": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".o": true, ".a": true, ".class": true, ".jar": true, ".war": true,
	".pyc": true, ".wasm": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".wav": true, ".ogg": true, ".flac": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true, ".eot": true,
	".db": true, ".sqlite": true, ".sqlite3": true,
}

// checkFileGate rejects binary files and files over the size ceiling before
// any content is read or hashed.
func checkFileGate(absPath string, maxBytes int64) error {
	if ext := strings.ToLower(filepath.Ext(absPath)); binaryExtensions[ext] {
		return fmt.Errorf("cannot read %s: %s files are binary", filepath.Base(absPath), ext)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", filepath.Base(absPath))
	}
	if info.Size() > maxBytes {
		return fmt.Errorf("file is too large: %d bytes (limit %d)", info.Size(), maxBytes)
	}
	return nil
}
