package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vdt/internal/domain"
)

// Scanner scans a build output directory for app and test apks
type Scanner struct {
	skipDirs map[string]bool
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(skipDirs []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap}
}

// Scan finds all apks under root and pairs every "<name>-androidTest.apk" with
// "<name>.apk". Apps without tests are not returned; a test apk without its app
// is an error.
func (s *Scanner) Scan(root string) ([]domain.Apk, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("apk path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("apk path is not a directory: %s", root)
	}

	apps := make(map[string]string) // base name without .apk -> path
	var tests []string

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			// Skip hidden directories (starting with .)
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			if s.skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		switch {
		case domain.IsTestArtifact(name):
			tests = append(tests, path)
		case strings.HasSuffix(name, ".apk"):
			apps[strings.TrimSuffix(name, ".apk")] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byApp := make(map[string][]string)
	for _, test := range tests {
		base := strings.TrimSuffix(filepath.Base(test), domain.TestApkSuffix)
		base = strings.TrimSuffix(base, "-")
		appPath, ok := apps[base]
		if !ok {
			return nil, &domain.ConfigurationError{Subject: test, Reason: fmt.Sprintf("no app apk %s.apk found for test apk", base)}
		}
		byApp[appPath] = append(byApp[appPath], test)
	}

	appPaths := make([]string, 0, len(byApp))
	for appPath := range byApp {
		appPaths = append(appPaths, appPath)
	}
	sort.Strings(appPaths)

	result := make([]domain.Apk, 0, len(appPaths))
	for _, appPath := range appPaths {
		testPaths := byApp[appPath]
		sort.Strings(testPaths)
		result = append(result, domain.NewApp(appPath, testPaths...))
	}
	return result, nil
}
