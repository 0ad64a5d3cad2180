package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"marketpulse/pkg/contracts/domain"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// PUF is a discovered public use file together with its detected category.
type PUF struct {
	FileInfo
	Category domain.Category
}

// Discovery provides file discovery over one data directory.
type Discovery struct {
	dataDir string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(dataDir string) *Discovery {
	return &Discovery{dataDir: dataDir}
}

// categoryPatterns maps folded file-name fragments to categories, covering
// the CMS naming conventions across vintages ("2024 OEP State-Level Public
// Use File", "State Level PUF", ...).
var categoryPatterns = []struct {
	fragment string
	category domain.Category
}{
	{"state level", domain.CategoryStateLevel},
	{"state-level", domain.CategoryStateLevel},
	{"county level", domain.CategoryCountyLevel},
	{"county-level", domain.CategoryCountyLevel},
	{"plan design", domain.CategoryPlanDesign},
	{"plan-design", domain.CategoryPlanDesign},
}

// DetectCategory classifies a file name into a PUF category.
func DetectCategory(name string) (domain.Category, bool) {
	folded := strings.ToLower(name)
	for _, p := range categoryPatterns {
		if strings.Contains(folded, p.fragment) {
			return p.category, true
		}
	}
	return "", false
}

// dataExtensions are the file types the loader can read. Legacy OLE-format
// .xls workbooks are not among them.
var dataExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// FindPUFs scans the data directory and returns every classifiable data
// file. Excel lock files ("~$...") and files of other types are skipped.
// Results are ordered by name for deterministic selection.
func (d *Discovery) FindPUFs() ([]PUF, error) {
	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", d.dataDir, err)
	}

	var pufs []PUF
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, "~$") {
			continue // Excel lock file
		}
		if !dataExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		category, ok := DetectCategory(name)
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		pufs = append(pufs, PUF{
			FileInfo: FileInfo{
				Path:    filepath.Join(d.dataDir, name),
				Name:    name,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			},
			Category: category,
		})
	}

	sort.Slice(pufs, func(i, j int) bool {
		return pufs[i].Name < pufs[j].Name
	})

	return pufs, nil
}

// SelectBundleFiles picks one file per category for bundle loading. When a
// category has both a CSV and a workbook, the CSV wins (it is the converted
// form and loads without sheet scanning); among equal extensions the newest
// modification time wins.
func (d *Discovery) SelectBundleFiles() (map[domain.Category]PUF, error) {
	pufs, err := d.FindPUFs()
	if err != nil {
		return nil, err
	}

	selected := make(map[domain.Category]PUF)
	for _, puf := range pufs {
		current, ok := selected[puf.Category]
		if !ok || preferOver(puf, current) {
			selected[puf.Category] = puf
		}
	}
	return selected, nil
}

// preferOver reports whether candidate should replace current.
func preferOver(candidate, current PUF) bool {
	candCSV := strings.EqualFold(filepath.Ext(candidate.Name), ".csv")
	currCSV := strings.EqualFold(filepath.Ext(current.Name), ".csv")
	if candCSV != currCSV {
		return candCSV
	}
	return candidate.ModTime.After(current.ModTime)
}

// FindByPattern finds data-directory files matching a glob pattern.
func (d *Discovery) FindByPattern(pattern string) ([]FileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(d.dataDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var found []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		found = append(found, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return found, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}
