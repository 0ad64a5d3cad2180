package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/pkg/contracts/domain"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		name     string
		category domain.Category
		ok       bool
	}{
		{"2024 OEP State-Level Public Use File.xlsx", domain.CategoryStateLevel, true},
		{"2023 oep state level puf.csv", domain.CategoryStateLevel, true},
		{"County-Level PUF 2024.csv", domain.CategoryCountyLevel, true},
		{"county level public use file.xlsx", domain.CategoryCountyLevel, true},
		{"Plan Design PUF 2024.xlsx", domain.CategoryPlanDesign, true},
		{"plan-design-2022.csv", domain.CategoryPlanDesign, true},
		{"notes.txt", "", false},
		{"enrollment summary.csv", "", false},
	}

	for _, tt := range tests {
		category, ok := DetectCategory(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.Equal(t, tt.category, category, tt.name)
		}
	}
}

func TestFindPUFsSkipsNonData(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "State-Level PUF.csv")
	touch(t, dir, "County-Level PUF.xlsx")
	touch(t, dir, "~$County-Level PUF.xlsx") // Excel lock file
	touch(t, dir, "Plan Design PUF.xls")     // legacy format, unreadable
	touch(t, dir, "State-Level notes.txt")
	touch(t, dir, "random.csv")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Plan Design PUF.csv"), 0755))

	pufs, err := NewDiscovery(dir).FindPUFs()
	require.NoError(t, err)
	require.Len(t, pufs, 2)
	assert.Equal(t, domain.CategoryCountyLevel, pufs[0].Category)
	assert.Equal(t, domain.CategoryStateLevel, pufs[1].Category)
}

func TestFindPUFsMissingDirectory(t *testing.T) {
	_, err := NewDiscovery("/nonexistent/data").FindPUFs()
	assert.Error(t, err)
}

func TestSelectBundleFilesPrefersCSV(t *testing.T) {
	dir := t.TempDir()
	excel := touch(t, dir, "State-Level PUF.xlsx")
	touch(t, dir, "State-Level PUF.csv")
	touch(t, dir, "Plan Design PUF.xlsx")

	// make the workbook newer; the CSV must still win on format
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(excel, future, future))

	selected, err := NewDiscovery(dir).SelectBundleFiles()
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "State-Level PUF.csv", selected[domain.CategoryStateLevel].Name)
	assert.Equal(t, "Plan Design PUF.xlsx", selected[domain.CategoryPlanDesign].Name)
}

func TestSelectBundleFilesNewestWinsWithinFormat(t *testing.T) {
	dir := t.TempDir()
	old := touch(t, dir, "2023 State-Level PUF.csv")
	touch(t, dir, "2024 State-Level PUF.csv")

	past := time.Now().Add(-24 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	selected, err := NewDiscovery(dir).SelectBundleFiles()
	require.NoError(t, err)
	assert.Equal(t, "2024 State-Level PUF.csv", selected[domain.CategoryStateLevel].Name)
}

func TestFindByPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "report_2023.csv")
	touch(t, dir, "report_2024.csv")
	touch(t, dir, "other.csv")

	found, err := NewDiscovery(dir).FindByPattern("report_*.csv")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestGetLatestFile(t *testing.T) {
	now := time.Now()
	files := []FileInfo{
		{Name: "a", ModTime: now.Add(-time.Hour)},
		{Name: "b", ModTime: now},
		{Name: "c", ModTime: now.Add(-time.Minute)},
	}

	latest, ok := GetLatestFile(files)
	require.True(t, ok)
	assert.Equal(t, "b", latest.Name)

	_, ok = GetLatestFile(nil)
	assert.False(t, ok)
}
