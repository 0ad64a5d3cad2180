package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/config"
)

func testWriter(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	dir := t.TempDir()
	paths := &config.Paths{
		DataDir:    filepath.Join(dir, "data"),
		ReportsDir: filepath.Join(dir, "reports"),
		LogsDir:    filepath.Join(dir, "logs"),
	}
	return NewCSVWriter(paths), dir
}

func readReport(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "reports", name))
	require.NoError(t, err)
	return string(data)
}

func TestWriteSimpleCSV(t *testing.T) {
	w, dir := testWriter(t)

	err := w.WriteSimpleCSV("out.csv",
		[]string{"state", "enrollment"},
		[][]string{{"TX", "1000"}, {"FL", "2500"}})
	require.NoError(t, err)

	content := readReport(t, dir, "out.csv")
	assert.True(t, strings.HasPrefix(content, "\xEF\xBB\xBF"), "BOM expected")
	assert.Contains(t, content, "state,enrollment")
	assert.Contains(t, content, "TX,1000")
	assert.Contains(t, content, "FL,2500")
}

func TestWriteCSVCreatesNestedDirectories(t *testing.T) {
	w, dir := testWriter(t)

	err := w.WriteCSV(filepath.Join("sub", "deep", "out.csv"), WriteOptions{
		Headers: []string{"a"},
		Records: [][]string{{"1"}},
	})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "reports", "sub", "deep", "out.csv"))
	assert.NoError(t, statErr)
}

func TestAppendToCSV(t *testing.T) {
	w, dir := testWriter(t)

	require.NoError(t, w.WriteSimpleCSV("out.csv", []string{"a"}, [][]string{{"1"}}))
	require.NoError(t, w.AppendToCSV("out.csv", [][]string{{"2"}}))

	content := readReport(t, dir, "out.csv")
	assert.Contains(t, content, "1\n2")
	// headers written once
	assert.Equal(t, 1, strings.Count(content, "a\n"))
}

func TestWriteCSVAbsolutePathBypassesReportsDir(t *testing.T) {
	w, _ := testWriter(t)
	target := filepath.Join(t.TempDir(), "abs.csv")

	err := w.WriteCSV(target, WriteOptions{Headers: []string{"x"}, Records: [][]string{{"1"}}})
	require.NoError(t, err)

	_, statErr := os.Stat(target)
	assert.NoError(t, statErr)
}

func TestStreamWriter(t *testing.T) {
	w, dir := testWriter(t)

	stream, err := w.CreateStreamWriter("stream.csv", []string{"key", "value"})
	require.NoError(t, err)

	require.NoError(t, stream.WriteRecord([]string{"a", "1"}))
	require.NoError(t, stream.WriteRecord([]string{"b", "2"}))
	require.NoError(t, stream.Close())

	content := readReport(t, dir, "stream.csv")
	assert.Contains(t, content, "key,value")
	assert.Contains(t, content, "b,2")
}
