package docx

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackExtract_RoundTrip(t *testing.T) {
	dir := threadedPackage(t)
	dst := filepath.Join(t.TempDir(), "out.docx")

	require.NoError(t, Pack(dir, dst))

	zr, err := zip.OpenReader(dst)
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)
	assert.Equal(t, "[Content_Types].xml", zr.File[0].Name)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	require.NoError(t, zr.Close())
	assert.Contains(t, names, "word/_rels/document.xml.rels")

	out := t.TempDir()
	require.NoError(t, Extract(dst, out))
	for _, name := range []string{"word/comments.xml", "word/document.xml", "[Content_Types].xml"} {
		assert.Equal(t, readPart(t, dir, name), readPart(t, out, name), name)
	}
}

func TestExtract_RejectsEscapingEntries(t *testing.T) {
	src := filepath.Join(t.TempDir(), "evil.docx")
	f, err := os.Create(src)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("../evil.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	err = Extract(src, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid entry")
}

func TestExtract_NotAZip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "plain.docx")
	require.NoError(t, os.WriteFile(src, []byte("not a zip"), 0o644))

	assert.Error(t, Extract(src, t.TempDir()))
}
