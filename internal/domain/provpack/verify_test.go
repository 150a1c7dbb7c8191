package provpack

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewriteZip copies an archive, letting edit replace or drop entries.
func rewriteZip(t *testing.T, data []byte, edit func(name string, content []byte) ([]byte, bool)) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		content, keep := edit(f.Name, content)
		if !keep {
			continue
		}
		w, err := zw.Create(f.Name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func builtArchive(t *testing.T) *Archive {
	t.Helper()
	pages := map[int]PageBlob{1: {Data: jpegPage}, 2: {Data: pngPage}, 3: {}}
	a, err := Build(meyerCase(t), pages, SummaryBlob{Data: []byte("summary")}, Options{Now: fixedNow})
	require.NoError(t, err)
	return a
}

func TestVerify(t *testing.T) {
	a := builtArchive(t)

	t.Run("intact", func(t *testing.T) {
		m, err := Verify(a.Data)
		require.NoError(t, err)
		assert.Equal(t, a.Manifest, *m)
	})

	t.Run("tampered entry", func(t *testing.T) {
		tampered := rewriteZip(t, a.Data, func(name string, content []byte) ([]byte, bool) {
			if name == "pages/0001.jpg" {
				return append(content, 'x'), true
			}
			return content, true
		})
		_, err := Verify(tampered)
		assert.True(t, errors.Is(err, ErrIntegrity))
	})

	t.Run("tampered case", func(t *testing.T) {
		tampered := rewriteZip(t, a.Data, func(name string, content []byte) ([]byte, bool) {
			if name == CasePath {
				return bytes.Replace(content, []byte("Pretoria"), []byte("Pretoria!"), 1), true
			}
			return content, true
		})
		_, err := Verify(tampered)
		assert.True(t, errors.Is(err, ErrIntegrity))
	})

	t.Run("missing entry", func(t *testing.T) {
		dropped := rewriteZip(t, a.Data, func(name string, content []byte) ([]byte, bool) {
			return content, name != "pages/0003.txt"
		})
		_, err := Verify(dropped)
		assert.True(t, errors.Is(err, ErrIntegrity))
	})

	t.Run("unlisted entry", func(t *testing.T) {
		extra := appendEntry(t, a.Data, "notes.txt", []byte("hello"))
		_, err := Verify(extra)
		assert.True(t, errors.Is(err, ErrIntegrity))
	})

	t.Run("missing manifest", func(t *testing.T) {
		noManifest := rewriteZip(t, a.Data, func(name string, content []byte) ([]byte, bool) {
			return content, name != ManifestPath
		})
		_, err := Verify(noManifest)
		assert.True(t, errors.Is(err, ErrIntegrity))
	})

	t.Run("duplicate case entry", func(t *testing.T) {
		forged := prependEntry(t, a.Data, CasePath, []byte(`{"caseId":"FORGED"}`))
		_, err := Verify(forged)
		assert.True(t, errors.Is(err, ErrIntegrity))

		_, err = ReadCase(forged)
		assert.True(t, errors.Is(err, ErrIntegrity))
	})

	t.Run("placeholder not listed as degraded", func(t *testing.T) {
		edited := editManifest(t, a.Data, func(m *Manifest) {
			m.Degraded = m.Degraded[:0]
		})
		_, err := Verify(edited)
		assert.True(t, errors.Is(err, ErrIntegrity))
	})

	t.Run("degraded entry not a placeholder", func(t *testing.T) {
		edited := editManifest(t, a.Data, func(m *Manifest) {
			m.Degraded = append(m.Degraded, DegradedEntry{Path: "pages/0001.jpg", Reason: "made up"})
		})
		_, err := Verify(edited)
		assert.True(t, errors.Is(err, ErrIntegrity))
	})

	t.Run("case marked placeholder", func(t *testing.T) {
		edited := editManifest(t, a.Data, func(m *Manifest) {
			m.Files[CasePath] = PlaceholderMarker
			m.Degraded = append(m.Degraded, DegradedEntry{Path: CasePath, Reason: "made up"})
		})
		_, err := Verify(edited)
		assert.True(t, errors.Is(err, ErrIntegrity))
	})

	t.Run("not a zip", func(t *testing.T) {
		_, err := Verify([]byte("definitely not a zip"))
		assert.Error(t, err)
	})
}

func TestVerifyCase(t *testing.T) {
	a := builtArchive(t)

	m, caseJSON, err := VerifyCase(a.Data)
	require.NoError(t, err)
	assert.Equal(t, a.Manifest, *m)
	assert.Equal(t, m.Files[CasePath], HashBytes(caseJSON))

	read, err := ReadCase(a.Data)
	require.NoError(t, err)
	assert.Equal(t, read, caseJSON)
}

// prependEntry writes an extra entry ahead of every entry of an archive.
func prependEntry(t *testing.T, data []byte, name string, content []byte) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	for _, f := range zr.File {
		require.NoError(t, zw.Copy(f))
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func editManifest(t *testing.T, data []byte, edit func(m *Manifest)) []byte {
	t.Helper()
	return rewriteZip(t, data, func(name string, content []byte) ([]byte, bool) {
		if name != ManifestPath {
			return content, true
		}
		var m Manifest
		require.NoError(t, json.Unmarshal(content, &m))
		edit(&m)
		out, err := json.Marshal(&m)
		require.NoError(t, err)
		return out, true
	})
}

func appendEntry(t *testing.T, data []byte, name string, content []byte) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		require.NoError(t, zw.Copy(f))
	}
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
