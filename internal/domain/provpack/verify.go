package provpack

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrIntegrity is returned by Verify when an archive does not match its manifest.
var ErrIntegrity = errors.New("archive integrity check failed")

// Verify re-reads an archive and checks every entry against manifest.json:
// entry names must be unique, hashed entries must match their digest,
// placeholder entries must exist and be listed as degraded, and no entry may
// be unlisted. It returns the decoded manifest.
func Verify(data []byte) (*Manifest, error) {
	manifest, _, err := VerifyCase(data)
	return manifest, err
}

// VerifyCase is Verify that also returns the case.json bytes whose digest
// was checked.
func VerifyCase(data []byte) (*Manifest, []byte, error) {
	files, err := openEntries(data)
	if err != nil {
		return nil, nil, err
	}

	mf, ok := files[ManifestPath]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s missing", ErrIntegrity, ManifestPath)
	}
	raw, err := readEntry(mf)
	if err != nil {
		return nil, nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding %s: %v", ErrIntegrity, ManifestPath, err)
	}
	if _, ok := manifest.Files[CasePath]; !ok || manifest.IsPlaceholder(CasePath) {
		return nil, nil, fmt.Errorf("%w: %s not hashed in manifest", ErrIntegrity, CasePath)
	}
	if err := checkDegraded(&manifest); err != nil {
		return nil, nil, err
	}

	var caseJSON []byte
	for _, path := range manifest.Paths() {
		f, ok := files[path]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s listed but missing", ErrIntegrity, path)
		}
		if manifest.IsPlaceholder(path) {
			continue
		}
		content, err := readEntry(f)
		if err != nil {
			return nil, nil, err
		}
		if got := HashBytes(content); got != manifest.Files[path] {
			return nil, nil, fmt.Errorf("%w: %s hash %s, manifest says %s", ErrIntegrity, path, got, manifest.Files[path])
		}
		if path == CasePath {
			caseJSON = content
		}
	}

	for name := range files {
		if name == ManifestPath {
			continue
		}
		if _, listed := manifest.Files[name]; !listed {
			return nil, nil, fmt.Errorf("%w: %s not listed in manifest", ErrIntegrity, name)
		}
	}

	return &manifest, caseJSON, nil
}

// checkDegraded requires the degraded list and the placeholder markers to
// name exactly the same entries.
func checkDegraded(m *Manifest) error {
	degraded := make(map[string]bool, len(m.Degraded))
	for _, d := range m.Degraded {
		if degraded[d.Path] {
			return fmt.Errorf("%w: %s degraded twice", ErrIntegrity, d.Path)
		}
		if !m.IsPlaceholder(d.Path) {
			return fmt.Errorf("%w: %s degraded but not a placeholder", ErrIntegrity, d.Path)
		}
		degraded[d.Path] = true
	}
	for _, path := range m.Paths() {
		if m.IsPlaceholder(path) && !degraded[path] {
			return fmt.Errorf("%w: placeholder %s not listed as degraded", ErrIntegrity, path)
		}
	}
	return nil
}

// openEntries indexes an archive by entry name. A repeated name is an
// integrity failure.
func openEntries(data []byte) (map[string]*zip.File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if _, dup := files[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate entry %s", ErrIntegrity, f.Name)
		}
		files[f.Name] = f
	}
	return files, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}

// ReadCase returns the case.json bytes of an archive without checking
// digests. Archives with repeated entry names are rejected.
func ReadCase(data []byte) ([]byte, error) {
	files, err := openEntries(data)
	if err != nil {
		return nil, err
	}
	f, ok := files[CasePath]
	if !ok {
		return nil, fmt.Errorf("%s not found in archive", CasePath)
	}
	return readEntry(f)
}
