package snapshot

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/depgraph/pkg/errors"
)

// Encode writes s as indented JSON. encoding/json sorts map keys and struct
// fields keep declaration order, so the output is deterministic.
func Encode(w io.Writer, s *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, err, "encode snapshot")
	}
	return nil
}

// Marshal returns the encoded form of s.
func Marshal(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a snapshot document.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode snapshot")
	}
	if s.Manifests == nil {
		s.Manifests = map[string]Manifest{}
	}
	return &s, nil
}

// ReadFile decodes the snapshot stored at path.
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "snapshot %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// FileName returns the file name used for s: <correlator>.json.
func FileName(s *Snapshot) (string, error) {
	if err := errors.ValidateFileName(s.Job.Correlator); err != nil {
		return "", err
	}
	return s.Job.Correlator + ".json", nil
}

// WriteFile writes s to dir/<correlator>.json, creating dir as needed, and
// returns the written path. The file is written to a temporary name first
// and renamed into place.
func WriteFile(dir string, s *Snapshot) (string, error) {
	name, err := FileName(s)
	if err != nil {
		return "", err
	}
	data, err := Marshal(s)
	if err != nil {
		return "", err
	}
	return writeAtomic(dir, name, data)
}

func writeAtomic(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, err, "create report directory %s", dir)
	}
	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, err, "create %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", errors.Wrap(errors.ErrCodeWriteFailed, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, err, "close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(errors.ErrCodeWriteFailed, err, "rename into %s", path)
	}
	return path, nil
}
