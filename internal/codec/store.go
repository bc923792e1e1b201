package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gepkit/internal/kexpr"
	"gepkit/internal/ops"
	"gepkit/internal/trace"
)

// All writes in this file are atomic and durable: the blob goes to a temp
// file in the target directory, is synced, renamed over the target, and the
// directory is synced. Filesystem failures are reported as ops.ErrIO.

func SaveVocabulary(path string, v *ops.Vocabulary) error {
	data, err := MarshalVocabulary(v)
	if err != nil {
		return err
	}
	return saveBlob(path, data)
}

func RestoreVocabulary(path string, catalog *ops.Catalog) (*ops.Vocabulary, error) {
	data, err := loadBlob(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalVocabulary(data, catalog)
}

func SaveKExpression(path string, k *kexpr.KExpression) error {
	data, err := MarshalKExpression(k)
	if err != nil {
		return err
	}
	return saveBlob(path, data)
}

func RestoreKExpression(path string, catalog *ops.Catalog) (*kexpr.KExpression, error) {
	data, err := loadBlob(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalKExpression(data, catalog)
}

// SaveDisplays writes the display text of every identifier of v, for later
// use with ValidateWithFile.
func SaveDisplays(path string, v *ops.Vocabulary) error {
	if v == nil {
		return ops.Errorf(ops.ErrConfiguration, "nil vocabulary")
	}
	data, err := jsonMarshalStable(v.Displays())
	if err != nil {
		return err
	}
	return saveBlob(path, data)
}

// ValidateWithFile compares v against a display list written by SaveDisplays
// and fails with ops.ErrSchemaMismatch at the first index whose text differs,
// including an entry present on only one side.
// Genes saved against the listed vocabulary index into v correctly only when
// this passes.
func ValidateWithFile(path string, v *ops.Vocabulary) error {
	data, err := loadBlob(path)
	if err != nil {
		return err
	}
	var expected []string
	if err := decodeStrict(data, &expected); err != nil {
		return err
	}
	actual := v.Displays()
	for i, want := range expected {
		got := "<missing>"
		if i < len(actual) {
			got = actual[i]
		}
		if got != want {
			return ops.Errorf(ops.ErrSchemaMismatch, "expected primitive %q at index %d, found %q", want, i, got)
		}
	}
	if len(actual) > len(expected) {
		return ops.Errorf(ops.ErrSchemaMismatch, "expected primitive %q at index %d, found %q", "<missing>", len(expected), actual[len(expected)])
	}
	return nil
}

type traceRecord struct {
	TraceHash string                `json:"traceHash"`
	Trace     trace.EvaluationTrace `json:"trace"`
}

// SaveTraces writes traces as a JSON array in the order given. Each entry
// carries the sha256 of the trace's canonical encoding, so two runs can be
// compared entry by entry without diffing steps.
func SaveTraces(path string, traces []trace.EvaluationTrace) error {
	records := make([]traceRecord, len(traces))
	for i, t := range traces {
		h, err := t.Hash()
		if err != nil {
			return fmt.Errorf("trace %d: %w", i, err)
		}
		records[i] = traceRecord{TraceHash: h, Trace: t}
	}
	data, err := jsonMarshalStable(records)
	if err != nil {
		return err
	}
	return saveBlob(path, data)
}

func saveBlob(path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return ops.Errorf(ops.ErrConfiguration, "path is required")
	}
	if err := writeFileAtomicDurable(path, data, 0o644); err != nil {
		return ops.WrapIO("write "+path, err)
	}
	return nil
}

func loadBlob(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ops.Errorf(ops.ErrConfiguration, "path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ops.WrapIO("read "+path, err)
	}
	return data, nil
}

func writeFileAtomicDurable(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return fsyncDir(dir)
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
