package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amishk599/jobsweep/internal/fileutil"
)

// FileName returns the dated report file name for r, without a collision
// suffix.
func FileName(r Report) string {
	return "job_changes_" + r.GeneratedAt.Format("2006-01-02") + ".txt"
}

// Write stores the text report in dir under a dated name, never replacing
// an existing report: later runs on the same day get _2, _3 ... suffixes.
// The JSON twin shares the chosen stem.
func Write(dir string, r Report) (txtPath, jsonPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report dir: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		return "", "", fmt.Errorf("render report: %w", err)
	}

	base := filepath.Join(dir, FileName(r))
	stem := strings.TrimSuffix(base, ".txt")
	txtPath, err = fileutil.CreateExclusive(base, func(n int) string {
		return fmt.Sprintf("%s_%d.txt", stem, n)
	}, buf.Bytes())
	if err != nil {
		return "", "", fmt.Errorf("write report: %w", err)
	}

	data, err := MarshalJSON(r)
	if err != nil {
		return txtPath, "", fmt.Errorf("encode report: %w", err)
	}
	jsonPath = strings.TrimSuffix(txtPath, ".txt") + ".json"
	if err := fileutil.WriteAtomic(jsonPath, data); err != nil {
		return txtPath, "", fmt.Errorf("write report json: %w", err)
	}
	return txtPath, jsonPath, nil
}
