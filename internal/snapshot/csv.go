package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amishk599/jobsweep/internal/fileutil"
	"github.com/amishk599/jobsweep/internal/model"
)

// Columns is the snapshot file header, in JobRecord field order.
var Columns = []string{
	"Company Name",
	"Job Title",
	"Location",
	"Job Link",
	"Job Description",
	"Employment Type",
	"Department",
	"Posted Date",
	"Company Description",
	"Remote",
	"Label",
	"ATS",
}

func row(r model.JobRecord) []string {
	return []string{
		r.CompanyName,
		r.JobTitle,
		r.Location,
		r.JobLink,
		r.Description,
		r.EmploymentType,
		r.Department,
		r.PostedDate,
		r.CompanyDescription,
		string(r.Remote),
		r.Label,
		r.ATS,
	}
}

func fromRow(cols []string) model.JobRecord {
	return model.JobRecord{
		CompanyName:        cols[0],
		JobTitle:           cols[1],
		Location:           cols[2],
		JobLink:            cols[3],
		Description:        cols[4],
		EmploymentType:     cols[5],
		Department:         cols[6],
		PostedDate:         cols[7],
		CompanyDescription: cols[8],
		Remote:             model.RemoteStatus(cols[9]),
		Label:              cols[10],
		ATS:                cols[11],
	}
}

// Write encodes s as CSV with a header row.
func Write(w io.Writer, s *Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range s.Records() {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write record %s: %w", r.JobLink, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read decodes a snapshot file. Columns are matched by header name, so files
// with reordered or extra columns still load; a missing column is an error.
func Read(r io.Reader) (*Snapshot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	// UTF-8 BOM from spreadsheet exports.
	if len(header) > 0 {
		index[strings.TrimPrefix(header[0], "\ufeff")] = 0
	}
	pos := make([]int, len(Columns))
	for i, c := range Columns {
		j, ok := index[c]
		if !ok {
			return nil, fmt.Errorf("snapshot missing column %q", c)
		}
		pos[i] = j
	}

	s := New()
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		cols := make([]string, len(Columns))
		for i, j := range pos {
			if j < len(rec) {
				cols[i] = rec[j]
			}
		}
		s.Put(fromRow(cols))
	}
	return s, nil
}

// Load reads the snapshot at path. A missing file is reported with an error
// satisfying errors.Is(err, fs.ErrNotExist).
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path atomically.
func Save(path string, s *Snapshot) error {
	return fileutil.WriteAtomicFunc(path, func(w io.Writer) error { return Write(w, s) })
}

// Backup copies the file at path to backupPath, replacing it. A missing
// source file is not an error.
func Backup(path, backupPath string) error {
	src, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open snapshot for backup: %w", err)
	}
	defer src.Close()

	return fileutil.WriteAtomicFunc(backupPath, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
}
