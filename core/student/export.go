package student

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

const ExportContentType = "text/csv; charset=utf-8"

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	exportHeader = []string{
		"ID", "Name (English)", "Name (Bangla)", "Roll", "Class", "Section", "Gender",
		"Date of Birth", "Birth Registration ID", "Father's Name (English)", "Father's Name (Bangla)",
		"Father's ID", "Mother's Name", "Address", "Contact", "Grade", "Attendance (%)",
	}
)

// ExportFilename names an export made at `now`.
func ExportFilename(now time.Time) string {
	return now.Format("students_20060102_150405") + ".csv"
}

// WriteCSV writes `list` as a spreadsheet-friendly CSV document: UTF-8 byte-order mark,
// a fixed header row, every field double-quoted and CRLF line endings.
// An empty list writes nothing and returns ErrNothingToExport.
func WriteCSV(w io.Writer, list []Student) error {
	if len(list) == 0 {
		return ErrNothingToExport
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(utf8BOM); err != nil {
		return err
	}
	if err := writeRow(bw, exportHeader); err != nil {
		return err
	}
	for _, s := range list {
		if err := writeRow(bw, exportRecord(s)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func exportRecord(s Student) []string {
	return []string{
		s.ID, s.NameEN, s.NameBN, s.Roll, s.Class, s.Section.String, string(s.Gender),
		s.DOB.String, s.BirthID.String, s.FatherNameEN.String, s.FatherNameBN.String,
		s.FatherID.String, s.MotherNameEN.String, s.AddressBN.String, s.Contact.String, s.Grade.String,
		strconv.FormatFloat(s.Attendance, 'f', -1, 64),
	}
}

func writeRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}
