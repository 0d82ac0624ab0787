// Package export writes ledger snapshots to CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bilancio/internal/core"
)

// Header is the CSV header for the transaction export.
const Header = "date,type,amount,category,account,target_account,note"

const (
	numFields  = 7
	dateFormat = "2006-01-02"

	colDate     = 0
	colType     = 1
	colAmount   = 2
	colCategory = 3
	colAccount  = 4
	colTarget   = 5
	colNote     = 6
)

// Row is one exported transaction with category and account
// references already resolved to names.
type Row struct {
	Date          time.Time
	Type          core.TransactionType
	Amount        core.Money
	Category      string
	Account       string
	TargetAccount string
	Note          string
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(row Row) []string {
	rec := make([]string, numFields)
	rec[colDate] = row.Date.Format(dateFormat)
	rec[colType] = string(row.Type)
	rec[colAmount] = row.Amount.String()
	rec[colCategory] = row.Category
	rec[colAccount] = row.Account
	rec[colTarget] = row.TargetAccount
	rec[colNote] = row.Note
	return rec
}

// WriteRows writes rows to w, including the header.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// WriteFile writes rows to path atomically. The file is written to a
// temporary sibling first and renamed into place, so readers never see
// a partial export.
func WriteFile(path string, rows []Row) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteRows(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing export file: %w", err)
	}
	return nil
}
