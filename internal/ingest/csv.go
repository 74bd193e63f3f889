// internal/ingest/csv.go
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/scalixity/campaign-backend/internal/model"
)

// DefaultPhoneColumn is the header the original campaign sheets use for the
// destination number.
const DefaultPhoneColumn = "Mobile"

// Options control how a recipient CSV is interpreted. PhoneColumn names the
// header holding the destination number; every other column becomes a
// recipient attribute keyed by its header.
type Options struct {
	PhoneColumn string
}

// ParseRecipients reads a header-driven CSV into recipients, preserving row
// order. Rows whose every field is blank are discarded. Rows with data but no
// phone are kept with an empty Phone so the dispatcher records them as
// invalid instead of silently skipping them.
func ParseRecipients(r io.Reader, opts Options) ([]model.Recipient, error) {
	col := opts.PhoneColumn
	if col == "" {
		col = DefaultPhoneColumn
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	phoneIdx := -1
	for i, h := range header {
		if strings.TrimSpace(h) == col {
			phoneIdx = i
			break
		}
	}
	if phoneIdx < 0 {
		return nil, fmt.Errorf("csv must contain a %q column", col)
	}

	var recipients []model.Recipient
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}

		blank := true
		for _, f := range row {
			if strings.TrimSpace(f) != "" {
				blank = false
				break
			}
		}
		if blank {
			continue
		}

		rec := model.Recipient{Attributes: make(map[string]string, len(header)-1)}
		for i, f := range row {
			if i >= len(header) {
				break
			}
			if i == phoneIdx {
				rec.Phone = NormalizePhone(f)
				continue
			}
			rec.Attributes[strings.TrimSpace(header[i])] = strings.TrimSpace(f)
		}
		recipients = append(recipients, rec)
	}
	return recipients, nil
}

// NormalizePhone trims whitespace and ensures the leading + the provider
// expects on international numbers.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if !strings.HasPrefix(phone, "+") {
		return "+" + phone
	}
	return phone
}
