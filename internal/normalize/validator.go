package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// CanonicalHeaders is the fixed five-field transaction schema every statement
// must be reduced to before it can enter the store.
var CanonicalHeaders = []string{
	"transaction_date",
	"description",
	"amount",
	"category",
	"card",
}

// ErrMissingHeaders signals that normalizer output does not expose the
// canonical schema.
var ErrMissingHeaders = errors.New("CSV headers missing or incorrect")

// ValidateCSV parses content as delimited text with a header row and succeeds
// only if every canonical field is present among the headers. Extra columns
// and any column order are accepted. Header cells are whitespace-trimmed and
// matched with exact case. Per-row types are not checked here; those errors
// surface row by row at import time.
func ValidateCSV(content string) error {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("ValidateCSV: reading header: %w", err)
	}

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}

	var missing []string
	for _, want := range CanonicalHeaders {
		if !present[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("ValidateCSV: %w: missing %s", ErrMissingHeaders, strings.Join(missing, ", "))
	}

	return nil
}
