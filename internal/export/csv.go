// Package export renders buyer lists as delimited text for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/smoak-intel/prospector/internal/domain"
)

// Filename is the fixed download name for exported buyer lists.
const Filename = "smoak_intelligence_partners.csv"

var header = []string{"Name", "Location", "Type", "Contact Info", "Website", "Description", "Specialty"}

// WriteCSV writes the buyers as RFC 4180 CSV: a header row followed by one
// record per buyer. The generated ID is deliberately excluded.
func WriteCSV(w io.Writer, buyers []domain.Buyer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, b := range buyers {
		record := []string{b.Name, b.Location, b.Type, b.ContactInfo, b.Website, b.Description, b.Specialty}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record for %q: %w", b.Name, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
