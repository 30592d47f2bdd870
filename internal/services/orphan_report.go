package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrphanReport summarizes the orphaned items of one mailbox. Every scan
// gets its own identifier so that reports from repeated runs over the
// same file can be told apart.
type OrphanReport struct {
	// ScanID identifies this scan.
	ScanID string

	// FilePath is the path of the scanned file.
	FilePath string

	// GeneratedAt is the time the report was generated.
	GeneratedAt time.Time

	// Items are the orphaned items in discovery order.
	Items []ItemInfo
}

// BuildOrphanReport collects the orphaned items of the mailbox into a
// report.
func (r *MailboxReader) BuildOrphanReport() (*OrphanReport, error) {
	items, err := r.Orphans()
	if err != nil {
		return nil, fmt.Errorf("failed to collect orphans: %w", err)
	}
	path := ""
	if r.file != nil {
		path = r.file.Path()
	}
	return &OrphanReport{
		ScanID:      uuid.NewString(),
		FilePath:    path,
		GeneratedAt: time.Now().UTC(),
		Items:       items,
	}, nil
}
