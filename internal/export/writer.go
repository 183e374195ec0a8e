// Package export writes order snapshots to the drop directory picked up by
// the downstream invoicing tool. One file per customer, one line per order
// line, fields joined by '$' and terminated by '#'.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gestacom/go-stock-orders/internal/money"
)

type Line struct {
	Reference      string `json:"reference"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	PurchaseCents  int64  `json:"purchase_cents"`
	SaleCents      int64  `json:"sale_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type Snapshot struct {
	CustomerName string `json:"customer_name"`
	Lines        []Line `json:"lines"`
	TotalCents   int64  `json:"total_cents"`
}

type Writer struct {
	Dir string
}

// Write renders the snapshot to <dir>/<sanitized customer>.txt, replacing any
// previous file for the same customer. Rewrites are idempotent, which is what
// lets the queued exporter retry safely.
func (w *Writer) Write(snap Snapshot) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	var b strings.Builder
	b.WriteString(snap.CustomerName)
	b.WriteByte('\n')
	for _, l := range snap.Lines {
		fmt.Fprintf(&b, "%s$%s$%d$%s$%s$%s$%s#\n",
			l.Reference, l.Name, l.Quantity,
			money.Format(l.PurchaseCents), money.Format(l.SaleCents),
			money.Format(l.LineTotalCents), money.Format(snap.TotalCents))
	}

	path := filepath.Join(w.Dir, SanitizeFilename(snap.CustomerName)+".txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

var unsafeFilenameChars = strings.NewReplacer(
	`\`, "_", `/`, "_", `*`, "_", `?`, "_", `:`, "_", `"`, "_", `<`, "_", `>`, "_", `|`, "_",
)

func SanitizeFilename(name string) string {
	return unsafeFilenameChars.Replace(name)
}
