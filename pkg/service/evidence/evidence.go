// Package evidence renders the evidence pack of a case as a PDF document.
package evidence

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
)

const (
	displayTime = "2006-01-02 15:04"
	lineHeight  = 6.0
)

type Renderer struct {
	compress bool
}

type Option func(*Renderer)

// WithCompression toggles stream compression of the PDF body. Enabled by default.
func WithCompression(enabled bool) Option {
	return func(r *Renderer) {
		r.compress = enabled
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ interfaces.EvidenceRenderer = (*Renderer)(nil)

type section struct {
	title string
	lines []string
}

func (r *Renderer) Render(ctx context.Context, pack *interfaces.EvidencePack) ([]byte, error) {
	if pack == nil || pack.Case == nil {
		return nil, goerr.New("evidence pack has no case")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle("Evidence Pack "+pack.Case.CaseNumber, true)
	pdf.SetCreator("amlcase", true)
	pdf.SetCreationDate(pack.GeneratedAt)
	pdf.SetModificationDate(pack.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	footer := fmt.Sprintf("Generated at %s", pack.GeneratedAt.UTC().Format(time.RFC3339))
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, tr(footer), "", 0, "L", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(header(pack)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for i, s := range buildSections(pack) {
		if s.title != "" {
			if i > 0 {
				pdf.Ln(4)
			}
			pdf.SetFont("Helvetica", "B", 13)
			pdf.CellFormat(0, 8, tr(s.title), "", 1, "L", false, 0, "")
		}
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range s.lines {
			pdf.MultiCell(0, lineHeight, tr(line), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, goerr.Wrap(err, "failed to render evidence pack", goerr.V("case_id", pack.Case.ID))
	}
	return buf.Bytes(), nil
}

func header(pack *interfaces.EvidencePack) string {
	return "Evidence Pack | " + pack.Case.CaseNumber
}

func buildSections(pack *interfaces.EvidencePack) []section {
	c := pack.Case

	customerName := "Unknown"
	if pack.Customer != nil {
		customerName = fmt.Sprintf("%s (%s)", pack.Customer.FullName, pack.Customer.ExternalID)
	}
	decision := c.Decision
	if decision == "" {
		decision = "N/A"
	}
	closed := "-"
	if c.ClosedAt != nil {
		closed = c.ClosedAt.UTC().Format(displayTime)
	}

	summary := section{lines: []string{
		"Customer: " + customerName,
		"Status: " + c.Status.String(),
		"Risk: " + c.RiskLevel.String(),
		"Decision: " + decision,
	}}
	if c.DecisionReason != "" {
		summary.lines = append(summary.lines, "Reason: "+c.DecisionReason)
	}
	summary.lines = append(summary.lines,
		fmt.Sprintf("Created: %s / Closed: %s", c.CreatedAt.UTC().Format(displayTime), closed))

	timeline := section{title: "Timeline"}
	for _, ev := range pack.Events {
		timeline.lines = append(timeline.lines,
			fmt.Sprintf("[%s] %s | Actor %s", ev.At.UTC().Format(displayTime), ev.Type, ev.ActorUserID))
	}
	if len(timeline.lines) == 0 {
		timeline.lines = []string{"No events recorded."}
	}

	attachments := section{title: "Attachments"}
	for _, a := range pack.Attachments {
		line := fmt.Sprintf("%s | %s bytes (%s)", a.FileName, humanize.Comma(a.Size), humanize.Bytes(uint64(max(a.Size, 0))))
		if a.SHA256 != "" {
			line += " | SHA256 " + a.SHA256
		}
		attachments.lines = append(attachments.lines, line)
	}
	if len(attachments.lines) == 0 {
		attachments.lines = []string{"No attachments."}
	}

	return []section{summary, timeline, attachments}
}
