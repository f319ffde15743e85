package models

// ExportFormat enumerates supported statement formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Statement is a rendered document ready to be served or written to disk.
type Statement struct {
	Filename    string
	ContentType string
	Format      ExportFormat
	Body        []byte
}
