package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	DiseaseName string         `json:"disease_name,omitempty"`
	DiseaseType string         `json:"disease_type,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Section is one extracted region of a source document. Extractors keep
// the region's provenance (page, table) so it survives chunking into the
// index and comes back on retrieved candidates.
type Section struct {
	Text        string
	SectionType string
	PageNumber  string
}

// Chunk is one indexable piece of a section, numbered across the whole
// document.
type Chunk struct {
	Text        string
	SectionType string
	PageNumber  string
	Index       int
}

// Classification is disease metadata extracted from a document's text.
// Related lists diseases co-mentioned in the document; they feed the
// disease graph.
type Classification struct {
	DiseaseName string   `json:"disease_name"`
	DiseaseType string   `json:"disease_type"`
	Tags        []string `json:"tags"`
	Related     []string `json:"related"`
	Confidence  float64  `json:"confidence"`
	Summary     string   `json:"summary"`
}
