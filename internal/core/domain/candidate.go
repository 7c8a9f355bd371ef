package domain

// Candidate is one retrievable passage from the disease corpus.
//
// FusionScore carries the raw modality score when a Candidate comes back
// from the Retriever and is overwritten with the fused score by the fusion
// step. RelevanceScore is written only by the reranker; 0 means unscored.
type Candidate struct {
	ID          string            `json:"id"`
	Text        string            `json:"text"`
	DiseaseName string            `json:"disease_name"`
	DiseaseType string            `json:"disease_type"`
	SectionType string            `json:"section_type"`
	PageNumber  string            `json:"page_number"`
	ChunkIndex  int               `json:"chunk_index"`
	Extra       map[string]string `json:"extra,omitempty"`

	FusionScore    float64 `json:"fusion_score"`
	RelevanceScore float64 `json:"relevance_score"`
}

type Answer struct {
	Text            string      `json:"text"`
	Sources         []Candidate `json:"sources"`
	RelatedDiseases []string    `json:"related_diseases,omitempty"`
}
