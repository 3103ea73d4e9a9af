package fusion

// Decision is the outcome of identity resolution for one element.
type Decision string

const (
	// DecisionNew wrote a new canonical node.
	DecisionNew Decision = "new"
	// DecisionMerged recorded a remap into an existing similar node.
	DecisionMerged Decision = "merged"
	// DecisionExisting found the canonical key already present.
	DecisionExisting Decision = "existing"
)

// Record explains one fusion decision.
type Record struct {
	Key          string   `json:"key"`
	OriginalID   string   `json:"originalId"`
	Batch        int      `json:"batch"`
	Type         string   `json:"type"`
	Decision     Decision `json:"decision"`
	CandidateKey string   `json:"candidateKey,omitempty"`
	Similarity   float64  `json:"similarity,omitempty"`
	Reasoning    string   `json:"reasoning,omitempty"`
}

// Report summarizes a fusion run.
type Report struct {
	Batches           int               `json:"batches"`
	Elements          int               `json:"elements"`
	Created           int               `json:"created"`
	Merged            int               `json:"merged"`
	Existing          int               `json:"existing"`
	EmbeddingFailures int               `json:"embeddingFailures"`
	JudgedPairs       int               `json:"judgedPairs"`
	Edges             int               `json:"edges"`
	SkippedRefs       int               `json:"skippedRefs"`
	Remap             map[string]string `json:"remap"`
	Records           []Record          `json:"records"`
}

func (r *Report) add(rec Record) {
	r.Records = append(r.Records, rec)
	switch rec.Decision {
	case DecisionNew:
		r.Created++
	case DecisionMerged:
		r.Merged++
	case DecisionExisting:
		r.Existing++
	}
}
