package types

const (
	JOB_STATUS_PENDING    = "pending"
	JOB_STATUS_PROCESSING = "processing"
	JOB_STATUS_READY      = "ready"
	JOB_STATUS_FAILED     = "failed"
)

// IngestionJob tracks one document through ingestion.
type IngestionJob struct {
	ID            string `json:"id" bson:"_id"`
	FileName      string `json:"fileName" bson:"file_name"`
	Status        string `json:"status" bson:"status"`
	ChunksIndexed int    `json:"chunksIndexed" bson:"chunks_indexed"`
	Message       string `json:"message,omitempty" bson:"message"`
	Attempts      int    `json:"attempts" bson:"attempts"`
	CreateAt      int64  `json:"created_at" bson:"created_at"`
	UpdateAt      int64  `json:"updated_at" bson:"updated_at"`
}

// IsTerminal reports whether the job can no longer change state.
func (j *IngestionJob) IsTerminal() bool {
	return j.Status == JOB_STATUS_READY || j.Status == JOB_STATUS_FAILED
}

var jobTransitions = map[string][]string{
	JOB_STATUS_PENDING:    {JOB_STATUS_PROCESSING, JOB_STATUS_FAILED},
	JOB_STATUS_PROCESSING: {JOB_STATUS_READY, JOB_STATUS_FAILED},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
