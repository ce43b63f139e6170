package job

import "github.com/secureops/secureops-client/internal/util"

// Summary is the aggregated pipeline outcome for a completed job.
type Summary struct {
	PipelineStatus string          `json:"pipeline_status" yaml:"pipeline_status"`
	Accuracy       float64         `json:"accuracy"        yaml:"accuracy"`
	PassThreshold  float64         `json:"pass_threshold"  yaml:"pass_threshold"`
	TotalSamples   int             `json:"total_samples"   yaml:"total_samples"`
	IntegrityHash  *string         `json:"integrity_hash"  yaml:"integrity_hash,omitempty"`
	Dataset        *string         `json:"dataset"         yaml:"dataset,omitempty"`
	Timestamp      *util.Timestamp `json:"timestamp"       yaml:"timestamp,omitempty"`
	Violations     map[string]int  `json:"violations"      yaml:"violations"`
}

// Passed reports whether the pipeline marked the job as passing.
func (s Summary) Passed() bool { return s.PipelineStatus == "PASS" }

// Violation is one detected safety violation.
type Violation struct {
	FileName   string          `json:"file_name"            yaml:"file_name"`
	Type       string          `json:"type"                 yaml:"type"`
	Severity   string          `json:"severity"             yaml:"severity"`
	Confidence *float64        `json:"confidence"           yaml:"confidence,omitempty"`
	Timestamp  *util.Timestamp `json:"timestamp"            yaml:"timestamp,omitempty"`
	ImagePath  *string         `json:"image_path,omitempty" yaml:"image_path,omitempty"`
}

// ProximityEvent is one worker-to-machine proximity observation.
type ProximityEvent struct {
	WorkerID   *string         `json:"worker_id"            yaml:"worker_id,omitempty"`
	Machine    string          `json:"machine"              yaml:"machine"`
	DistancePx float64         `json:"distance_px"          yaml:"distance_px"`
	Risk       string          `json:"risk"                 yaml:"risk"`
	Timestamp  *util.Timestamp `json:"timestamp"            yaml:"timestamp,omitempty"`
	ImagePath  *string         `json:"image_path,omitempty" yaml:"image_path,omitempty"`
}

// Results bundles everything fetched for a completed job.
type Results struct {
	JobID      string           `json:"job_id"     yaml:"job_id"`
	Summary    Summary          `json:"summary"    yaml:"summary"`
	Violations []Violation      `json:"violations" yaml:"violations"`
	Proximity  []ProximityEvent `json:"proximity"  yaml:"proximity"`
}
