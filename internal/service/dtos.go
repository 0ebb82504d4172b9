package service

type SubjectOverview struct {
	Subject       string  `json:"subject"`
	MeanScore     float64 `json:"mean_score"`
	ResponseCount int     `json:"response_count"`
	ResponseRate  float64 `json:"response_rate"`
}

type OverviewResult struct {
	DatasetID      int64             `json:"dataset_id"`
	TotalResponses int               `json:"total_responses"`
	Subjects       []SubjectOverview `json:"subjects"`
}

type DistributionBucket struct {
	Score      int     `json:"score"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type DistributionResult struct {
	DatasetID int64                `json:"dataset_id"`
	Subject   string               `json:"subject"`
	Scores    []int                `json:"scores"`
	Buckets   []DistributionBucket `json:"buckets"`
}
