package models

type EvaluationRequest struct {
	K         int     `json:"k" validate:"omitempty,min=1,max=100"`
	Threshold float64 `json:"threshold" validate:"omitempty,min=1,max=5"`
	TestRatio float64 `json:"test_ratio" validate:"omitempty,gt=0,lt=1"`
}
