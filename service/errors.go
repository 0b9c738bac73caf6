package service

import "errors"

var (
	ErrGenerationTimeout = errors.New("report generation timed out")
	ErrGenerationFailed  = errors.New("failed to generate report")
	ErrEmbeddingFailed   = errors.New("failed to generate embedding")

	ErrClassifierNotSet      = errors.New("classifier not set")
	ErrRetrieverNotSet       = errors.New("retriever not set")
	ErrReportGeneratorNotSet = errors.New("report generator not set")
	ErrAssessmentStoreNotSet = errors.New("assessment store not set")
)
