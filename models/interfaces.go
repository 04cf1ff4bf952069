package models

// Classifier is the inference capability the pipeline is built around.
// Given an N-row feature matrix it returns N hour labels and an N×K
// probability matrix over its trained label domain. K is the classifier's
// business; callers only ever take the max of each distribution row.
type Classifier interface {
	Predict(matrix FeatureMatrix) ([]int, error)
	PredictProbabilities(matrix FeatureMatrix) ([][]float64, error)
}
