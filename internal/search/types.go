package search

// candidate represents a matching document during tree evaluation
type candidate struct {
	internalID uint32
	score      float64 // summed token frequency when a free-text query is present
}
