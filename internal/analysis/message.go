// Package analysis holds the pure text heuristics the processing pipeline
// runs over a conversation: health scoring, failure inference, usage-pattern
// detection, and the placeholder embedding projection. Nothing in here does
// I/O; persistence of the results is the caller's job.
package analysis

// Message is the minimal view of a stored message the heuristics need.
type Message struct {
	Role      string
	Content   string
	Sentiment *float64
}
