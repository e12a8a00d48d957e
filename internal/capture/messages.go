package capture

import "fmt"

// DefaultSubjectPrefix is used when none is configured.
const DefaultSubjectPrefix = "recall.capture"

// TranscriptMessage is published on <prefix>.transcript.
type TranscriptMessage struct {
	Transcript string `json:"transcript"`
}

// ImageMessage is published on <prefix>.image.
type ImageMessage struct {
	Image     string `json:"image"` // base64
	MediaType string `json:"mediaType,omitempty"`
}

// Ack answers a message that was sent as a request.
type Ack struct {
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Subjects returns the transcript and image subjects under prefix.
func Subjects(prefix string) (transcript, image string) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return fmt.Sprintf("%s.transcript", prefix), fmt.Sprintf("%s.image", prefix)
}
