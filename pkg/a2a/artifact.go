package a2a

/*
Artifact is the output of a task.  Artifacts are append‑only: once attached
to a task they are never removed or mutated, and the order of appending is
the order of presentation.
*/
type Artifact struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Index       int            `json:"index,omitempty"`
}

func NewTextArtifact(name string, text string) Artifact {
	return Artifact{
		Name:  &name,
		Parts: []Part{NewTextPart(text)},
	}
}

// Text concatenates all text parts of the artifact.
func (artifact *Artifact) Text() string {
	msg := Message{Parts: artifact.Parts}
	return msg.Text()
}
