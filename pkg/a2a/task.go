package a2a

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

/*
Task is the unit of work tracked for one routed query.  It moves through
submitted → working → {completed | failed | canceled}; terminal states are
immutable once reached.
*/
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId,omitempty"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewTask creates a freshly submitted task.  An empty contextID gets a
// generated one so every task belongs to a conversation thread.
func NewTask(contextID string) *Task {
	if contextID == "" {
		contextID = uuid.New().String()
	}

	return &Task{
		ID:        uuid.New().String(),
		ContextID: contextID,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: time.Now().UTC(),
		},
	}
}

/*
ToStatus records a state change on the task.  It is a plain setter: the
terminal‑state guard lives in the router's updater, which is the sole
writer of caller‑visible task state.
*/
func (task *Task) ToStatus(state TaskState, message *Message) {
	log.Info("task state updated",
		"task", task.ID,
		"state", state,
		"message", message.Text(),
	)

	task.Status.State = state
	task.Status.Timestamp = time.Now().UTC()
	task.Status.Message = message
}

func (task *Task) AddMessage(message Message) {
	task.History = append(task.History, message)
}

func (task *Task) AddArtifact(artifact Artifact) {
	artifact.Index = len(task.Artifacts)
	task.Artifacts = append(task.Artifacts, artifact)
}

// LastArtifactText returns the text of the most recent artifact, which by
// convention carries the final answer of a routed query.
func (task *Task) LastArtifactText() string {
	if len(task.Artifacts) == 0 {
		return ""
	}

	last := task.Artifacts[len(task.Artifacts)-1]
	return last.Text()
}

func (task *Task) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Bold(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	indent := "   "
	bullet := "│ "

	sb.WriteString(headerStyle.Render("Task") + "\n")
	sb.WriteString(bullet + labelStyle.Render("ID: ") + valueStyle.Render(task.ID) + "\n")
	if task.ContextID != "" {
		sb.WriteString(bullet + labelStyle.Render("Context ID: ") + valueStyle.Render(task.ContextID) + "\n")
	}

	sb.WriteString("\n" + sectionStyle.Render("Status") + "\n")
	sb.WriteString(bullet + labelStyle.Render("State: ") + valueStyle.Render(string(task.Status.State)) + "\n")
	if task.Status.Message != nil {
		sb.WriteString(bullet + labelStyle.Render("Message: ") + valueStyle.Render(task.Status.Message.Text()) + "\n")
	}
	sb.WriteString(bullet + labelStyle.Render("Timestamp: ") + valueStyle.Render(task.Status.Timestamp.Format(time.RFC3339)) + "\n")

	if len(task.Artifacts) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Artifacts") + "\n")
		for i, artifact := range task.Artifacts {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Artifact %d", i+1)) + "\n")
			if artifact.Name != nil {
				sb.WriteString(bullet + indent + labelStyle.Render("Name: ") + valueStyle.Render(*artifact.Name) + "\n")
			}
			for j, part := range artifact.Parts {
				sb.WriteString(bullet + indent + labelStyle.Render(fmt.Sprintf("Part %d: ", j+1)) + valueStyle.Render(part.Text) + "\n")
			}
		}
	}

	return sb.String()
}
