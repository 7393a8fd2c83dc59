/*
Package router contains the hub's routing pipeline: classifying a query to
a specialist agent, invoking that agent over its streamed task interface,
and relaying the resulting events into the locally tracked task.
*/
package router

import (
	"medhub/pkg/a2a"
)

// Orchestration modes a caller can request via task metadata.
const (
	ModeSimple = "simple"
	ModeReact  = "react"

	metadataModeKey = "orchestrator_mode"
)

/*
Request carries one query through the routing pipeline, bound to the task
that tracks it.
*/
type Request struct {
	Task     *a2a.Task
	Query    string
	Metadata map[string]any
}

func NewRequest(task *a2a.Task, query string) *Request {
	return &Request{
		Task:     task,
		Query:    query,
		Metadata: task.Metadata,
	}
}

// Mode returns the requested orchestration mode, defaulting to simple when
// the metadata is absent or not a string.
func (request *Request) Mode() string {
	if request.Metadata == nil {
		return ModeSimple
	}

	mode, ok := request.Metadata[metadataModeKey].(string)

	if !ok || mode == "" {
		return ModeSimple
	}

	return mode
}
