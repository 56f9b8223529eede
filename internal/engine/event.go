package engine

import "github.com/roach88/modellist/internal/value"

// Event records one applied step.
//
// Args, Result and Items are deep copies taken when the step finished, so
// later steps never rewrite earlier events.
type Event struct {
	Seq    int64       `json:"seq"`
	Op     string      `json:"op"`
	Args   value.Array `json:"args,omitempty"`
	Result any         `json:"result,omitempty"`
	Length int         `json:"length"`
	Items  []any       `json:"items"`
	Error  string      `json:"error,omitempty"`
}

// ToMap converts the event to a tree object for canonical encoding.
// Seq is left out when withSeq is false, for traces compared across runs
// of one engine.
func (ev Event) ToMap(withSeq bool) value.Object {
	m := value.Object{
		"op":     ev.Op,
		"length": int64(ev.Length),
		"items":  value.Array(ev.Items),
	}
	if withSeq {
		m["seq"] = ev.Seq
	}
	if len(ev.Args) > 0 {
		m["args"] = ev.Args
	}
	if ev.Result != nil {
		m["result"] = ev.Result
	}
	if ev.Error != "" {
		m["error"] = ev.Error
	}
	return m
}
