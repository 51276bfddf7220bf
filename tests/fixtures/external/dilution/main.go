// Command dilution is a minimal external model for the process adapter
// tests: each invocation removes one molecule of every species that still
// has any. It reads the port values as JSON on stdin and writes the
// update as JSON on stdout.
package main

import (
	"encoding/json"
	"fmt"
	"os"
)

type request struct {
	Timestep float64                   `json:"timestep"`
	Values   map[string]map[string]any `json:"values"`
}

type entry struct {
	Value   any    `json:"value"`
	Updater string `json:"updater,omitempty"`
}

type reply struct {
	Entries map[string]map[string]entry `json:"entries,omitempty"`
	Error   string                      `json:"error,omitempty"`
}

func main() {
	dec := json.NewDecoder(os.Stdin)
	dec.UseNumber()

	var req request
	if err := dec.Decode(&req); err != nil {
		fail(fmt.Sprintf("bad request: %v", err))
	}

	molecules := map[string]entry{}
	for name, value := range req.Values["molecules"] {
		n, ok := value.(json.Number)
		if !ok {
			fail(fmt.Sprintf("species %s is %T, want a number", name, value))
		}
		count, err := n.Int64()
		if err != nil {
			fail(fmt.Sprintf("species %s: %v", name, err))
		}
		if count > 0 {
			molecules[name] = entry{Value: -1, Updater: "accumulate"}
		}
	}

	out := reply{}
	if len(molecules) > 0 {
		out.Entries = map[string]map[string]entry{"molecules": molecules}
	}
	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		fail(err.Error())
	}
}

func fail(msg string) {
	_ = json.NewEncoder(os.Stdout).Encode(reply{Error: msg})
	os.Exit(0)
}
