// Package process runs external commands as simulation processes: one
// spawn per scheduler invocation, the port values in as JSON on stdin,
// the update back as JSON on stdout. It is the bridge for model code
// written outside Go.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

// request is the document the child reads on stdin.
type request struct {
	Timestep float64                   `json:"timestep"`
	Values   map[string]map[string]any `json:"values"`
}

// response is the document the child writes on stdout.
type response struct {
	Entries    map[string]map[string]replyEntry `json:"entries"`
	Directives []replyDirective                 `json:"directives"`
	Error      string                           `json:"error"`
}

type replyEntry struct {
	Value   any    `json:"value"`
	Updater string `json:"updater"`
}

type replyDirective struct {
	Kind      string    `json:"kind"`
	Port      string    `json:"port"`
	Daughters [2]string `json:"daughters"`
}

// Process runs an external command as a simulation process. The child is
// spawned fresh every invocation and must not keep state between calls;
// continuation values belong in declared schema variables like any other
// process. Cancelling the context kills the child.
type Process struct {
	cfg    Config
	schema domain.Schema
}

var _ ports.Process = (*Process)(nil)

// New validates the configuration and returns the process.
func New(cfg Config) (*Process, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("external process needs a command")
	}
	if len(cfg.Schema) == 0 {
		return nil, fmt.Errorf("external process %q declares no schema", cfg.Command)
	}
	if cfg.TimeStep < 0 {
		return nil, fmt.Errorf("negative time step %v", cfg.TimeStep)
	}
	if cfg.TimeStep == 0 {
		cfg.TimeStep = 1
	}
	schema, err := cfg.schema()
	if err != nil {
		return nil, err
	}
	return &Process{cfg: cfg, schema: schema}, nil
}

// Schema declares the ports from the configuration.
func (p *Process) Schema() domain.Schema {
	return p.schema
}

// TimeStep returns the configured interval, or zero for derivers.
func (p *Process) TimeStep() float64 {
	if p.cfg.Deriver {
		return 0
	}
	return p.cfg.TimeStep
}

// Next spawns the command, feeds it the visible port values, and decodes
// its reply into an update.
func (p *Process) Next(ctx context.Context, timestep float64, view domain.View) (domain.Update, error) {
	req := request{Timestep: timestep, Values: make(map[string]map[string]any, len(p.schema))}
	for port := range p.schema {
		req.Values[port] = view.Port(port)
	}
	input, err := json.Marshal(req)
	if err != nil {
		return domain.Update{}, fmt.Errorf("encoding request: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.cfg.Command, p.cfg.Args...)
	cmd.Dir = p.cfg.Dir
	extra := make([]string, 0, len(p.cfg.Env))
	for k, v := range p.cfg.Env {
		extra = append(extra, k+"="+v)
	}
	cmd.Env = append(cmd.Environ(), extra...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return domain.Update{}, fmt.Errorf("external process %s: %w", p.cfg.Command, ctx.Err())
		}
		return domain.Update{}, fmt.Errorf("external process %s: %v (stderr: %s)",
			p.cfg.Command, err, strings.TrimSpace(stderr.String()))
	}

	return p.decodeReply(stdout.Bytes())
}

// decodeReply parses the child's stdout. Numbers decode as json.Number so
// molecule counts survive as int64.
func (p *Process) decodeReply(raw []byte) (domain.Update, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var resp response
	if err := dec.Decode(&resp); err != nil {
		return domain.Update{}, fmt.Errorf("external process %s: undecodable reply: %v", p.cfg.Command, err)
	}
	if resp.Error != "" {
		return domain.Update{}, fmt.Errorf("external process %s: %s", p.cfg.Command, resp.Error)
	}

	var update domain.Update
	for port, vars := range resp.Entries {
		if _, ok := p.schema[port]; !ok {
			return domain.Update{}, fmt.Errorf("external process %s: reply writes undeclared port %q", p.cfg.Command, port)
		}
		for name, e := range vars {
			updater, err := domain.ParseUpdater(e.Updater)
			if err != nil {
				return domain.Update{}, fmt.Errorf("reply entry %s/%s: %w", port, name, err)
			}
			update.Put(port, name, domain.Entry{Value: domain.NormalizeValue(e.Value), Updater: updater})
		}
	}
	for _, d := range resp.Directives {
		kind, err := parseDirectiveKind(d.Kind)
		if err != nil {
			return domain.Update{}, fmt.Errorf("external process %s: %w", p.cfg.Command, err)
		}
		update.Direct(domain.Directive{Kind: kind, Port: d.Port, DaughterIDs: d.Daughters})
	}
	return update, nil
}

func parseDirectiveKind(name string) (domain.DirectiveKind, error) {
	switch name {
	case "divide":
		return domain.DirectiveDivide, nil
	case "delete":
		return domain.DirectiveDelete, nil
	}
	return 0, fmt.Errorf("unknown directive kind %q", name)
}
