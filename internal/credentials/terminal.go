package credentials

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"brandforge/internal/config"
	"brandforge/internal/core"
)

// capabilityKeys maps each capability to the configuration fields holding
// its credentials. A capability is satisfied when all of its fields are
// non-empty in the loaded configuration.
var capabilityKeys = map[core.Capability][]func(*config.Config) *string{
	core.CapabilityStorage: {
		func(c *config.Config) *string { return &c.Media.Endpoint },
		func(c *config.Config) *string { return &c.Media.APIKey },
	},
	core.CapabilityRemoteStore: {
		func(c *config.Config) *string { return &c.Airtable.APIKey },
		func(c *config.Config) *string { return &c.Airtable.BaseID },
	},
	core.CapabilityTextGen: {
		func(c *config.Config) *string { return &c.AI.Gemini.APIKey },
	},
	core.CapabilityImageGen: {
		func(c *config.Config) *string { return &c.AI.Gemini.APIKey },
	},
}

var capabilityPrompts = map[core.Capability][]string{
	core.CapabilityStorage:     {"Media store endpoint", "Media store API key"},
	core.CapabilityRemoteStore: {"Airtable API key", "Airtable base ID"},
	core.CapabilityTextGen:     {"Gemini API key"},
	core.CapabilityImageGen:    {"Gemini API key"},
}

// TerminalProvider satisfies capabilities from the loaded configuration and
// collects missing credentials through an interactive terminal prompt. It
// is the CLI's stand-in for the settings dialog of a richer UI: Request
// prompts in the background and invokes Notify (wired to Gate.Signal) once
// the user has answered or dismissed the prompt.
type TerminalProvider struct {
	cfg *config.Config
	in  io.Reader
	out io.Writer

	// Notify is invoked after a Request has been answered or dismissed.
	// The CLI wires this to Gate.Signal.
	Notify func()
}

// NewTerminalProvider creates a provider over the given configuration,
// prompting on stdin/stderr.
func NewTerminalProvider(cfg *config.Config) *TerminalProvider {
	return &TerminalProvider{cfg: cfg, in: os.Stdin, out: os.Stderr}
}

// Has reports whether every credential backing the capability is present.
func (p *TerminalProvider) Has(capability core.Capability) bool {
	fields, ok := capabilityKeys[capability]
	if !ok {
		return false
	}
	for _, field := range fields {
		if strings.TrimSpace(*field(p.cfg)) == "" {
			return false
		}
	}
	return true
}

// Request prompts for the missing capabilities' credentials in the
// background, filling the configuration with whatever the user enters. An
// empty answer leaves the credential unset, which the gate's re-check turns
// into a false result for the waiting caller.
func (p *TerminalProvider) Request(missing []core.Capability) {
	go func() {
		reader := bufio.NewReader(p.in)
		for _, capability := range missing {
			fields := capabilityKeys[capability]
			labels := capabilityPrompts[capability]
			for i, field := range fields {
				target := field(p.cfg)
				if strings.TrimSpace(*target) != "" {
					continue
				}
				fmt.Fprintf(p.out, "🔑 %s (enter to skip): ", labels[i])
				line, err := reader.ReadString('\n')
				if err != nil {
					break
				}
				*target = strings.TrimSpace(line)
			}
		}
		if p.Notify != nil {
			p.Notify()
		}
	}()
}
