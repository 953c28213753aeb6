package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/srimandarbha/conntracker/internal/logging"
	"github.com/srimandarbha/conntracker/internal/proctable"
)

var log = logging.L("config")

const defaultIntervalSeconds = 10

// Validate checks the config for invalid values and returns all fatal
// errors found. Dangerous zero-values are clamped to safe defaults and
// logged rather than treated as fatal.
func (c *Config) Validate() []error {
	var errs []error

	if c.IntervalSeconds <= 0 {
		log.Warn("interval_seconds clamped to default", "configured", c.IntervalSeconds, "default", defaultIntervalSeconds)
		c.IntervalSeconds = defaultIntervalSeconds
	}

	if len(ParsePorts(c.Ports)) == 0 {
		errs = append(errs, fmt.Errorf("ports %q contains no valid port numbers", c.Ports))
	}

	if c.OutputPath == "" && !c.busConfigured() {
		errs = append(errs, fmt.Errorf("no output target: set output_path and/or both broker and topic"))
	}
	if (c.Broker == "") != (c.Topic == "") {
		errs = append(errs, fmt.Errorf("broker and topic must be set together (broker=%q topic=%q)", c.Broker, c.Topic))
	}

	return errs
}

func (c *Config) busConfigured() bool {
	return c.Broker != "" && c.Topic != ""
}

// ParsePorts builds the watched port set from a comma-separated list.
// Tokens that do not parse as 16-bit port numbers are dropped with a
// warning; they never fail the whole list.
func ParsePorts(list string) proctable.PortSet {
	set := make(proctable.PortSet)
	for _, token := range strings.Split(list, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		port, err := strconv.ParseUint(token, 10, 16)
		if err != nil {
			log.Warn("ignoring invalid port", "token", token)
			continue
		}
		set[uint16(port)] = struct{}{}
	}
	return set
}
