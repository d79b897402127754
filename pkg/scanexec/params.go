package scanexec

import (
	"encoding/json"
	"fmt"
	"time"
)

// Params defines the input required to initiate a scan run.
type Params struct {
	// Target is an IPv4/IPv6 literal or a hostname.
	Target string `json:"target"`
	// Ports is a port-set specification such as "common", "top1000",
	// "all" or "22,80,8000-8100". Empty means the common set.
	Ports string `json:"ports"`
	// Timeout and Workers override the tuned values when positive.
	// Timeout is encoded as a duration string such as "750ms".
	Timeout time.Duration `json:"-"`
	Workers int           `json:"workers,omitempty"`
	// ShowDynamic asks callers to display ephemeral ports. The scan itself
	// always records them; pass it to Report.Visible.
	ShowDynamic  bool   `json:"show_dynamic,omitempty"`
	OutputFormat string `json:"-"`
}

// paramsAlias drops the methods so the default field encoding applies.
type paramsAlias Params

type paramsJSON struct {
	paramsAlias
	Timeout string `json:"timeout,omitempty"`
}

// MarshalJSON writes Timeout as a duration string.
func (p Params) MarshalJSON() ([]byte, error) {
	out := paramsJSON{paramsAlias: paramsAlias(p)}
	if p.Timeout != 0 {
		out.Timeout = p.Timeout.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads Timeout from a duration string.
func (p *Params) UnmarshalJSON(data []byte) error {
	var in paramsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Params(in.paramsAlias)
	if in.Timeout != "" {
		d, err := time.ParseDuration(in.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		p.Timeout = d
	}
	return nil
}
