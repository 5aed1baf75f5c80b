package ai

import (
	"context"
	"fmt"
	"strings"
)

// Static is a deterministic collaborator used in development when no API key
// is configured, and in tests. It always identifies the same appliance.
type Static struct {
	// Fail makes IdentifyAsset answer with ErrNotIdentified instead.
	Fail bool
}

var _ Collaborator = (*Static)(nil)

func (s *Static) IdentifyAsset(_ context.Context, images []string) (*Identification, error) {
	if s.Fail {
		return nil, ErrNotIdentified
	}
	return &Identification{
		Name:         "Air Handling Unit",
		Category:     "HVAC",
		Condition:    "Good",
		Description:  fmt.Sprintf("Identified from %d photo(s).", len(images)),
		Manufacturer: "Daikin",
		Model:        "AHU-400",
		Metadata:     []string{"ceiling mounted"},
	}, nil
}

func (s *Static) Summarize(_ context.Context, text string) (string, error) {
	return "Work summary: " + strings.TrimSpace(text), nil
}
