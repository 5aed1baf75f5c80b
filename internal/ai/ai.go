// Package ai holds the collaborator the backend delegates image
// identification and summary drafting to.
package ai

import (
	"context"
	"errors"
)

// ErrNotIdentified means the collaborator looked at the images and could not
// name a single dominant item. The transport maps it to its wire sentinel.
var ErrNotIdentified = errors.New("ai: cannot identify item")

// Identification is the structured result of looking at a job's photos.
// Omitted fields stay empty; display defaults are the client's concern.
type Identification struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Condition    string   `json:"asset_condition"`
	Description  string   `json:"description"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Metadata     []string `json:"metadata"`
}

// Collaborator is what the AI endpoint needs: identify one asset from a set
// of base64 JPEG images, and draft a report summary from free text.
type Collaborator interface {
	IdentifyAsset(ctx context.Context, images []string) (*Identification, error)
	Summarize(ctx context.Context, text string) (string, error)
}
