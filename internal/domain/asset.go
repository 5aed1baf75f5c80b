package domain

import "time"

// Asset statuses. "Identified" is the transient display status set right
// after AI identification; the remaining three are the user-selectable final
// states.
const (
	AssetStatusIdentified  = "Identified"
	AssetStatusInstalled   = "Installed"
	AssetStatusServiced    = "Serviced"
	AssetStatusNeedsRepair = "Needs Repair"
)

// ValidAssetStatus reports whether s is one of the user-selectable statuses.
func ValidAssetStatus(s string) bool {
	switch s {
	case AssetStatusInstalled, AssetStatusServiced, AssetStatusNeedsRepair:
		return true
	}
	return false
}

// AssetDetails is the nested details bag carried alongside an asset record.
type AssetDetails struct {
	Category     string   `json:"category"`
	Condition    string   `json:"asset_condition"`
	Description  string   `json:"description"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Metadata     []string `json:"metadata"`
}

// Asset is a physical item surveyed during a job. ID is zero until the asset
// is first persisted; persistence is insert-or-update keyed on that.
type Asset struct {
	ID        int64
	JobID     int64
	Name      string
	Status    string
	Details   AssetDetails
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Saved reports whether the asset has been persisted before.
func (a *Asset) Saved() bool {
	return a.ID != 0
}
