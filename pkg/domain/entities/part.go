package entities

// PartNumber represents a unique part identifier, used for both finished-good
// SKUs and raw-material components
type PartNumber string

// PartInfo represents part master data relevant to capacity reporting
type PartInfo struct {
	Part        PartNumber
	Description string
	BaseUnit    string
}
