package types

// PMSType identifies a property management system backend
type PMSType string

const (
	PMSTypeSmoobu PMSType = "smoobu"
	PMSTypeBeds24 PMSType = "beds24"
)

func (t PMSType) Validate() bool {
	switch t {
	case PMSTypeSmoobu, PMSTypeBeds24:
		return true
	}
	return false
}
