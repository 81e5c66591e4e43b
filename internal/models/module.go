package models

// Access controls who a course is shown to.
type Access string

const (
	AccessPublic  Access = "PUBLIC"
	AccessPrivate Access = "PRIVATE"
)

// Course is one content unit of a module.
type Course struct {
	Name       string   `json:"name"`
	Videos     []string `json:"videos"`
	Tags       []string `json:"tags"`
	Access     Access   `json:"access"`
	Accessor   []string `json:"accessor,omitempty"`   // company names, PUBLIC only
	SummaryPDF string   `json:"summaryPdf,omitempty"` // stored file reference
}

// Module is a named list of courses.
type Module struct {
	ModuleName string   `json:"moduleName"`
	Content    []Course `json:"content"`
}
