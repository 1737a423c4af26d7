package models

// ResponseType classifies what kind of turn the extractor saw.
type ResponseType string

const (
	ResponseConfirmation ResponseType = "confirmation"
	ResponseRejection    ResponseType = "rejection"
	ResponseLocation     ResponseType = "location"
	ResponseTime         ResponseType = "time"
	ResponsePhone        ResponseType = "phone"
	ResponseAutoAssign   ResponseType = "auto_assign"
	ResponseVague        ResponseType = "vague"
)

// Extraction is the tagged output of the AI slot extractor. Empty fields mean
// "not mentioned"; the conversation machine merges by field and never lets an
// empty extraction overwrite previously confirmed slots.
type Extraction struct {
	From                 string       `json:"from"`
	To                   string       `json:"to"`
	DateTime             string       `json:"dateTime"` // "2006-01-02 15:04" in the configured zone
	DriverPhone          string       `json:"driverPhone"`
	ResponseType         ResponseType `json:"responseType"`
	NeedsClarification   bool         `json:"needsClarification"`
	ClarificationMessage string       `json:"clarificationMessage"`
}

// Empty reports whether the extractor found nothing usable.
func (e Extraction) Empty() bool {
	return e.From == "" && e.To == "" && e.DateTime == "" && e.DriverPhone == ""
}
