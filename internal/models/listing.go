package models

// Listing is one row of an uploaded spreadsheet. XPath holds the captured
// HTML fragment that contains the product's price.
type Listing struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	XPath string `json:"xpath"`
}
