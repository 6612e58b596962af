package catalog

// Profile describes the column layout of a listings spreadsheet. Adding a new
// export format is adding a Profile to profiles.
type Profile struct {
	Name      string
	TitleCol  string
	AuthorCol string
	// ExtraAuthorsCol holds comma separated co-authors, when the format has one.
	ExtraAuthorsCol string
	ISBNCol         string
	ConditionCol    string
	DescCol         string
	CoverCol        string
}

// requiredCols returns the columns that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	cols := []string{p.TitleCol, p.AuthorCol, p.ISBNCol}
	if p.ConditionCol != "" {
		cols = append(cols, p.ConditionCol)
	}

	return cols
}

// profiles is tried in order. More specific layouts come first.
var profiles = []Profile{
	{
		Name:         "bookxchange",
		TitleCol:     "title",
		AuthorCol:    "authors",
		ISBNCol:      "isbn",
		ConditionCol: "condition",
		DescCol:      "description",
		CoverCol:     "cover_url",
	},
	{
		Name:            "goodreads",
		TitleCol:        "Title",
		AuthorCol:       "Author",
		ExtraAuthorsCol: "Additional Authors",
		ISBNCol:         "ISBN13",
	},
	{
		Name:      "librarything",
		TitleCol:  "Title",
		AuthorCol: "Primary Author",
		ISBNCol:   "ISBN",
		DescCol:   "Summary",
	},
}
