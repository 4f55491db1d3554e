package entries

// CustomFields maps the journal, meeting, imprint and thesis sub-documents onto their custom fields.
func CustomFields(legacy map[string]any) map[string]any {
	journal := obj(legacy, "journal")
	meeting := obj(legacy, "meeting")
	imprint := obj(legacy, "imprint")
	partOf := obj(legacy, "part_of")
	thesis := obj(legacy, "thesis")

	return compactMap(map[string]any{
		"journal:journal": map[string]any{
			"title":  str(journal, "title"),
			"volume": str(journal, "volume"),
			"issue":  str(journal, "issue"),
			"pages":  str(journal, "pages"),
		},
		"meeting:meeting": map[string]any{
			"title":        str(meeting, "title"),
			"acronym":      str(meeting, "acronym"),
			"dates":        str(meeting, "dates"),
			"place":        str(meeting, "place"),
			"url":          str(meeting, "url"),
			"session":      str(meeting, "session"),
			"session_part": str(meeting, "session_part"),
		},
		"imprint:imprint": map[string]any{
			"title": str(partOf, "title"),
			"pages": str(partOf, "pages"),
			"place": str(imprint, "place"),
			"isbn":  str(imprint, "isbn"),
		},
		"thesis:university": str(thesis, "university"),
	})
}
