package actions

import "fmt"

// NoConceptRecidForDraftError is returned when a draft does not reference the parent shared by its versions.
type NoConceptRecidForDraftError struct {
	RecID string
}

func (e NoConceptRecidForDraftError) Error() string {
	return fmt.Sprintf("draft %q has no conceptrecid", e.RecID)
}

type ParentNotFoundError struct {
	ConceptRecID string
}

func (e ParentNotFoundError) Error() string {
	return fmt.Sprintf("parent for conceptrecid %q not found", e.ConceptRecID)
}

type RecordNotFoundError struct {
	// Key names what the record was looked up by, e.g. `recid` or `bucket`.
	Key   string
	Value string
}

func (e RecordNotFoundError) Error() string {
	return fmt.Sprintf("record not found for %s %q", e.Key, e.Value)
}

type CommunityNotFoundError struct {
	Slug string
}

func (e CommunityNotFoundError) Error() string {
	return fmt.Sprintf("community %q not found", e.Slug)
}

// MissingRowError is returned when a row the transform correlates on is absent from the transaction.
type MissingRowError struct {
	Table       string
	Description string
}

func (e MissingRowError) Error() string {
	return fmt.Sprintf("missing %s row: %s", e.Table, e.Description)
}
