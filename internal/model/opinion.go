package model

// Citation is one outbound edge in the citation graph. The excerpt is the
// short descriptive text (parenthetical) the citing opinion wrote about the
// cited one, when available.
type Citation struct {
	OpinionID string `json:"opinion_id"`
	Excerpt   string `json:"excerpt,omitempty"`
}

// Opinion is a resolved opinion as returned by the citation graph accessor
type Opinion struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"` // Case name, e.g. "Smith v. Jones"
	Court     string     `json:"court,omitempty"`
	Text      string     `json:"text,omitempty"` // Full opinion text (may be truncated upstream)
	Citations []Citation `json:"citations"`      // Outbound citations
}

// CitedIDs returns the distinct outbound citation ids in first-seen order
func (o *Opinion) CitedIDs() []string {
	seen := make(map[string]bool, len(o.Citations))
	var ids []string
	for _, c := range o.Citations {
		if c.OpinionID == "" || seen[c.OpinionID] {
			continue
		}
		seen[c.OpinionID] = true
		ids = append(ids, c.OpinionID)
	}
	return ids
}
