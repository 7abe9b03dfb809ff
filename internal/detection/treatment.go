package detection

// Treatments returns the treatment panel for the given labels.
//
// Entries are deduplicated by title; the first label carrying a title
// supplies its description and its position in the list. Labels without a
// treatment title are skipped.
func Treatments(labels []Label) []Treatment {
	seen := make(map[string]struct{}, len(labels))
	out := make([]Treatment, 0, len(labels))

	for _, l := range labels {
		title := l.Treatment.Title
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, l.Treatment)
	}

	return out
}
