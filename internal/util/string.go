package util

// FilterOutAllowed returns the elements of elems that are not in allowed.
func FilterOutAllowed(elems []string, allowed map[string]struct{}) (notAllowed []string) {
	for _, e := range elems {
		if _, allow := allowed[e]; !allow {
			notAllowed = append(notAllowed, e)
		}
	}
	return
}

func PtrString(v string) *string { return &v }

func DerefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
