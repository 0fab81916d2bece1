package domain

// FormRecord is the accumulating field set for a ticket or feedback
// submission: a flat mapping of field name to string, string list or file
// list. It is merge-updated across many nodes, never replaced wholesale.
type FormRecord map[string]any

// Merge shallow-merges partial into the record, last write wins.
func (f FormRecord) Merge(partial map[string]any) {
	for k, v := range partial {
		f[k] = v
	}
}

// Reset removes every field, leaving the same underlying record usable by
// callers that hold a reference to it.
func (f FormRecord) Reset() {
	for k := range f {
		delete(f, k)
	}
}

// String returns the named field as a string, empty when absent or not a
// string.
func (f FormRecord) String(field string) string {
	v, ok := f[field]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Files returns the named field as a file list, nil when absent.
func (f FormRecord) Files(field string) []File {
	v, ok := f[field]
	if !ok {
		return nil
	}
	files, _ := v.([]File)
	return files
}

// Clone returns a shallow copy of the record.
func (f FormRecord) Clone() FormRecord {
	out := make(FormRecord, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
