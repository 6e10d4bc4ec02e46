package domain

// RemoteDocument is the shared per-account document.
// Fields hold one opaque payload per domain; Timestamps hold the paired
// "<domain>_updated" server times and the document-wide "last_sync",
// all in unix milliseconds.
type RemoteDocument struct {
	AccountID  string            `json:"account_id"`
	Fields     map[string]string `json:"fields"`
	Timestamps map[string]int64  `json:"timestamps"`
}

// Payload returns the field for a domain.
func (d *RemoteDocument) Payload(dom Domain) (string, bool) {
	if d == nil || d.Fields == nil {
		return "", false
	}
	v, ok := d.Fields[string(dom)]
	return v, ok
}

// UpdatedAt returns the server timestamp of a domain field, or zero.
func (d *RemoteDocument) UpdatedAt(dom Domain) int64 {
	if d == nil {
		return 0
	}
	return d.Timestamps[dom.UpdatedField()]
}

// LastSync returns the document-wide last_sync timestamp, or zero.
func (d *RemoteDocument) LastSync() int64 {
	if d == nil {
		return 0
	}
	return d.Timestamps[FieldLastSync]
}

// Clone returns a deep copy.
func (d *RemoteDocument) Clone() *RemoteDocument {
	if d == nil {
		return nil
	}
	out := &RemoteDocument{
		AccountID:  d.AccountID,
		Fields:     make(map[string]string, len(d.Fields)),
		Timestamps: make(map[string]int64, len(d.Timestamps)),
	}
	for k, v := range d.Fields {
		out.Fields[k] = v
	}
	for k, v := range d.Timestamps {
		out.Timestamps[k] = v
	}
	return out
}

// DocumentWrite is a partial merge-write. Fields and timestamps not named
// here are left untouched on the remote document.
type DocumentWrite struct {
	// Fields are payload values keyed by field name.
	Fields map[string]string `json:"fields,omitempty"`

	// Timestamps are client-supplied times keyed by field name.
	Timestamps map[string]int64 `json:"timestamps,omitempty"`

	// ServerTimestamps names fields the server stamps with its own clock.
	ServerTimestamps []string `json:"server_timestamps,omitempty"`
}

// NewDocumentWrite returns an empty write ready for use.
func NewDocumentWrite() DocumentWrite {
	return DocumentWrite{
		Fields:     map[string]string{},
		Timestamps: map[string]int64{},
	}
}

// SetDomain writes a domain payload and stamps its "<domain>_updated" field.
func (w *DocumentWrite) SetDomain(dom Domain, payload string) {
	if w.Fields == nil {
		w.Fields = map[string]string{}
	}
	w.Fields[string(dom)] = payload
	w.ServerTimestamps = append(w.ServerTimestamps, dom.UpdatedField())
}

// SetTimestamp writes a client-supplied timestamp field.
func (w *DocumentWrite) SetTimestamp(field string, ms int64) {
	if w.Timestamps == nil {
		w.Timestamps = map[string]int64{}
	}
	w.Timestamps[field] = ms
}

// IsEmpty reports whether the write carries nothing.
func (w DocumentWrite) IsEmpty() bool {
	return len(w.Fields) == 0 && len(w.Timestamps) == 0 && len(w.ServerTimestamps) == 0
}
