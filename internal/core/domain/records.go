package domain

import "strings"

// ResumeRecord records that a title was last watched at UpdateTime.
// It is keyed by ParentID.
type ResumeRecord struct {
	ParentID       int   `json:"parentId"`
	EpisodeID      *int  `json:"episodeId,omitempty"`
	Episode        *int  `json:"episode,omitempty"`
	Season         *int  `json:"season,omitempty"`
	UpdateTime     int64 `json:"updateTime"`
	IsFromDownload bool  `json:"isFromDownload"`
}

// Tombstones maps a record id to its deletion time in unix milliseconds.
type Tombstones map[int]int64

// Get returns the deletion time for id, or zero when absent.
func (t Tombstones) Get(id int) int64 {
	return t[id]
}

// Clone returns an independent copy.
func (t Tombstones) Clone() Tombstones {
	out := make(Tombstones, len(t))
	for id, ts := range t {
		out[id] = ts
	}
	return out
}

// PluginRecord describes one installed online plugin.
// AddedDate is the LWW timestamp for both installation and soft deletion.
type PluginRecord struct {
	InternalName string `json:"internalName"`
	URL          string `json:"url,omitempty"`
	FilePath     string `json:"filePath"`
	Version      int    `json:"version,omitempty"`
	AddedDate    int64  `json:"addedDate"`
	IsDeleted    bool   `json:"isDeleted"`
}

// Key returns the merge identity of the plugin.
// Internal names are compared trimmed and case-insensitively.
func (p PluginRecord) Key() string {
	return PluginKey(p.InternalName)
}

// PluginKey normalises an internal name into a merge identity.
func PluginKey(internalName string) string {
	return strings.ToLower(strings.TrimSpace(internalName))
}
