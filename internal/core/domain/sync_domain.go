package domain

// Domain is one named slice of local state synced as a single document field.
type Domain string

// Synced domains.
const (
	DomainSettings              Domain = "settings"
	DomainHomeSettings          Domain = "home_settings"
	DomainDataStoreDump         Domain = "data_store_dump"
	DomainRepositories          Domain = "repositories"
	DomainAccounts              Domain = "accounts"
	DomainPlugins               Domain = "plugins_online"
	DomainResumeWatching        Domain = "resume_watching"
	DomainResumeWatchingDeleted Domain = "resume_watching_deleted"
)

// FieldLastSync is the document-wide sync timestamp field.
const FieldLastSync = "last_sync"

// AllDomains returns every domain in apply order.
// The two resume-watching halves are adjacent and always processed together.
func AllDomains() []Domain {
	return []Domain{
		DomainSettings,
		DomainHomeSettings,
		DomainDataStoreDump,
		DomainRepositories,
		DomainAccounts,
		DomainPlugins,
		DomainResumeWatching,
		DomainResumeWatchingDeleted,
	}
}

// IsValid returns true if the domain is recognised.
func (d Domain) IsValid() bool {
	for _, known := range AllDomains() {
		if d == known {
			return true
		}
	}
	return false
}

// UpdatedField returns the name of the paired server timestamp field.
func (d Domain) UpdatedField() string {
	return string(d) + "_updated"
}

// RaisesReload reports whether an overwrite of this domain should reload UI state.
func (d Domain) RaisesReload() bool {
	return d == DomainSettings || d == DomainHomeSettings || d == DomainAccounts
}

// String returns the string representation.
func (d Domain) String() string {
	return string(d)
}
