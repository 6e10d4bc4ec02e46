package driven

// Notifier receives fire-and-forget reload hints after remote data
// overwrote local state.
type Notifier interface {
	SettingsChanged()
	AccountChanged()
	BookmarksChanged()
}
