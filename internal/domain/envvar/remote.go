package envvar

// RemoteEntry is one existing variable as reported by a provider
type RemoteEntry struct {
	Name string
	// Handle is the provider-specific identifier needed to delete the entry.
	Handle string
	// InScope is true when the entry belongs to the scope being reconciled.
	InScope bool
}

// FilterInScope drops entries outside the scope under reconciliation.
func FilterInScope(entries []RemoteEntry) []RemoteEntry {
	out := make([]RemoteEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.InScope {
			out = append(out, entry)
		}
	}
	return out
}
