package shared

// Platform permissions. Tokens are namespaced resource.action and checked by
// exact match only; there is no wildcard or hierarchy semantics.
const (
	PermFramesRead  = "frames.read"
	PermFramesWrite = "frames.write"

	PermQuestsRead  = "quests.read"
	PermQuestsWrite = "quests.write"

	PermMintsRead  = "mints.read"
	PermMintsWrite = "mints.write"

	PermMediaRead  = "media.read"
	PermMediaWrite = "media.write"

	PermWorkersControl = "workers.control"

	PermDAOSubmit = "dao.submit"

	PermSystemAdmin = "system.admin"
)

// ReadScopes lists the read-only permissions across all content modules.
func ReadScopes() []string {
	return []string{
		PermFramesRead,
		PermQuestsRead,
		PermMintsRead,
		PermMediaRead,
	}
}

// WriteScopes lists the mutating permissions across all content modules.
func WriteScopes() []string {
	return []string{
		PermFramesWrite,
		PermQuestsWrite,
		PermMintsWrite,
		PermMediaWrite,
	}
}

// AllScopes lists every permission the platform knows about.
func AllScopes() []string {
	scopes := append(ReadScopes(), WriteScopes()...)
	return append(scopes,
		PermWorkersControl,
		PermDAOSubmit,
		PermSystemAdmin,
	)
}
