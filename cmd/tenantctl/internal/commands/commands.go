package commands

// Globals carries flags shared by all tenantctl commands.
type Globals struct {
	Debug   bool
	Version string
}
