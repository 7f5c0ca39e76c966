package protocol

// Command is one entry in the flat command registry described in §4.11:
// "commands form a flat registry with one of three modes." This
// implementation only ever runs within the daemon process (there is no
// separate in-process "client mode" dispatch to gate), so the daemon/client
// mode mask collapses to the one distinction that actually matters here:
// whether the command is poison-immune.
type Command struct {
	// Name is the command's wire name, the array's first element.
	Name string
	// PoisonImmune marks a command as part of §4.8's small whitelist
	// ("shutdown, version, list-capabilities") that keeps working after
	// the daemon has been poisoned.
	PoisonImmune bool
	// Handler implements the command, returning the fields to merge into
	// the response envelope (which already carries "version" and any
	// "root" the handler itself sets).
	Handler func(*Request) (map[string]interface{}, error)
}

// Registry is a name → Command lookup table, built once at startup and
// shared read-only across every connection. This replaces the
// static-initializer registration pattern the specification's source uses
// for commands (§9 "Global mutable registries... Replace with an explicit
// Registry value built once at startup").
type Registry struct {
	commands map[string]*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds cmd to the registry, overwriting any existing command of
// the same name.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
}

// Lookup returns the named command, if registered.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// DefaultRegistry builds the registry covering the full core command
// surface enumerated in spec.md §6.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Command{Name: "version", PoisonImmune: true, Handler: cmdVersion})
	r.Register(&Command{Name: "list-capabilities", PoisonImmune: true, Handler: cmdListCapabilities})
	r.Register(&Command{Name: "get-sockname", Handler: cmdGetSockname})

	r.Register(&Command{Name: "watch", Handler: cmdWatch})
	r.Register(&Command{Name: "watch-project", Handler: cmdWatchProject})
	r.Register(&Command{Name: "watch-del", Handler: cmdWatchDel})
	r.Register(&Command{Name: "watch-del-all", Handler: cmdWatchDelAll})
	r.Register(&Command{Name: "watch-list", Handler: cmdWatchList})

	r.Register(&Command{Name: "clock", Handler: cmdClock})
	r.Register(&Command{Name: "query", Handler: cmdQuery})

	r.Register(&Command{Name: "subscribe", Handler: cmdSubscribe})
	r.Register(&Command{Name: "unsubscribe", Handler: cmdUnsubscribe})
	r.Register(&Command{Name: "flush-subscriptions", Handler: cmdFlushSubscriptions})

	r.Register(&Command{Name: "state-enter", Handler: cmdStateEnter})
	r.Register(&Command{Name: "state-leave", Handler: cmdStateLeave})

	r.Register(&Command{Name: "log", Handler: cmdLog})
	r.Register(&Command{Name: "log-level", Handler: cmdLogLevel})

	r.Register(&Command{Name: "get-config", Handler: cmdGetConfig})

	r.Register(&Command{Name: "debug-recrawl", Handler: cmdDebugRecrawl})
	r.Register(&Command{Name: "debug-show-cursors", Handler: cmdDebugShowCursors})
	r.Register(&Command{Name: "debug-ageout", Handler: cmdDebugAgeOut})
	r.Register(&Command{Name: "debug-poison", Handler: cmdDebugPoison})

	r.Register(&Command{Name: "shutdown-server", PoisonImmune: true, Handler: cmdShutdownServer})

	return r
}
