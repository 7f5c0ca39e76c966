package daemon

const (
	// Host is a loopback hostname. Nothing in the daemon uses it: the daemon
	// accepts connections only on its IPC endpoint (see EndpointPath).
	Host = "localhost"
	// DefaultPort is a TCP port number. Nothing in the daemon uses it, and
	// the daemon does not listen on any TCP port.
	DefaultPort = 31116
)
