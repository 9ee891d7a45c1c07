package params

// ListenerConfig is where the web daemon listens.
type ListenerConfig struct {
	// Network is "tcp", "tcp4", "tcp6" or "unix".
	Network string
	Address string
}

type WebDaemonConfig struct {
	ListenerConfig
	DataDir string

	// ExportInflux, when set, writes segment analytics to InfluxDB
	// every time a run is recomputed.
	ExportInflux bool
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir:        DatadirRoot,
		ListenerConfig: DefaultWebListenerConfig(),
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		DataDir: "",
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: "localhost:3333",
		},
	}
}
