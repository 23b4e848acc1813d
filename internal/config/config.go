package config

import "time"

// Config is the root configuration for stagewise.
type Config struct {
	Backend BackendConfig `json:"backend"`
	Storage StorageConfig `json:"storage"`
	Output  OutputConfig  `json:"output"`
	Events  EventsConfig  `json:"events"`
	Mock    MockConfig    `json:"mock"`
	Stages  []StageConfig `json:"stages,omitempty"`
}

// BackendConfig describes the chat / diagram HTTP API.
type BackendConfig struct {
	URL         string   `json:"url"`
	ChatPath    string   `json:"chat_path"`    // must contain {agent_id}
	DiagramPath string   `json:"diagram_path"`
	Timeout     Duration `json:"timeout,omitempty"`
}

// StorageConfig selects the session store driver.
type StorageConfig struct {
	Driver string `json:"driver"` // "file" or "sqlite"
	Dir    string `json:"dir"`    // default: $STAGEWISE_PATH/sessions
}

// OutputConfig controls where generated diagrams are written.
type OutputConfig struct {
	Dir string `json:"dir"` // default: $STAGEWISE_PATH/diagrams
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int    `json:"buffer_size"`
	LogDir     string `json:"log_dir"` // default: $STAGEWISE_PATH/logs
}

// MockConfig holds the mock backend listen address.
type MockConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StageConfig overrides one entry of the stage table.
type StageConfig struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	AgentID int      `json:"agent_id,omitempty"`
	Mode    string   `json:"mode"` // "text" or "diagram"
	Options []string `json:"options,omitempty"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
