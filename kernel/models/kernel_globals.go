package models

type Config struct {
	PortKernel int    `json:"port_kernel"`
	LogLevel   string `json:"log_level"`
	MemorySize int    `json:"memory_size"`
	Log2Envs   int    `json:"log2_envs"`
	Program    string `json:"program"`
	MonitorTTY bool   `json:"monitor_tty"`
	DumpPath   string `json:"dump_path"`
}

var KernelConfig *Config
