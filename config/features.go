package config

import "os"

type Features struct {
	AuthEnabled    bool
	MonitorLoop    bool
	PrivilegedICMP bool
}

func LoadFeatures() Features {
	return Features{
		AuthEnabled:    os.Getenv("AUTH_ENABLED") == "true",
		MonitorLoop:    os.Getenv("MONITOR_LOOP_ENABLED") == "true",
		PrivilegedICMP: os.Getenv("PRIVILEGED_ICMP") == "true",
	}
}
