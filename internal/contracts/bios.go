package contracts

// PostStatus is a POST (power-on self test) result code for one device.
type PostStatus int

const (
	PostOK          PostStatus = 0
	PostDegraded    PostStatus = 1
	PostWarn        PostStatus = 2
	PostFail        PostStatus = 3
)

// PostResult is one device's POST outcome, matching the AsyncAPI payload
// schema referenced in spec.md §6
// (schemas/asyncapi/qiki.events.v1.bios_status/v1/payload.schema.json).
type PostResult struct {
	DeviceID      string     `json:"device_id"`
	DeviceName    string     `json:"device_name,omitempty"`
	Status        PostStatus `json:"status"`
	StatusMessage string     `json:"status_message,omitempty"`
}

// BiosStatus is the canonical BIOS status entity (spec.md §3).
type BiosStatus struct {
	EventSchemaVersion int          `json:"event_schema_version"`
	Source             string       `json:"source"`
	Subject            string       `json:"subject"`
	Timestamp          float64      `json:"timestamp"`
	FirmwareVersion    string       `json:"firmware_version"`
	AllSystemsGo       bool         `json:"all_systems_go"`
	PostResults        []PostResult `json:"post_results"`
	HardwareProfileHash string      `json:"hardware_profile_hash,omitempty"`
	UptimeS            float64      `json:"uptime_s"`
}
