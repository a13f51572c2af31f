package config

import "github.com/khaledhikmat/exhibit-guide/model"

const (
	ExhibitDetectorName = "exhibitDetector"
)

type DetectorParameters struct {
	ModelPath             string   `yaml:"model_path"`
	ModelConfigPath       string   `yaml:"model_config_path"`
	LabelsSource          string   `yaml:"labels_source"`
	OutputLayers          []string `yaml:"output_layers"`
	InputSize             int      `yaml:"input_size"`
	Threshold             float64  `yaml:"threshold"`
	DispatchThreshold     float64  `yaml:"dispatch_threshold"`
	MinDispatchIntervalMs int      `yaml:"min_dispatch_interval_ms"`
	MinVlmIntervalMs      int      `yaml:"min_vlm_interval_ms"`
	MaxCacheAgeMs         int      `yaml:"max_cache_age_ms"`
	CameraMoveThresholdPx float64  `yaml:"camera_move_threshold_px"`
	LabelHideMs           int      `yaml:"label_hide_ms"`
	DescriptionHideMs     int      `yaml:"description_hide_ms"`
	ThinkingEscalationMs  int      `yaml:"thinking_escalation_ms"`
	PersistMs             int      `yaml:"persist_ms"`
	MaxDetections         int      `yaml:"max_detections"`
	FallbackUtterance     string   `yaml:"fallback_utterance"`
	Logging               bool     `yaml:"logging"`
}

type DatabaseParameters struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
	DSN  string `yaml:"dsn"`
}

type EmitterParameters struct {
	MQTTBroker      string `yaml:"mqtt_broker"`
	MQTTClientID    string `yaml:"mqtt_client_id"`
	MQTTTopicPrefix string `yaml:"mqtt_topic_prefix"`
	MQTTQoS         byte   `yaml:"mqtt_qos"`
	Encoding        string `yaml:"encoding"`
	WebhookURL      string `yaml:"webhook_url"`
}

type VlmParameters struct {
	Endpoint      string `yaml:"endpoint"`
	TimeoutSecs   int    `yaml:"timeout_secs"`
	OpenAIURL     string `yaml:"openai_url"`
	OpenAIModel   string `yaml:"openai_model"`
	OpenAIAPIKey  string `yaml:"-"`
	Prompt        string `yaml:"prompt"`
	FrameSize     int    `yaml:"frame_size"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

type IService interface {
	GetRunTimeEnv() string
	GetModeMaxShutdownTime() int
	GetStatsPeriodicTimeout() int
	GetCamera() model.Camera
	GetFrameBufferSize() int
	GetAlertBufferSize() int
	GetDetectorParameters() DetectorParameters
	GetVlmParameters() VlmParameters
	GetDatabaseParameters() DatabaseParameters
	GetEmitterParameters() EmitterParameters
	GetControlAddr() string
	GetAnalyzerAddr() string
	GetSnapshotsFolder() string
	GetDetectionsLogFile() string
	GetCatalogFile() string
	GetMissionFile() string
	GetZonesFile() string
}
