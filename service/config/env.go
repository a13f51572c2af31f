package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/khaledhikmat/exhibit-guide/model"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

var cameraIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

type settings struct {
	RunTimeEnv        string             `yaml:"run_time_env"`
	ShutdownSecs      int                `yaml:"shutdown_secs"`
	StatsPeriodicSecs int                `yaml:"stats_periodic_secs"`
	Camera            model.Camera       `yaml:"camera"`
	FrameBufferSize   int                `yaml:"frame_buffer_size"`
	AlertBufferSize   int                `yaml:"alert_buffer_size"`
	Detector          DetectorParameters `yaml:"detector"`
	Vlm               VlmParameters      `yaml:"vlm"`
	Database          DatabaseParameters `yaml:"database"`
	Emitter           EmitterParameters  `yaml:"emitter"`
	ControlAddr       string             `yaml:"control_addr"`
	AnalyzerAddr      string             `yaml:"analyzer_addr"`
	SnapshotsFolder   string             `yaml:"snapshots_folder"`
	DetectionsLogFile string             `yaml:"detections_log_file"`
	CatalogFile       string             `yaml:"catalog_file"`
	MissionFile       string             `yaml:"mission_file"`
	ZonesFile         string             `yaml:"zones_file"`
}

type envService struct {
	s settings
}

// New builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE and finally the environment. Later sources win.
func New() (IService, error) {
	s := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&s, path); err != nil {
			return nil, err
		}
	}

	applyEnv(&s)

	if err := validate(&s); err != nil {
		return nil, xerrors.Errorf("invalid configuration: %w", err)
	}

	return &envService{s: s}, nil
}

// NewDefault returns the built-in configuration. Used by tests and tools.
func NewDefault() IService {
	return &envService{s: defaults()}
}

func defaults() settings {
	return settings{
		RunTimeEnv:        "dev",
		ShutdownSecs:      5,
		StatsPeriodicSecs: 30,
		Camera: model.Camera{
			ID:         "camera-1",
			Name:       "lobby",
			Source:     "0",
			FramerType: "camera",
		},
		FrameBufferSize: 1,
		AlertBufferSize: 100,
		Detector: DetectorParameters{
			ModelPath:             "./models/sc_exhibit/model.onnx",
			LabelsSource:          "./models/sc_exhibit/labels.txt",
			OutputLayers:          []string{"detected_boxes", "detected_scores", "detected_classes"},
			InputSize:             320,
			Threshold:             0.5,
			DispatchThreshold:     0.9,
			MinDispatchIntervalMs: 10000,
			MinVlmIntervalMs:      5000,
			MaxCacheAgeMs:         15000,
			CameraMoveThresholdPx: 40,
			LabelHideMs:           5000,
			DescriptionHideMs:     10000,
			ThinkingEscalationMs:  3000,
			PersistMs:             600,
			MaxDetections:         20,
			FallbackUtterance:     "Sorry, I could not get a good look at that. Could you try again?",
		},
		Vlm: VlmParameters{
			Endpoint:      "http://localhost:8081",
			TimeoutSecs:   30,
			OpenAIURL:     "https://api.openai.com/v1/chat/completions",
			OpenAIModel:   "gpt-4o",
			Prompt:        "You are a museum guide. Describe the exhibit visible in this camera frame in two or three sentences for a visitor.",
			FrameSize:     512,
			MaxUploadSize: 10 << 20,
		},
		Database: DatabaseParameters{
			Type: "sqlite",
			Path: "./exhibit-guide.db",
		},
		Emitter: EmitterParameters{
			MQTTClientID:    "exhibit-guide",
			MQTTTopicPrefix: "museum",
			MQTTQoS:         1,
			Encoding:        "json",
		},
		ControlAddr:       ":8080",
		AnalyzerAddr:      ":8081",
		SnapshotsFolder:   "./snapshots",
		DetectionsLogFile: "detections.log",
	}
}

func applyFile(s *settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return xerrors.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return xerrors.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func applyEnv(s *settings) {
	envString("RUN_TIME_ENV", &s.RunTimeEnv)
	envInt("SHUTDOWN_SECS", &s.ShutdownSecs)
	envInt("STATS_PERIODIC_SECS", &s.StatsPeriodicSecs)

	envString("CAMERA_ID", &s.Camera.ID)
	envString("CAMERA_NAME", &s.Camera.Name)
	envString("CAMERA_SOURCE", &s.Camera.Source)
	envString("CAMERA_FRAMER_TYPE", &s.Camera.FramerType)
	envInt("FRAME_BUFFER_SIZE", &s.FrameBufferSize)
	envInt("ALERT_BUFFER_SIZE", &s.AlertBufferSize)

	d := &s.Detector
	envString("MODEL_PATH", &d.ModelPath)
	envString("MODEL_CONFIG_PATH", &d.ModelConfigPath)
	envString("LABELS_SOURCE", &d.LabelsSource)
	if v := os.Getenv("MODEL_OUTPUT_LAYERS"); v != "" {
		d.OutputLayers = strings.Split(v, ",")
	}
	envInt("MODEL_INPUT_SIZE", &d.InputSize)
	envFloat("DETECTION_THRESHOLD", &d.Threshold)
	envFloat("DISPATCH_THRESHOLD", &d.DispatchThreshold)
	envInt("MIN_DISPATCH_INTERVAL_MS", &d.MinDispatchIntervalMs)
	envInt("MIN_VLM_INTERVAL_MS", &d.MinVlmIntervalMs)
	envInt("MAX_CACHE_AGE_MS", &d.MaxCacheAgeMs)
	envFloat("CAMERA_MOVE_THRESHOLD_PX", &d.CameraMoveThresholdPx)
	envInt("LABEL_HIDE_MS", &d.LabelHideMs)
	envInt("DESCRIPTION_HIDE_MS", &d.DescriptionHideMs)
	envInt("THINKING_ESCALATION_MS", &d.ThinkingEscalationMs)
	envInt("PERSIST_MS", &d.PersistMs)
	envInt("MAX_DETECTIONS", &d.MaxDetections)
	envString("FALLBACK_UTTERANCE", &d.FallbackUtterance)
	envBool("DETECTION_LOGGING", &d.Logging)

	v := &s.Vlm
	envString("VLM_ENDPOINT", &v.Endpoint)
	envInt("VLM_TIMEOUT_SECS", &v.TimeoutSecs)
	envString("OPENAI_URL", &v.OpenAIURL)
	envString("OPENAI_MODEL", &v.OpenAIModel)
	envString("OPENAI_API_KEY", &v.OpenAIAPIKey)
	envString("VLM_PROMPT", &v.Prompt)
	envInt("FRAME_SIZE", &v.FrameSize)
	if raw := os.Getenv("MAX_UPLOAD_SIZE"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			v.MaxUploadSize = n
		}
	}

	envString("DB_TYPE", &s.Database.Type)
	envString("DB_PATH", &s.Database.Path)
	envString("DB_DSN", &s.Database.DSN)

	e := &s.Emitter
	envString("MQTT_BROKER", &e.MQTTBroker)
	envString("MQTT_CLIENT_ID", &e.MQTTClientID)
	envString("MQTT_TOPIC_PREFIX", &e.MQTTTopicPrefix)
	if raw := os.Getenv("MQTT_QOS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			// out of range values are kept out of range for validate
			if n < 0 || n > 2 {
				n = 255
			}
			e.MQTTQoS = byte(n)
		}
	}
	envString("EMITTER_ENCODING", &e.Encoding)
	envString("WEBHOOK_URL", &e.WebhookURL)

	envString("CONTROL_ADDR", &s.ControlAddr)
	envString("ANALYZER_ADDR", &s.AnalyzerAddr)
	envString("SNAPSHOTS_FOLDER", &s.SnapshotsFolder)
	envString("DETECTIONS_LOG_FILE", &s.DetectionsLogFile)
	envString("CATALOG_FILE", &s.CatalogFile)
	envString("MISSION_FILE", &s.MissionFile)
	envString("ZONES_FILE", &s.ZonesFile)
}

func validate(s *settings) error {
	if !cameraIDPattern.MatchString(s.Camera.ID) {
		return xerrors.New("camera id must match pattern [a-z0-9-]+")
	}

	d := s.Detector
	if d.Threshold < 0 || d.Threshold > 1 {
		return xerrors.Errorf("detector threshold %v must be within 0..1", d.Threshold)
	}
	if d.DispatchThreshold < d.Threshold || d.DispatchThreshold > 1 {
		return xerrors.Errorf("dispatch threshold %v must be within threshold..1", d.DispatchThreshold)
	}
	if d.InputSize <= 0 {
		return xerrors.New("detector input size must be > 0")
	}
	if len(d.OutputLayers) != 3 {
		return xerrors.Errorf("expected 3 model output layers (boxes, scores, classes), got %d", len(d.OutputLayers))
	}

	switch s.Emitter.Encoding {
	case "json", "msgpack":
	default:
		return xerrors.Errorf("unsupported emitter encoding: %s", s.Emitter.Encoding)
	}

	if s.Emitter.MQTTQoS > 2 {
		return xerrors.Errorf("mqtt qos %d must be 0, 1 or 2", s.Emitter.MQTTQoS)
	}

	switch s.Database.Type {
	case "sqlite", "postgres":
	default:
		return xerrors.Errorf("unsupported database type: %s", s.Database.Type)
	}

	if s.FrameBufferSize <= 0 {
		s.FrameBufferSize = 1
	}
	if s.AlertBufferSize <= 0 {
		s.AlertBufferSize = 100
	}

	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (svc *envService) GetRunTimeEnv() string {
	return svc.s.RunTimeEnv
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return svc.s.ShutdownSecs
}

func (svc *envService) GetStatsPeriodicTimeout() int {
	return svc.s.StatsPeriodicSecs
}

func (svc *envService) GetCamera() model.Camera {
	return svc.s.Camera
}

func (svc *envService) GetFrameBufferSize() int {
	return svc.s.FrameBufferSize
}

func (svc *envService) GetAlertBufferSize() int {
	return svc.s.AlertBufferSize
}

func (svc *envService) GetDetectorParameters() DetectorParameters {
	return svc.s.Detector
}

func (svc *envService) GetVlmParameters() VlmParameters {
	return svc.s.Vlm
}

func (svc *envService) GetDatabaseParameters() DatabaseParameters {
	return svc.s.Database
}

func (svc *envService) GetEmitterParameters() EmitterParameters {
	return svc.s.Emitter
}

func (svc *envService) GetControlAddr() string {
	return svc.s.ControlAddr
}

func (svc *envService) GetAnalyzerAddr() string {
	return svc.s.AnalyzerAddr
}

func (svc *envService) GetSnapshotsFolder() string {
	return svc.s.SnapshotsFolder
}

func (svc *envService) GetDetectionsLogFile() string {
	return svc.s.DetectionsLogFile
}

func (svc *envService) GetCatalogFile() string {
	return svc.s.CatalogFile
}

func (svc *envService) GetMissionFile() string {
	return svc.s.MissionFile
}

func (svc *envService) GetZonesFile() string {
	return svc.s.ZonesFile
}
