package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types
	TypeHTTP  = "http"
	TypeRedis = "redis"
	TypeQueue = "queue"

	// Supported queue providers
	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"

	httpDefaultMethod  = "POST"
	httpDefaultTimeout = 5
	redisDefaultStream = "newsverdict:verdicts"
)

type configFile struct {
	Publishers []Config `json:"publishers" yaml:"publishers"`
}

// Config is one publisher entry of the publishers file
type Config struct {
	ID      string       `json:"id" yaml:"id"`
	Type    string       `json:"type" yaml:"type"`
	Enabled *bool        `json:"enabled" yaml:"enabled"`
	HTTP    *HTTPConfig  `json:"http" yaml:"http"`
	Redis   *RedisConfig `json:"redis" yaml:"redis"`
	Queue   *QueueConfig `json:"queue" yaml:"queue"`

	// OnlyVerdicts limits delivery to the listed verdicts; empty sends all
	OnlyVerdicts []string `json:"only_verdicts" yaml:"only_verdicts"`
}

// HTTPConfig is a webhook sink
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// RedisConfig appends events to a stream, or to a list when List is set
type RedisConfig struct {
	Address  string `json:"address" yaml:"address"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Stream   string `json:"stream" yaml:"stream"`
	List     string `json:"list" yaml:"list"`
}

// QueueConfig selects a cloud queue provider
type QueueConfig struct {
	Provider string        `json:"provider" yaml:"provider"`
	SQS      *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS      *SNSConfig    `json:"sns" yaml:"sns"`
	GCP      *PubSubConfig `json:"gcp" yaml:"gcp"`
}

// SQSConfig holds AWS SQS settings. Empty keys use the default credential chain.
type SQSConfig struct {
	QueueURL        string `json:"uri" yaml:"uri"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SNSConfig holds AWS SNS settings. Empty keys use the default credential chain.
type SNSConfig struct {
	TopicARN        string `json:"topic_arn" yaml:"topic_arn"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// PubSubConfig holds Google Cloud Pub/Sub settings
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// EnabledValue returns the enabled flag, defaulting to true
func (c Config) EnabledValue() bool {
	return c.Enabled == nil || *c.Enabled
}

// Accepts reports whether the event passes the verdict filter
func (c Config) Accepts(evt Event) bool {
	if len(c.OnlyVerdicts) == 0 {
		return true
	}
	for _, v := range c.OnlyVerdicts {
		if strings.EqualFold(v, string(evt.Verdict)) {
			return true
		}
	}
	return false
}

// LoadConfigs reads publisher definitions from a YAML or JSON file.
// ${VAR} references are expanded from the environment.
func LoadConfigs(path string) ([]Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}
	return ParseConfigs([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
}

// ParseConfigs decodes and validates a publishers document.
// An empty ext tries YAML, then JSON.
func ParseConfigs(data []byte, ext string) ([]Config, error) {
	file, err := decodeFile(data, ext)
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	seen := make(map[string]bool, len(file.Publishers))
	out := make([]Config, 0, len(file.Publishers))
	for i := range file.Publishers {
		cfg := sanitize(file.Publishers[i])
		if err := validate(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if seen[cfg.ID] {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = true
		out = append(out, cfg)
	}
	return out, nil
}

func decodeFile(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		ext string
		fn  func([]byte, any) error
	}{
		{ext: ".yaml", fn: yaml.Unmarshal},
		{ext: ".yml", fn: yaml.Unmarshal},
		{ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file configFile
		if err := d.fn(data, &file); err != nil {
			lastErr = err
			continue
		}
		return file, nil
	}
	if lastErr != nil {
		return configFile{}, fmt.Errorf("decode publishers file: %w", lastErr)
	}
	return configFile{}, fmt.Errorf("publishers file format %q not recognized (expected YAML or JSON)", ext)
}

func sanitize(cfg Config) Config {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = strings.TrimSpace(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		c.Headers = sanitizeHeaders(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeout
		}
		cfg.HTTP = &c
	}
	if cfg.Redis != nil {
		r := *cfg.Redis
		r.Address = strings.TrimSpace(r.Address)
		r.Stream = strings.TrimSpace(r.Stream)
		r.List = strings.TrimSpace(r.List)
		if r.Stream == "" && r.List == "" {
			r.Stream = redisDefaultStream
		}
		cfg.Redis = &r
	}
	if cfg.Queue != nil {
		q := *cfg.Queue
		q.Provider = strings.ToLower(strings.TrimSpace(q.Provider))
		if q.SQS != nil {
			s := *q.SQS
			s.QueueURL = strings.TrimSpace(s.QueueURL)
			s.Region = strings.TrimSpace(s.Region)
			q.SQS = &s
		}
		if q.SNS != nil {
			s := *q.SNS
			s.TopicARN = strings.TrimSpace(s.TopicARN)
			s.Region = strings.TrimSpace(s.Region)
			q.SNS = &s
		}
		if q.GCP != nil {
			g := *q.GCP
			g.ProjectID = strings.TrimSpace(g.ProjectID)
			g.Topic = strings.TrimSpace(g.Topic)
			g.CredentialsFile = strings.TrimSpace(g.CredentialsFile)
			q.GCP = &g
		}
		cfg.Queue = &q
	}
	return cfg
}

func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validate(cfg Config) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", cfg.ID)

	case TypeHTTP:
		if cfg.HTTP == nil || cfg.HTTP.URL == "" {
			return fmt.Errorf("http.url is required for publisher %q", cfg.ID)
		}

	case TypeRedis:
		if cfg.Redis == nil || cfg.Redis.Address == "" {
			return fmt.Errorf("redis.address is required for publisher %q", cfg.ID)
		}

	case TypeQueue:
		if cfg.Queue == nil {
			return fmt.Errorf("queue config required for publisher %q", cfg.ID)
		}
		return validateQueue(cfg.ID, cfg.Queue)

	default:
		return fmt.Errorf("type %q not supported for publisher %q", cfg.Type, cfg.ID)
	}
	return nil
}

func validateQueue(id string, q *QueueConfig) error {
	switch q.Provider {
	case QueueProviderAWSSQS:
		if q.SQS == nil || q.SQS.QueueURL == "" {
			return fmt.Errorf("sqs.uri is required for publisher %q", id)
		}
		if q.SQS.Region == "" {
			return fmt.Errorf("sqs.region is required for publisher %q", id)
		}
	case QueueProviderAWSSNS:
		if q.SNS == nil || q.SNS.TopicARN == "" {
			return fmt.Errorf("sns.topic_arn is required for publisher %q", id)
		}
		if q.SNS.Region == "" {
			return fmt.Errorf("sns.region is required for publisher %q", id)
		}
	case QueueProviderGCP:
		if q.GCP == nil || q.GCP.ProjectID == "" {
			return fmt.Errorf("gcp.project_id is required for publisher %q", id)
		}
		if q.GCP.Topic == "" {
			return fmt.Errorf("gcp.topic is required for publisher %q", id)
		}
	default:
		return fmt.Errorf("queue provider %q not supported for publisher %q", q.Provider, id)
	}
	return nil
}
