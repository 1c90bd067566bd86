package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Dynamo   DynamoConfig   `mapstructure:"dynamo"`
	Database DatabaseConfig `mapstructure:"database"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Features FeaturesConfig `mapstructure:"features"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// StorageConfig selects the task repository backend: dynamodb, postgres or
// memory.
type StorageConfig struct {
	Driver       string `mapstructure:"driver"`
	DefaultLimit int    `mapstructure:"default_limit"`
}

type DynamoConfig struct {
	TableName string `mapstructure:"table_name"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// AWSConfig is shared by the DynamoDB, S3, SNS, SES and SQS clients. A
// non-empty Endpoint points every client at LocalStack.
type AWSConfig struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type BlobConfig struct {
	Driver     string        `mapstructure:"driver"`
	Bucket     string        `mapstructure:"bucket"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
	UploadedBy string        `mapstructure:"uploaded_by"`
}

type NotifyConfig struct {
	Driver    string   `mapstructure:"driver"`
	TopicARN  string   `mapstructure:"topic_arn"`
	FromEmail string   `mapstructure:"from_email"`
	ToEmails  []string `mapstructure:"to_emails"`
}

type QueueConfig struct {
	Driver       string `mapstructure:"driver"`
	QueueURL     string `mapstructure:"queue_url"`
	KafkaBrokers string `mapstructure:"kafka_brokers"`
	KafkaTopic   string `mapstructure:"kafka_topic"`
	KafkaGroupID string `mapstructure:"kafka_group_id"`
	// KafkaDeadLetterTopic receives messages that failed KafkaMaxAttempts
	// times. Empty keeps retrying in place.
	KafkaDeadLetterTopic string        `mapstructure:"kafka_dead_letter_topic"`
	KafkaMaxAttempts     int           `mapstructure:"kafka_max_attempts"`
	PublishTimeout       time.Duration `mapstructure:"publish_timeout"`
}

type WorkerConfig struct {
	Consumers       int           `mapstructure:"consumers"`
	WaitTime        time.Duration `mapstructure:"wait_time"`
	MaxMessages     int           `mapstructure:"max_messages"`
	CleanupDaysOld  int           `mapstructure:"cleanup_days_old"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

type FeaturesConfig struct {
	RequestIDHeader      string `mapstructure:"request_id_header"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`
	EnableBreakers       bool   `mapstructure:"enable_breakers"`
}

type AuthConfig struct {
	APIKey         string   `mapstructure:"api_key"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.body_limit", 10*1024*1024)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.output_paths", []string{"stdout"})
	v.SetDefault("logger.error_output_paths", []string{"stderr"})

	v.SetDefault("storage.driver", "dynamodb")
	v.SetDefault("storage.default_limit", 50)
	v.SetDefault("dynamo.table_name", "tasks-table")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("aws.region", "us-east-1")

	v.SetDefault("blob.driver", "s3")
	v.SetDefault("blob.bucket", "task-manager-files")
	v.SetDefault("blob.presign_ttl", time.Hour)
	v.SetDefault("blob.uploaded_by", "task-manager-api")

	v.SetDefault("notify.driver", "sns")
	v.SetDefault("queue.driver", "sqs")
	v.SetDefault("queue.kafka_topic", "task-processing")
	v.SetDefault("queue.kafka_group_id", "task-workers")
	v.SetDefault("queue.kafka_max_attempts", 5)
	v.SetDefault("queue.publish_timeout", 3*time.Second)

	v.SetDefault("worker.consumers", 1)
	v.SetDefault("worker.wait_time", 20*time.Second)
	v.SetDefault("worker.max_messages", 10)
	v.SetDefault("worker.cleanup_days_old", 30)
	v.SetDefault("worker.max_retry_backoff", 30*time.Second)

	v.SetDefault("features.request_id_header", "X-Request-ID")
	v.SetDefault("features.enable_request_logging", true)
	v.SetDefault("features.enable_breakers", true)
}

// Load reads the YAML file at path (optional when it does not exist) and
// applies TASKS_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("TASKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "dynamodb", "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Queue.Driver {
	case "sqs", "kafka", "none", "":
	default:
		return fmt.Errorf("config: unknown queue.driver %q", c.Queue.Driver)
	}
	switch c.Notify.Driver {
	case "sns", "ses", "none", "":
	default:
		return fmt.Errorf("config: unknown notify.driver %q", c.Notify.Driver)
	}
	switch c.Blob.Driver {
	case "s3", "none", "":
	default:
		return fmt.Errorf("config: unknown blob.driver %q", c.Blob.Driver)
	}
	return nil
}
