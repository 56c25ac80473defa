package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"eduguard/logging"
	"eduguard/ml"
)

// Config 服务配置
type Config struct {
	Database struct {
		Path        string `yaml:"path"`
		DatasetPath string `yaml:"dataset_path"`
	} `yaml:"database"`

	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`

	Log logging.Config `yaml:"log"`

	ML struct {
		ModelDir       string            `yaml:"model_dir"`
		RiskThresholds ml.RiskThresholds `yaml:"risk_thresholds"`
		Training       ml.TrainConfig    `yaml:"training"`
	} `yaml:"ml"`
}

// LoadConfig 读取YAML配置并填充默认值
func LoadConfig(path string) (*Config, error) {
	config := &Config{}
	config.Database.Path = "./data/eduguard.db"
	config.Database.DatasetPath = "./data/dataset.db"
	config.HTTP.Port = 8080
	config.ML.ModelDir = "./models"
	config.ML.RiskThresholds = ml.DefaultRiskThresholds()
	config.ML.Training = ml.DefaultTrainConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if config.ML.RiskThresholds.High <= config.ML.RiskThresholds.Medium {
		return nil, fmt.Errorf("risk thresholds invalid: high must exceed medium")
	}

	return config, nil
}
