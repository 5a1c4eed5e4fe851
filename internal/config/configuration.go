package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when reading the environment
const EnvPrefix = "CAMFX"

type Config struct {
	// Capture
	CameraDevice int `mapstructure:"CAMERA_DEVICE" validate:"gte=0"`

	// Frame geometry used to center new stickers
	FrameWidth  int `mapstructure:"FRAME_WIDTH" validate:"gt=0"`
	FrameHeight int `mapstructure:"FRAME_HEIGHT" validate:"gt=0"`

	// Stickers
	StickerScale float64 `mapstructure:"STICKER_SCALE" validate:"gt=0,lte=10"`
	NudgeStep    int     `mapstructure:"NUDGE_STEP" validate:"gt=0"`

	// Loop
	IdleInterval time.Duration `mapstructure:"IDLE_INTERVAL" validate:"gt=0"`

	// Logging
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=json text"`
	Debug     bool   `mapstructure:"DEBUG"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	typ := reflect.TypeOf(c)
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			viper.BindEnv(tag)
		}
	}
}

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix(EnvPrefix)
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("CAMERA_DEVICE", 0)
	viper.SetDefault("FRAME_WIDTH", 640)
	viper.SetDefault("FRAME_HEIGHT", 480)
	viper.SetDefault("STICKER_SCALE", 0.1)
	viper.SetDefault("NUDGE_STEP", 10)
	viper.SetDefault("IDLE_INTERVAL", 33*time.Millisecond)
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("DEBUG", false)

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
