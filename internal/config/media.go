package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

const (
	EnvMediaProvider      = "MEDIA_PROVIDER"
	EnvCloudinaryName     = "CLOUDINARY_CLOUD_NAME"
	EnvCloudinaryKey      = "CLOUDINARY_API_KEY"
	EnvCloudinarySecret   = "CLOUDINARY_API_SECRET"
	EnvMediaFolder        = "MEDIA_FOLDER"
	EnvMediaLocalPath     = "MEDIA_LOCAL_PATH"
	EnvMediaPublicURL     = "MEDIA_PUBLIC_URL"
	EnvMediaMaxUploadSize = "MEDIA_MAX_UPLOAD_SIZE"

	ProviderCloudinary = "cloudinary"
	ProviderLocal      = "local"
)

type MediaConfig struct {
	// Provider is "cloudinary" or "local". Defaults to cloudinary when
	// credentials are present.
	Provider         string `toml:"provider"`
	CloudName        string `toml:"cloud_name"`
	APIKey           string `toml:"api_key"`
	APISecret        string `toml:"api_secret"`
	Folder           string `toml:"folder"`
	LocalPath        string `toml:"local_path"`
	PublicURL        string `toml:"public_url"`
	MaxUploadSize    string `toml:"max_upload_size"`
	maxUploadSizeVal int64
}

func (c *MediaConfig) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

func (c *MediaConfig) Finalize(port string) error {
	c.loadEnv()

	if c.Provider == "" {
		if c.CloudName != "" {
			c.Provider = ProviderCloudinary
		} else {
			c.Provider = ProviderLocal
		}
	}
	if c.Folder == "" {
		c.Folder = "articles"
	}
	if c.LocalPath == "" {
		c.LocalPath = "./media-data"
	}
	if c.PublicURL == "" {
		c.PublicURL = "http://localhost:" + port
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}

	return c.validate()
}

func (c *MediaConfig) loadEnv() {
	for env, dst := range map[string]*string{
		EnvMediaProvider:      &c.Provider,
		EnvCloudinaryName:     &c.CloudName,
		EnvCloudinaryKey:      &c.APIKey,
		EnvCloudinarySecret:   &c.APISecret,
		EnvMediaFolder:        &c.Folder,
		EnvMediaLocalPath:     &c.LocalPath,
		EnvMediaPublicURL:     &c.PublicURL,
		EnvMediaMaxUploadSize: &c.MaxUploadSize,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

func (c *MediaConfig) validate() error {
	switch c.Provider {
	case ProviderCloudinary:
		if c.CloudName == "" || c.APIKey == "" || c.APISecret == "" {
			return fmt.Errorf("cloudinary requires %s, %s and %s",
				EnvCloudinaryName, EnvCloudinaryKey, EnvCloudinarySecret)
		}
	case ProviderLocal:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size
	return nil
}
