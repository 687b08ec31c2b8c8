package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/devricklin/feishu-media-bridge/internal/biz/usecase"
)

// LoadReplies loads reply texts from a YAML file.
// Missing files fall back to the built-in messages; empty keys are filled from defaults.
func LoadReplies(configPath string) (usecase.Replies, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/messages.yaml",
			"/etc/feishu-media-bridge/messages.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "messages.yaml"))
		}
	}

	var data []byte
	for _, p := range paths {
		if p == "" {
			continue
		}
		if b, err := os.ReadFile(p); err == nil {
			data = b
			break
		}
	}

	if data == nil {
		if configPath != "" {
			return usecase.Replies{}, fmt.Errorf("messages config %s not readable", configPath)
		}
		return usecase.DefaultReplies, nil
	}

	var replies usecase.Replies
	if err := yaml.Unmarshal(data, &replies); err != nil {
		return usecase.Replies{}, fmt.Errorf("failed to parse messages config: %w", err)
	}
	return replies.WithDefaults(), nil
}
