package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore serves secrets from <Dir>/<secretID>.json for developer machines.
// The region is ignored.
type FileStore struct {
	Dir string
}

func (f FileStore) GetSecretValue(ctx context.Context, secretID, region string) (string, error) {
	_ = ctx
	_ = region
	path := filepath.Join(f.Dir, filepath.Base(secretID)+".json")
	data, err := os.ReadFile(path) // #nosec G304 - path built from operator config
	if err != nil {
		return "", fmt.Errorf("read local secret: %w", err)
	}
	return string(data), nil
}

var _ Store = FileStore{}
