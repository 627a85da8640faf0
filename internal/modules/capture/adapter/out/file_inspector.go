package out

import (
	"context"
	"os"
)

type OSFileInspector struct{}

func (OSFileInspector) Size(_ context.Context, path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
