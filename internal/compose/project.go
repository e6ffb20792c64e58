package compose

import (
	"context"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// projectName is only used to satisfy the loader; nothing is deployed.
const projectName = "composenet"

// ValidateProject loads data with compose-go and reports whether it is a
// valid compose project. Relative paths are resolved against workingDir.
// Includes and extends are not followed.
func ValidateProject(ctx context.Context, data []byte, workingDir string) error {
	var dict map[string]interface{}
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return &ValidationError{Err: err}
	}
	if dict == nil {
		dict = map[string]interface{}{}
	}

	_, err := loader.LoadWithContext(ctx, types.ConfigDetails{
		WorkingDir: workingDir,
		ConfigFiles: []types.ConfigFile{
			{
				Filename: "compose.yaml",
				Content:  data,
				Config:   dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName(projectName, false)
		opts.SkipNormalization = true
		opts.SkipExtends = true
		opts.SkipInclude = true
	})
	if err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
