package fs

import (
	"context"

	"github.com/oneconcern/cairn/pkg/cafs"
	"github.com/oneconcern/cairn/pkg/path"
)

// SampleDirectories are created in the private branch of a new file system
var SampleDirectories = []string{"Apps", "Audio", "Documents", "Photos", "Video"}

// AddSampleData creates the sample private directories, then publishes the file system
func AddSampleData(ctx context.Context, f *FileSystem) (cafs.Key, error) {
	for _, name := range SampleDirectories {
		if err := f.Mkdir(ctx, path.Directory(path.Private.String(), name).ToPosix()); err != nil {
			return cafs.NilKey, err
		}
	}
	return f.Publish(ctx)
}
