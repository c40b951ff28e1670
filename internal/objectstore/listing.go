package objectstore

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/snapvault/browser/pkg/types"
)

// buildListing reshapes a raw ListObjectsV2 response into the adapter's
// folders/files contract. It touches no network and is directly testable:
// folder name is the last non-empty path segment of the common prefix with
// its trailing delimiter removed; a content entry whose key equals the
// requested prefix (a folder marker) is dropped, as is any entry with an
// empty basename.
func buildListing(prefix, delimiter string, commonPrefixes []s3types.CommonPrefix, contents []s3types.Object, isTruncated bool) *types.ObjectListing {
	listing := &types.ObjectListing{
		Prefix:      prefix,
		IsTruncated: isTruncated,
		Folders:     make([]types.Folder, 0, len(commonPrefixes)),
		Files:       make([]types.ObjectMetadata, 0, len(contents)),
	}

	for _, cp := range commonPrefixes {
		fullPrefix := aws.ToString(cp.Prefix)
		trimmed := strings.TrimSuffix(fullPrefix, delimiter)
		name := trimmed
		if idx := strings.LastIndex(trimmed, delimiter); idx != -1 {
			name = trimmed[idx+len(delimiter):]
		}
		if name == "" {
			continue
		}
		listing.Folders = append(listing.Folders, types.Folder{Name: name, Prefix: fullPrefix})
	}

	for _, obj := range contents {
		key := aws.ToString(obj.Key)
		if key == prefix {
			continue
		}
		if key[strings.LastIndex(key, "/")+1:] == "" {
			continue
		}
		listing.Files = append(listing.Files, types.ObjectMetadata{
			Key:          key,
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
		})
	}

	return listing
}
