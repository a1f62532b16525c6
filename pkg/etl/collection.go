package etl

import "strings"

// collectionSuffix marks collections holding raw mirrored documents.
const collectionSuffix = "_raw"

// defaultCollectionName is used when an endpoint path flattens to nothing.
const defaultCollectionName = "root"

// CollectionName maps an endpoint path to its storage collection name:
// surrounding separators are stripped, internal separators become
// underscores, and the raw suffix is appended. "/tags" becomes "tags_raw";
// "/" and "" map to the default name before suffixing.
func CollectionName(endpoint string) string {
	name := strings.Trim(endpoint, "/")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" {
		name = defaultCollectionName
	}
	return name + collectionSuffix
}
